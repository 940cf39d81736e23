package busengine

import (
	"time"

	"github.com/rhughes99/smartport/internal/busio"
)

// SendPacket transmits buf starting at its first byte and ending at the
// first 0x00 sentinel, MSB-first per byte, following SendPacket in
// SmartPortPru.c. initReply selects the extra post-transmit pad INIT
// replies require instead of waiting for REQ to drop.
func SendPacket(pl busio.PhaseLines, buf []byte, initReply bool) {
	for pl.REQ() { // wait for the peer to finish its send cycle
	}

	pl.SetACK(true)
	pl.SetRDAT(true)
	pl.SetOUTEN(true) // enable RDAT as an output

	for !pl.REQ() { // wait for the peer to signal ready to receive
	}

	for _, b := range buf {
		if b == 0x00 {
			break
		}
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				pl.SetRDAT(false) // short low pulse for a 1 bit
			}
			time.Sleep(transmitShortPulse)
			pl.SetRDAT(true)
			time.Sleep(transmitInterBit)
		}
	}

	pl.SetACK(false)
	pl.SetOUTEN(false) // float RDAT

	if initReply {
		time.Sleep(initReplyPad)
	} else {
		for pl.REQ() { // wait for REQ to drop
		}
	}
}
