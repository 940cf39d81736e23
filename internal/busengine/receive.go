package busengine

import (
	"time"

	"github.com/rhughes99/smartport/internal/busio"
)

// bitAccumulator mirrors InsertBit's static state in SmartPortPru.c: the
// first byte's leading 1 is pre-loaded (we never see it as a transition),
// bits are shifted in MSB-first, and each completed octet is appended to buf.
type bitAccumulator struct {
	bitCnt        int
	byteInProcess byte
	buf           *[604]byte
	ptr           int
}

func newBitAccumulator(buf *[604]byte) *bitAccumulator {
	return &bitAccumulator{bitCnt: 1, byteInProcess: 0x02, buf: buf}
}

func (a *bitAccumulator) insertBit(bit byte) {
	if bit == 0 {
		a.byteInProcess &^= 0x01
	} else {
		a.byteInProcess |= 0x01
	}
	if a.bitCnt == 7 {
		if a.ptr < len(a.buf) {
			a.buf[a.ptr] = a.byteInProcess
		}
		a.ptr++
		a.bitCnt = 0
	} else {
		a.byteInProcess <<= 1
		a.bitCnt++
	}
}

// bitsForInterval maps a WDAT transition interval, expressed in 0.5us
// ticks, to the number of leading zero bits that precede the terminating
// one bit, per the table in spec.md §4.1. terminate reports the interval
// exceeded the maximum bit-cell window, ending the packet.
func bitsForInterval(ticks int) (zeros int, terminate bool) {
	switch {
	case ticks > maxReceiveTicks:
		return 0, true
	case ticks < 10:
		return 0, false
	case ticks < 17:
		return 1, false
	case ticks < 24:
		return 2, false
	case ticks < 31:
		return 3, false
	case ticks < 38:
		return 4, false
	case ticks < 45:
		return 5, false
	case ticks < 52:
		return 6, false
	default: // 52..65
		return 7, false
	}
}

// ReceivePacket decodes a SmartPort packet off the WDAT line into buf,
// following the interval-to-bits table. It returns once WDAT has stalled
// past the maximum bit-cell window, matching the original's
// ReceivePacket/InsertBit pair.
func ReceivePacket(pl busio.PhaseLines, buf *[604]byte) {
	acc := newBitAccumulator(buf)

	for pl.WDAT() { // wait for WDAT to go low, our t0
	}

	last := pl.WDAT()
	for {
		ticks := 0
		for pl.WDAT() == last {
			time.Sleep(tick)
			ticks++
			if ticks > maxReceiveTicks {
				return
			}
		}
		last = !last

		zeros, terminate := bitsForInterval(ticks)
		if terminate {
			return
		}
		for i := 0; i < zeros; i++ {
			acc.insertBit(0)
		}
		acc.insertBit(1)
	}
}
