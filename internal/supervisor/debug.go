package supervisor

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// dumpBytes is how many leading bytes of the received-packet buffer a debug
// dump prints, matching myDebug's fixed 32-byte loop in the original.
const dumpBytes = 32

// DumpReceived logs the first dumpBytes of the current received-packet
// buffer, for the SIGTSTP debug dump (spec.md §6, "CLI/UX surface").
func (s *Supervisor) DumpReceived() {
	buf := s.mbox.ReceivedBuffer()
	fields := logrus.Fields{}
	for i := 0; i < dumpBytes; i++ {
		fields[fmt.Sprintf("b%d", i)] = buf[i]
	}
	s.log.WithFields(fields).Info("received-packet buffer dump")
}
