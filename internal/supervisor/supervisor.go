// Package supervisor implements the host-side command dispatcher (spec.md
// §4.3): it polls the shared mailbox, parses packets the bus engine has
// received, maintains the two block-device images, and builds responses for
// the engine to transmit.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/rhughes99/smartport/internal/diskimage"
	"github.com/rhughes99/smartport/internal/mailbox"
	"github.com/rhughes99/smartport/internal/packet"
)

// pollInterval is the ~40 us poll period spec.md §4.3 calls for.
const pollInterval = 40 * time.Microsecond

// Supervisor is the cooperative host loop. It owns the Supervisor half of
// the mailbox exclusively.
type Supervisor struct {
	mbox      mailbox.SupervisorSide
	store     *diskimage.Store
	handshake mailbox.HandshakeMode
	log       *logrus.Logger
	metrics   *Metrics

	lastStatus mailbox.BusState
	id1, id2   byte

	havePendingWrite   bool
	pendingWriteBlock  uint32
	pendingWriteDevice int
}

// New constructs a Supervisor. The supervisor builds the INIT reply
// templates into the mailbox's init-template slots before returning, since
// it is the agent responsible for constructing them once at startup
// (spec.md §3, "INIT response buffers").
func New(mbox mailbox.SupervisorSide, store *diskimage.Store, handshake mailbox.HandshakeMode, log *logrus.Logger) *Supervisor {
	packet.BuildInitTemplates(mbox.InitTemplate(0), mbox.InitTemplate(1))

	return &Supervisor{
		mbox:      mbox,
		store:     store,
		handshake: handshake,
		log:       log,
		metrics:   NewMetrics(),
		id1:       mailbox.UnassignedID,
		id2:       mailbox.UnassignedID,
	}
}

// Metrics returns the supervisor's Prometheus collector, for registration
// with a registry at startup.
func (s *Supervisor) Metrics() *Metrics { return s.metrics }

// Run polls the mailbox until ctx is canceled, finishing its current
// dispatch before returning -- spec.md §5, "Cancellation": no drain of the
// engine is attempted.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s.tick()
	}
}

func (s *Supervisor) tick() {
	if code := s.mbox.Error(); code != mailbox.ErrNone {
		s.log.WithField("code", code.String()).Warn("bus engine reported an error")
		s.mbox.ClearError()
		s.metrics.engineErrors.WithLabelValues(code.String()).Inc()
	}

	status := s.mbox.Status()
	switch status {
	case mailbox.StateReset:
		s.id1, s.id2 = mailbox.UnassignedID, mailbox.UnassignedID
		s.havePendingWrite = false
		if s.lastStatus != mailbox.StateReset {
			s.metrics.resets.Inc()
		}

	case mailbox.StateIdle, mailbox.StateEnabled:
		s.id1 = s.mbox.BusID1()
		s.id2 = s.mbox.BusID2()

	case mailbox.StateRcvdPack:
		if s.lastStatus != mailbox.StateRcvdPack {
			s.dispatch()
		}
	}

	s.lastStatus = status
}

// dispatch parses the just-received packet and routes it to a command
// handler, per spec.md §4.3's numbered dispatch steps.
func (s *Supervisor) dispatch() {
	log := s.log.WithField("xid", xid.New().String())

	buf := s.mbox.ReceivedBuffer()
	rp := packet.NewReceived(buf)

	dest := rp.Dest()
	deviceIdx, ok := s.deviceFor(dest)
	if !ok {
		log.WithField("dest", dest).Debug("destination matches neither assigned id, skipping")
		s.mbox.SetHandoff(mailbox.HandoffSkip)
		s.metrics.skipped.Inc()
		return
	}

	if rp.Kind() == packet.KindData {
		if s.havePendingWrite && s.pendingWriteDevice == deviceIdx {
			s.handleDataPacket(log, deviceIdx, dest, buf)
		} else {
			log.Warn("unexpected data packet with no pending write, skipping")
			s.mbox.SetHandoff(mailbox.HandoffSkip)
			s.metrics.skipped.Inc()
		}
		return
	}

	cmd := rp.AsCommand()
	log = log.WithField("cmd", cmd.Num)

	switch cmd.Num {
	case packet.CmdStatus, packet.CmdExtStatus:
		s.handleStatus(log, cmd, buf, deviceIdx, dest)
	case packet.CmdReadBlock, packet.CmdExtReadBlock:
		s.handleReadBlock(log, cmd, buf, deviceIdx, dest)
	case packet.CmdWriteBlock, packet.CmdExtWriteBlock:
		s.handleWriteBlock(log, cmd, buf, deviceIdx)
	default:
		// CONTROL and every character-device command (FORMAT/OPEN/CLOSE/
		// READ/WRITE) are unsupported, along with anything else we don't
		// recognize; INIT never reaches here since the engine answers it
		// directly.
		log.Debug("unsupported command, responding 0x21")
		s.respondStandardStatus(dest, errUnsupported)
	}
}

// deviceFor maps a destination ID to a device index, per spec.md §4.3
// "Destination dispatch".
func (s *Supervisor) deviceFor(dest byte) (int, bool) {
	switch dest {
	case s.id1:
		return 0, true
	case s.id2:
		return 1, true
	default:
		return 0, false
	}
}

func (s *Supervisor) respondStandardStatus(srcID, errCode byte) {
	resp := s.mbox.ResponseBuffer()
	packet.EncodeStandardStatus(resp, srcID, errCode)
	s.mbox.SetHandoff(mailbox.HandoffGo)
}
