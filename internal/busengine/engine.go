// Package busengine implements the realtime bus engine (spec.md §4.1): it
// samples the four phase lines, decodes the bus state, receives and
// transmits SmartPort packets, drives the INIT handshake, and reports
// engine-side errors through the mailbox.
//
// Engine.Run is meant to run on its own goroutine (standing in for the
// dedicated, non-preemptible co-processor the original ran on) and never
// blocks on the supervisor except while waiting for the handoff flag after
// a received packet, per spec.md §5.
package busengine

import (
	"context"
	"time"

	"github.com/rhughes99/smartport/internal/busio"
	"github.com/rhughes99/smartport/internal/mailbox"
	"github.com/rhughes99/smartport/internal/packet"
)

// handoffPollInterval is how often the engine re-checks the handoff flag
// while waiting for the supervisor, standing in for the original's
// __delay_cycles(1600) spin.
const handoffPollInterval = 8 * time.Microsecond

// Engine is the bus engine. It owns the PhaseLines and the engine's
// half-duplex mailbox view exclusively; nothing else may write through
// either while Run is active.
type Engine struct {
	lines busio.PhaseLines
	mbox  mailbox.EngineSide

	initCnt        int
	busID1, busID2 byte
}

// New constructs an Engine over the given phase lines and mailbox view. The
// supervisor must have already called BuildInitTemplates on its side of the
// mailbox before Run is started.
func New(lines busio.PhaseLines, mbox mailbox.EngineSide) *Engine {
	e := &Engine{lines: lines, mbox: mbox}
	e.handleReset()
	return e
}

// Run drives the bus until ctx is canceled. It never returns otherwise.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		phase := e.lines.SamplePhase()

		switch {
		case busio.IsReset(phase):
			e.mbox.SetStatus(mailbox.StateReset)
			e.handleReset()

		case busio.IsEnabled(phase):
			e.mbox.SetStatus(mailbox.StateEnabled)
			e.lines.SetLED(true)
			e.lines.SetACK(true)

			if e.waitForReq() {
				ReceivePacket(e.lines, e.mbox.ReceivedBuffer())
				e.processPacket()
			}

		default:
			e.mbox.SetStatus(mailbox.StateIdle)
			e.lines.SetLED(false)
			e.lines.SetACK(true)
		}
	}
}

// waitForReq blocks until REQ goes high or the bus leaves ENABLED.
func (e *Engine) waitForReq() bool {
	for {
		if !busio.IsEnabled(e.lines.SamplePhase()) {
			return false
		}
		if e.lines.REQ() {
			return true
		}
	}
}

func (e *Engine) handleReset() {
	e.lines.SetTEST(false)
	e.lines.SetACK(false)
	e.lines.SetOUTEN(false) // float RDAT
	e.lines.SetLED(false)

	e.initCnt = 0
	e.busID1 = mailbox.UnassignedID
	e.busID2 = mailbox.UnassignedID

	e.mbox.Reset()
}

// processPacket mirrors ProcessPacket in SmartPortPru.c: an INIT command is
// answered immediately; any other well-formed packet is handed to the
// supervisor and the engine blocks on the handoff flag; a bad PBegin marker
// is reported as E1.
func (e *Engine) processPacket() {
	buf := e.mbox.ReceivedBuffer()
	cmd := packet.CmdNum(buf)
	dest := packet.Dest(buf)

	if packet.IsInit(cmd) {
		e.sendInit(dest)
		return
	}

	if packet.PacketBeginMarker(buf) != packet.PBegin {
		e.mbox.SetError(mailbox.ErrBadPacketBegin)
		e.mbox.SetStatus(mailbox.StateUnknown)
		return
	}

	if dest != e.busID1 && dest != e.busID2 {
		e.mbox.SetError(mailbox.ErrDestMismatch)
	}

	e.mbox.SetStatus(mailbox.StateRcvdPack)
	e.lines.SetACK(false) // tell the host we're responding

	e.mbox.SetHandoff(mailbox.HandoffSet)
	for e.mbox.Handoff() == mailbox.HandoffSet {
		time.Sleep(handoffPollInterval)
	}

	if e.mbox.Handoff() == mailbox.HandoffGo {
		e.mbox.SetStatus(mailbox.StateSending)
		resp := e.mbox.ResponseBuffer()
		SendPacket(e.lines, resp[:], false)
	}
}

// sendInit answers the first or second INIT request of a bus generation,
// patching the assigned ID into whichever template is next and finalizing
// its checksum, per SendInit in SmartPortPru.c.
func (e *Engine) sendInit(dest byte) {
	if e.initCnt >= 2 {
		e.mbox.SetError(mailbox.ErrExtraInit)
		return
	}

	e.lines.SetACK(false)

	// Patch a copy so the template keeps its unpatched checksum for the
	// INIT replies of later bus generations.
	tpl := *e.mbox.InitTemplate(e.initCnt)
	packet.PatchInitSource(&tpl, dest)

	e.mbox.SetStatus(mailbox.StateSending)
	SendPacket(e.lines, tpl[:], true)

	if e.initCnt == 0 {
		e.busID1 = dest
		e.mbox.SetBusID1(dest)
	} else {
		e.busID2 = dest
		e.mbox.SetBusID2(dest)
	}
	e.initCnt++
}
