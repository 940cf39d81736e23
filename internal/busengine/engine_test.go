package busengine

import (
	"context"
	"testing"
	"time"

	"github.com/rhughes99/smartport/internal/busio/loopback"
	"github.com/rhughes99/smartport/internal/mailbox"
	"github.com/rhughes99/smartport/internal/packet"
)

func newTestEngine(t *testing.T) (*Engine, *loopback.Lines, mailbox.SupervisorSide) {
	t.Helper()
	region := mailbox.New()
	eng, sup := mailbox.Sides(region)
	packet.BuildInitTemplates(eng.InitTemplate(0), eng.InitTemplate(1))
	lines := loopback.New()
	return New(lines, eng), lines, sup
}

func TestRunTracksIdleResetEnabled(t *testing.T) {
	e, lines, sup := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	time.Sleep(2 * time.Millisecond)
	if got := sup.Status(); got != mailbox.StateIdle {
		t.Fatalf("status with phase 0 = %v, want idle", got)
	}

	lines.DrivePhase(0x05) // RESET
	time.Sleep(2 * time.Millisecond)
	if got := sup.Status(); got != mailbox.StateReset {
		t.Fatalf("status with RESET phase = %v, want reset", got)
	}
	if sup.BusID1() != mailbox.UnassignedID || sup.BusID2() != mailbox.UnassignedID {
		t.Fatalf("bus ids not cleared on reset: %#x %#x", sup.BusID1(), sup.BusID2())
	}

	lines.DrivePhase(0x00) // back to idle before leaving ENABLED unattended
	time.Sleep(2 * time.Millisecond)

	lines.DrivePhase(0x0A) // ENABLED, REQ low: engine waits on waitForReq and doesn't hang the loop
	time.Sleep(2 * time.Millisecond)
	if got := sup.Status(); got != mailbox.StateEnabled {
		t.Fatalf("status with ENABLED phase (REQ low) = %v, want enabled", got)
	}

	lines.DrivePhase(0x00)
}

func TestProcessPacketBadBeginMarkerReportsE1(t *testing.T) {
	e, _, sup := newTestEngine(t)

	buf := e.mbox.ReceivedBuffer()
	for i := range buf {
		buf[i] = 0
	}
	buf[7] = 0x80 // dest
	buf[15] = packet.CmdStatus

	e.processPacket()

	if sup.Error() != mailbox.ErrBadPacketBegin {
		t.Fatalf("error = %v, want E1", sup.Error())
	}
	if sup.Status() != mailbox.StateUnknown {
		t.Fatalf("status = %v, want unknown", sup.Status())
	}
}

func TestProcessPacketDestMismatchReportsE3(t *testing.T) {
	e, _, sup := newTestEngine(t)
	e.busID1 = 0x80
	e.busID2 = 0x90

	buf := e.mbox.ReceivedBuffer()
	for i := range buf {
		buf[i] = 0
	}
	buf[6] = packet.PBegin
	buf[7] = 0xA0 // dest matches neither assigned id
	buf[15] = packet.CmdStatus

	done := make(chan struct{})
	go func() { e.processPacket(); close(done) }()

	deadline := time.After(time.Second)
	for sup.Status() != mailbox.StateRcvdPack {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for RCVDPACK status")
		default:
			time.Sleep(100 * time.Microsecond)
		}
	}
	sup.SetHandoff(mailbox.HandoffSkip) // let processPacket's handoff wait unblock

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processPacket did not return after handoff=Skip")
	}

	if sup.Error() != mailbox.ErrDestMismatch {
		t.Fatalf("error = %v, want E3", sup.Error())
	}
}

func TestSendInitAssignsFirstAndSecondID(t *testing.T) {
	e, lines, sup := newTestEngine(t)

	driveReq := func() {
		time.Sleep(time.Millisecond)
		lines.DrivePhase(0x01) // REQ high
	}

	go driveReq()
	e.sendInit(0x80)
	lines.DrivePhase(0x00) // REQ low again before the next send

	if sup.BusID1() != 0x80 {
		t.Fatalf("BusID1 = %#x, want 0x80", sup.BusID1())
	}
	if e.initCnt != 1 {
		t.Fatalf("initCnt after first INIT = %d, want 1", e.initCnt)
	}

	go driveReq()
	e.sendInit(0x90)

	if sup.BusID2() != 0x90 {
		t.Fatalf("BusID2 = %#x, want 0x90", sup.BusID2())
	}
	if e.initCnt != 2 {
		t.Fatalf("initCnt after second INIT = %d, want 2", e.initCnt)
	}

	// A third INIT request, arriving after both slots are assigned, must be
	// reported as E2 instead of re-sent.
	e.sendInit(0xA0)
	if sup.Error() != mailbox.ErrExtraInit {
		t.Fatalf("error = %v, want E2", sup.Error())
	}
}

func TestWaitForReqReturnsFalseWhenPhaseLeavesEnabled(t *testing.T) {
	e, lines, _ := newTestEngine(t)
	lines.DrivePhase(0x0A) // ENABLED, REQ low

	go func() {
		time.Sleep(time.Millisecond)
		lines.DrivePhase(0x00) // drop out of ENABLED before REQ ever goes high
	}()

	if e.waitForReq() {
		t.Fatal("waitForReq returned true after the bus left ENABLED")
	}
}
