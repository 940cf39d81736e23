// Package loopback provides an in-memory PhaseLines implementation, driven
// from both sides: the engine through the PhaseLines methods, and a test or
// software peer through the Drive*/Read* methods below. It lets the bus
// engine be exercised end to end without real GPIO hardware.
package loopback

import (
	"sync"

	"github.com/rhughes99/smartport/internal/busio"
)

// Lines is a software-only PhaseLines backed by plain fields guarded by a
// mutex. Both the engine side (via Lines itself) and a test/peer driver
// (via the Drive* methods) operate on the same instance.
type Lines struct {
	mu sync.Mutex

	phase busio.Phase
	wdat  bool

	outen bool
	rdat  bool
	ack   bool
	led   bool
	test  bool
}

// New returns a Lines with the bus idle (phase 0, lines at rest).
func New() *Lines {
	return &Lines{}
}

// --- busio.PhaseLines, as driven by the engine ---

func (l *Lines) SamplePhase() busio.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

func (l *Lines) REQ() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase&0x01 != 0
}

func (l *Lines) WDAT() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wdat
}

func (l *Lines) SetACK(level bool)   { l.mu.Lock(); l.ack = level; l.mu.Unlock() }
func (l *Lines) SetOUTEN(level bool) { l.mu.Lock(); l.outen = level; l.mu.Unlock() }
func (l *Lines) SetRDAT(level bool)  { l.mu.Lock(); l.rdat = level; l.mu.Unlock() }
func (l *Lines) SetLED(level bool)   { l.mu.Lock(); l.led = level; l.mu.Unlock() }
func (l *Lines) SetTEST(level bool)  { l.mu.Lock(); l.test = level; l.mu.Unlock() }

// --- peer-side driving, used by tests ---

// DrivePhase sets the REQ/P1/P2/P3 phase code the engine will sample.
func (l *Lines) DrivePhase(p busio.Phase) { l.mu.Lock(); l.phase = p; l.mu.Unlock() }

// DriveWDAT sets the self-clocked data line level.
func (l *Lines) DriveWDAT(level bool) { l.mu.Lock(); l.wdat = level; l.mu.Unlock() }

// ReadACK, ReadOUTEN and ReadRDAT let a peer observe what the engine drove.
func (l *Lines) ReadACK() bool   { l.mu.Lock(); defer l.mu.Unlock(); return l.ack }
func (l *Lines) ReadOUTEN() bool { l.mu.Lock(); defer l.mu.Unlock(); return l.outen }
func (l *Lines) ReadRDAT() bool  { l.mu.Lock(); defer l.mu.Unlock(); return l.rdat }
