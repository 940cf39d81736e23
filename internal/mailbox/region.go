package mailbox

import "sync/atomic"

// Region is the shared page. Every field has exactly one writer: the
// comments on each field name it. Status/ID/handoff/error fields are
// published through sync/atomic so a plain write to a packet buffer that
// happens-before an atomic store of status/handoff is guaranteed visible to
// a goroutine that subsequently loads that same atomic field (spec.md §5,
// "Ordering guarantees").
type Region struct {
	status  atomic.Uint32 // Engine writes
	id1     atomic.Uint32 // Engine writes
	id2     atomic.Uint32 // Engine writes
	handoff atomic.Uint32 // Engine writes Set; Supervisor writes Go/Skip
	errCode atomic.Uint32 // Engine writes; Supervisor clears

	received [PacketSize]byte     // Engine writes
	response [PacketSize]byte     // Supervisor writes
	initResp [2][InitReplySz]byte // built once by Supervisor, patched per-INIT by Engine
}

// New returns a freshly reset Region.
func New() *Region {
	r := &Region{}
	r.status.Store(uint32(StateUnknown))
	r.id1.Store(UnassignedID)
	r.id2.Store(UnassignedID)
	return r
}

// EngineSide is the engine's half-duplex view: it writes status/ids/errors/
// received-buffer, and reads handoff/response/init templates.
type EngineSide struct{ r *Region }

// SupervisorSide is the supervisor's half-duplex view: it writes
// handoff/response/init templates, and reads status/ids/errors/received.
type SupervisorSide struct{ r *Region }

// Sides constructs the paired views over a Region.
func Sides(r *Region) (EngineSide, SupervisorSide) {
	return EngineSide{r}, SupervisorSide{r}
}

// --- Engine-writable ---

func (e EngineSide) SetStatus(s BusState) { e.r.status.Store(uint32(s)) }
func (e EngineSide) SetBusID1(id byte)    { e.r.id1.Store(uint32(id)) }
func (e EngineSide) SetBusID2(id byte)    { e.r.id2.Store(uint32(id)) }
func (e EngineSide) SetError(c ErrorCode) { e.r.errCode.Store(uint32(c)) }
func (e EngineSide) SetHandoff(h Handoff) { e.r.handoff.Store(uint32(h)) }

// ReceivedBuffer returns the buffer the engine fills during a receive. The
// caller must finish writing to it before calling SetStatus(StateRcvdPack),
// per the ordering guarantee in spec.md §5.
func (e EngineSide) ReceivedBuffer() *[PacketSize]byte { return &e.r.received }

// ResponseBuffer is read-only from the engine's side; it reads what the
// supervisor built.
func (e EngineSide) ResponseBuffer() *[PacketSize]byte { return &e.r.response }

// InitTemplate returns init reply template n (0 or 1) for the engine to
// patch the source ID into and finalize the checksum before transmitting.
func (e EngineSide) InitTemplate(n int) *[InitReplySz]byte { return &e.r.initResp[n] }

func (e EngineSide) Handoff() Handoff { return Handoff(e.r.handoff.Load()) }

// --- Supervisor-writable ---

func (s SupervisorSide) Status() BusState     { return BusState(s.r.status.Load()) }
func (s SupervisorSide) BusID1() byte         { return byte(s.r.id1.Load()) }
func (s SupervisorSide) BusID2() byte         { return byte(s.r.id2.Load()) }
func (s SupervisorSide) Error() ErrorCode     { return ErrorCode(s.r.errCode.Load()) }
func (s SupervisorSide) ClearError()          { s.r.errCode.Store(uint32(ErrNone)) }
func (s SupervisorSide) SetHandoff(h Handoff) { s.r.handoff.Store(uint32(h)) }

// ReceivedBuffer is read-only from the supervisor's side.
func (s SupervisorSide) ReceivedBuffer() *[PacketSize]byte { return &s.r.received }

// ResponseBuffer is the buffer the supervisor builds a reply into. The
// caller must finish writing before calling SetHandoff(HandoffGo).
func (s SupervisorSide) ResponseBuffer() *[PacketSize]byte { return &s.r.response }

// InitTemplate returns init reply template n (0 or 1), built once at
// startup by the supervisor.
func (s SupervisorSide) InitTemplate(n int) *[InitReplySz]byte { return &s.r.initResp[n] }

// Reset clears IDs, handoff and error, as the engine does on bus RESET
// (spec.md §3, Bus IDs / Handoff flag / Error code rows).
func (e EngineSide) Reset() {
	e.r.id1.Store(UnassignedID)
	e.r.id2.Store(UnassignedID)
	e.r.handoff.Store(uint32(HandoffSet))
	e.r.errCode.Store(uint32(ErrNone))
}
