// Package mailbox defines the shared-memory layout the bus engine and the
// supervisor use to hand packets and status back and forth, and the typed
// half-duplex views each side gets over it.
//
// On the original hardware this was a page of PRU-local RAM mapped into the
// host process at a fixed physical address. Here it is a Region held in
// process memory and shared between the engine and supervisor goroutines;
// the offsets below are kept as documentation and as the basis for the
// fixed-offset fields used by the packet codec.
package mailbox

// Offsets within the shared region, as specified by the bus protocol.
const (
	StatusOffset   = 0x300
	BusID1Offset   = 0x301
	BusID2Offset   = 0x302
	HandoffOffset  = 0x303
	ErrorOffset    = 0x304
	ReceivedOffset = 0x400
	ResponseOffset = 0x800
	InitResp1Off   = 0xC00
	InitResp2Off   = 0xE00

	PacketSize  = 604
	InitReplySz = 23

	// UnassignedID marks a bus ID slot that has not been assigned by INIT.
	UnassignedID = 0xFF
)

// BusState is the engine's view of the 4-phase bus, written only by the
// engine.
type BusState byte

const (
	StateIdle BusState = iota
	StateReset
	StateEnabled
	StateRcvdPack
	StateSending
	StateWriting
	StateUnknown
)

func (s BusState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReset:
		return "reset"
	case StateEnabled:
		return "enabled"
	case StateRcvdPack:
		return "rcvd-pack"
	case StateSending:
		return "sending"
	case StateWriting:
		return "writing"
	default:
		return "unknown"
	}
}

// Handoff is the flag the engine and supervisor use to hand a receive/send
// cycle back and forth. Engine writes Set; supervisor writes Go or Skip.
type Handoff byte

const (
	HandoffSet Handoff = iota
	HandoffGo
	HandoffSkip
)

// ErrorCode is the engine-reported error byte (spec.md §7, "Engine-reported
// errors").
type ErrorCode byte

const (
	ErrNone ErrorCode = iota
	ErrBadPacketBegin
	ErrExtraInit
	ErrDestMismatch
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrBadPacketBegin:
		return "E1: bad packet-begin marker"
	case ErrExtraInit:
		return "E2: extra INIT"
	case ErrDestMismatch:
		return "E3: destination mismatch"
	default:
		return "unknown error"
	}
}

// HandshakeMode selects between the two WRITEBLOCK handshake variants found
// in the original implementation (spec.md Design Note (b)).
type HandshakeMode byte

const (
	// HandshakeSkip hands off to the engine with Skip immediately after a
	// WRITEBLOCK command, letting the engine receive the following data
	// packet without the supervisor emitting anything.
	HandshakeSkip HandshakeMode = iota
	// HandshakeZeroByte has the supervisor hand off an empty response (its
	// first byte is the 0x00 end marker), so the engine runs the send
	// handshake without transmitting any byte before the data packet arrives.
	HandshakeZeroByte
)
