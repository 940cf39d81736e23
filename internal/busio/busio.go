// Package busio defines the hardware-facing interface the bus engine drives
// the five SmartPort signal lines through, mirroring the way
// tcpcdriver.I2C lets a single port-controller driver run unmodified across
// host platforms.
package busio

// Phase is the 4-bit code sampled from the REQ/P1/P2/P3 phase lines.
type Phase byte

// PhaseLines abstracts the physical bus signals: four phase inputs plus the
// self-clocked WDAT data input, and the OUTEN/RDAT/ACK/LED/TEST outputs.
// Implementations must be safe to call from a single goroutine only -- like
// the realtime engine it drives, PhaseLines has exactly one caller.
type PhaseLines interface {
	// SamplePhase reads the current REQ/P1/P2/P3 phase code.
	SamplePhase() Phase

	// REQ reports the current level of the REQ line on its own, used while
	// waiting for edges during transmit.
	REQ() bool

	// WDAT reports the current level of the self-clocked data input.
	WDAT() bool

	// SetACK drives the ACK line.
	SetACK(level bool)

	// SetOUTEN enables or floats the RDAT output driver. true enables RDAT
	// as an output (on hardware this asserts the active-low OUTEN- signal);
	// false floats it.
	SetOUTEN(enabled bool)

	// SetRDAT drives the RDAT line. Only meaningful while OUTEN is asserted.
	SetRDAT(level bool)

	// SetLED drives the activity LED.
	SetLED(level bool)

	// SetTEST drives the test probe line.
	SetTEST(level bool)
}

// Phase codes, per spec.md §4.1.
const (
	PhaseResetCode = 0x05
)

// IsEnabled reports whether p is one of the four phase codes that put the
// bus into the ENABLED state.
func IsEnabled(p Phase) bool {
	switch p {
	case 0x0A, 0x0B, 0x0E, 0x0F:
		return true
	default:
		return false
	}
}

// IsReset reports whether p is the RESET phase code.
func IsReset(p Phase) bool { return p == PhaseResetCode }
