package busengine

import "time"

// Timing constants transcribed from spec.md §4.1 / §4.2 and
// original_source/SmartPortPru.c. The receive side measures elapsed time in
// tick-sized steps; the transmit side sleeps these durations directly.
const (
	tick = 500 * time.Nanosecond // 0.5 us, the receive sampling granularity

	maxReceiveTicks = 65 // beyond this the WDAT line has stalled: packet over

	transmitShortPulse = 1750 * time.Nanosecond // ~1.75 us low pulse for a 1 bit
	transmitInterBit   = 2050 * time.Nanosecond // ~2.05 us inter-bit hold
	initReplyPad       = 25 * time.Microsecond  // extra pad after an INIT reply
)
