//go:build !tinygo

// Package gpio implements busio.PhaseLines on top of periph.io GPIO pins,
// generalizing the teacher's periph.io-backed I2C lookup
// (examples/simplepower/phy.go) from bus/device lookup to pin lookup.
package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/rhughes99/smartport/internal/busio"
)

// PinNames names the host GPIO pins wired to the five SmartPort signals, as
// laid out in the original PRU firmware's header comment (P8_45 etc.).
type PinNames struct {
	WDAT, REQ, P1, P2, P3       string // inputs
	OUTEN, RDAT, ACK, LED, TEST string // outputs
}

// Lines drives the bus over real periph.io GPIO pins.
type Lines struct {
	wdat, req, p1, p2, p3       gpio.PinIn
	outen, rdat, ack, led, test gpio.PinOut
}

// Open initializes periph.io's host drivers and resolves the named pins.
func Open(names PinNames) (*Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init: %w", err)
	}

	l := &Lines{}
	var err error
	if l.wdat, err = openIn(names.WDAT); err != nil {
		return nil, err
	}
	if l.req, err = openIn(names.REQ); err != nil {
		return nil, err
	}
	if l.p1, err = openIn(names.P1); err != nil {
		return nil, err
	}
	if l.p2, err = openIn(names.P2); err != nil {
		return nil, err
	}
	if l.p3, err = openIn(names.P3); err != nil {
		return nil, err
	}
	if l.outen, err = openOut(names.OUTEN); err != nil {
		return nil, err
	}
	if l.rdat, err = openOut(names.RDAT); err != nil {
		return nil, err
	}
	if l.ack, err = openOut(names.ACK); err != nil {
		return nil, err
	}
	if l.led, err = openOut(names.LED); err != nil {
		return nil, err
	}
	if l.test, err = openOut(names.TEST); err != nil {
		return nil, err
	}
	return l, nil
}

func openIn(name string) (gpio.PinIn, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: no such pin %q", name)
	}
	if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio: configure %q as input: %w", name, err)
	}
	return p, nil
}

func openOut(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: no such pin %q", name)
	}
	return p, nil
}

func (l *Lines) SamplePhase() busio.Phase {
	var p busio.Phase
	if l.req.Read() {
		p |= 0x1
	}
	if l.p1.Read() {
		p |= 0x2
	}
	if l.p2.Read() {
		p |= 0x4
	}
	if l.p3.Read() {
		p |= 0x8
	}
	return p
}

func (l *Lines) REQ() bool  { return l.req.Read() }
func (l *Lines) WDAT() bool { return l.wdat.Read() }

func (l *Lines) SetACK(level bool)   { l.ack.Out(gpio.Level(level)) }
func (l *Lines) SetOUTEN(level bool) { l.outen.Out(gpio.Level(!level)) } // OUTEN- is active low
func (l *Lines) SetRDAT(level bool)  { l.rdat.Out(gpio.Level(level)) }
func (l *Lines) SetLED(level bool)   { l.led.Out(gpio.Level(level)) }
func (l *Lines) SetTEST(level bool)  { l.test.Out(gpio.Level(level)) }

var _ busio.PhaseLines = (*Lines)(nil)
