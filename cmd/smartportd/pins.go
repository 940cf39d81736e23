//go:build !tinygo

package main

import "github.com/rhughes99/smartport/internal/busio/gpio"

// defaultPins lays out the five SmartPort signals on the BeagleBone's P8
// header, following the original firmware's fixed pin assignment comment
// (WDat P8_45, P0/REQ P8_46, P1 P8_43, P2 P8_44, P3 P8_41, OUTEN- P8_42,
// RDat P8_39, ACK P8_40, LED P8_27, TEST P8_29).
var defaultPins = gpio.PinNames{
	WDAT: "P8_45",
	REQ:  "P8_46",
	P1:   "P8_43",
	P2:   "P8_44",
	P3:   "P8_41",

	OUTEN: "P8_42",
	RDAT:  "P8_39",
	ACK:   "P8_40",
	LED:   "P8_27",
	TEST:  "P8_29",
}
