// Package framer implements the RX and TX halves of the PPPoS byte
// framer: the HDLC-like async state machine described in spec.md §4.4
// and §4.5, grounded on the lwIP pppos.c this module descends from.
package framer

import "fmt"

// State is a step of the RX byte-driven state machine.
type State int

const (
	Idle State = iota
	Start
	Address
	Control
	Protocol1
	Protocol2
	Data
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Start:
		return "start"
	case Address:
		return "address"
	case Control:
		return "control"
	case Protocol1:
		return "protocol1"
	case Protocol2:
		return "protocol2"
	case Data:
		return "data"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HDLC/PPP wire constants, per spec.md §6.
const (
	Flag        byte = 0x7e
	Escape      byte = 0x7d
	Trans       byte = 0x20
	AllStations byte = 0xff
	UI          byte = 0x03
)
