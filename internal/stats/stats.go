// Package stats holds the SNMP-style counters a PPPoS link maintains,
// unconditionally (see spec.md §9's note that the pcb->netif dependency
// for these counters should not be compile-flag gated).
package stats

import "sync/atomic"

// LinkStats is the full counter set incremented by the RX and TX
// framers and the link adapter. All fields are safe for concurrent use
// from the RX and TX data paths, which may run on different
// goroutines (§5 of spec.md).
type LinkStats struct {
	// RX framing errors.
	ChkErr  atomic.Uint64 // bad FCS
	LenErr  atomic.Uint64 // FLAG seen before a complete header
	MemErr  atomic.Uint64 // buffer pool exhausted mid-frame
	BadAddr atomic.Uint64 // ADDRESS byte not 0xff (ACFC-compressed frames included)
	BadCtrl atomic.Uint64 // CONTROL byte not 0x03

	// Cross-thread RX dispatch.
	IfInDiscards atomic.Uint64 // dropped because the upper-engine queue was full

	// TX errors.
	ProtErr       atomic.Uint64 // VJ compressor returned an unrecognized type
	IfOutDiscards atomic.Uint64 // short serial write, frame abandoned
	LinkErr       atomic.Uint64 // count of short-write recovery events

	// Byte/frame counters, for monitoring.
	IfInOctets   atomic.Uint64
	IfOutOctets  atomic.Uint64
	FramesIn     atomic.Uint64
	FramesOut    atomic.Uint64
	FrameErrors  atomic.Uint64 // ChkErr + LenErr + MemErr, kept denormalized for quick display
}

// Snapshot is a point-in-time copy of LinkStats suitable for logging,
// JSON/YAML encoding, or exposing over the mDNS debug endpoint.
type Snapshot struct {
	ChkErr        uint64
	LenErr        uint64
	MemErr        uint64
	BadAddr       uint64
	BadCtrl       uint64
	IfInDiscards  uint64
	ProtErr       uint64
	IfOutDiscards uint64
	LinkErr       uint64
	IfInOctets    uint64
	IfOutOctets   uint64
	FramesIn      uint64
	FramesOut     uint64
	FrameErrors   uint64
}

// Snapshot reads every counter atomically and returns their values.
// Because counters are read independently, the result is not a single
// atomic transaction across all fields, matching the relaxed
// consistency the spec's SNMP counters have always had.
func (s *LinkStats) Snapshot() Snapshot {
	return Snapshot{
		ChkErr:        s.ChkErr.Load(),
		LenErr:        s.LenErr.Load(),
		MemErr:        s.MemErr.Load(),
		BadAddr:       s.BadAddr.Load(),
		BadCtrl:       s.BadCtrl.Load(),
		IfInDiscards:  s.IfInDiscards.Load(),
		ProtErr:       s.ProtErr.Load(),
		IfOutDiscards: s.IfOutDiscards.Load(),
		LinkErr:       s.LinkErr.Load(),
		IfInOctets:    s.IfInOctets.Load(),
		IfOutOctets:   s.IfOutOctets.Load(),
		FramesIn:      s.FramesIn.Load(),
		FramesOut:     s.FramesOut.Load(),
		FrameErrors:   s.FrameErrors.Load(),
	}
}

func (s *LinkStats) bumpFrameError() {
	s.FrameErrors.Add(1)
}

// BumpChkErr increments ChkErr and the denormalized FrameErrors total.
func (s *LinkStats) BumpChkErr() {
	s.ChkErr.Add(1)
	s.bumpFrameError()
}

// BumpLenErr increments LenErr and the denormalized FrameErrors total.
func (s *LinkStats) BumpLenErr() {
	s.LenErr.Add(1)
	s.bumpFrameError()
}

// BumpMemErr increments MemErr and the denormalized FrameErrors total.
func (s *LinkStats) BumpMemErr() {
	s.MemErr.Add(1)
	s.bumpFrameError()
}

// BumpBadAddr increments BadAddr. Unlike ChkErr/LenErr/MemErr this does
// not discard the frame — an ADDRESS byte other than 0xff is also what
// a peer compressing the address field under ACFC would send, so the
// frame keeps processing; BadAddr only counts how often that happened.
func (s *LinkStats) BumpBadAddr() {
	s.BadAddr.Add(1)
}

// BumpBadCtrl increments BadCtrl. As with BumpBadAddr, the frame is not
// discarded: this only counts CONTROL bytes other than 0x03.
func (s *LinkStats) BumpBadCtrl() {
	s.BadCtrl.Add(1)
}
