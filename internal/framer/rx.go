package framer

import (
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/go-pppos/pppos/internal/accm"
	"github.com/go-pppos/pppos/internal/buffer"
	"github.com/go-pppos/pppos/internal/fcs"
	"github.com/go-pppos/pppos/internal/stats"
)

// Upper is the narrow slice of the upstream PPP engine's contract the
// RX framer needs: delivery of one complete, verified frame. Input
// takes ownership of frame on success — the implementation is
// responsible for eventually calling frame.Release() once it has
// consumed the payload (ppp_input's pbuf ownership transfer in
// spec.md §3). On failure (e.g. a full cross-thread dispatch queue,
// ErrDispatch) ownership stays with the caller, which releases it.
type Upper interface {
	Input(protocol uint16, frame *buffer.Chain) error
}

// RX is one link's receive-side byte framer. The zero value is not
// usable; construct with NewRX.
type RX struct {
	pool  buffer.Pool
	upper Upper
	stats *stats.LinkStats
	log   *log.Logger

	accm atomic.Pointer[accm.Map]

	state    State
	fcsVal   uint16
	protocol uint16
	escaped  bool
	chain    *buffer.Chain
}

// NewRX constructs an RX framer. pool, upper, st and logger must all be
// non-nil; the caller (internal/link) owns their lifetimes.
func NewRX(pool buffer.Pool, upper Upper, st *stats.LinkStats, logger *log.Logger) *RX {
	r := &RX{pool: pool, upper: upper, stats: st, log: logger}
	m := accm.Default()
	r.accm.Store(&m)
	r.Reset()
	return r
}

// Reset reinitializes the RX state machine, discarding any in-progress
// frame. Called on every CONNECT (spec.md §3, "Lifecycle").
func (r *RX) Reset() {
	if r.chain != nil {
		r.chain.Release()
		r.chain = nil
	}
	r.state = Idle
	r.fcsVal = fcs.Init
	r.protocol = 0
	r.escaped = false
}

// SetACCM atomically replaces the RX ACCM, forcing the framing bits on
// regardless of what the caller supplied — the short critical section
// spec.md §5 calls for is here just a pointer swap, so concurrent byte
// processing always sees either the old or the new map in full, never a
// partially updated one.
func (r *RX) SetACCM(m accm.Map) {
	m.ForceFramingBits()
	r.accm.Store(&m)
}

// State returns the framer's current state, mainly for tests and
// diagnostics.
func (r *RX) State() State { return r.state }

// Input feeds a chunk of bytes read from the serial device into the RX
// framer, in order. Frames recovered from it are delivered to Upper as
// they complete; errors are absorbed internally per the taxonomy in
// spec.md §7; Input itself never returns an error; and the 0xFF, the
// beginning of a new frame, is accepted starting from Idle exactly
// once, before the first flag has ever been seen.
func (r *RX) Input(data []byte) {
	for _, b := range data {
		r.byte(b)
	}
}

func (r *RX) byte(b byte) {
	m := r.accm.Load()
	if m.Escaped(b) {
		switch b {
		case accm.Escape:
			r.escaped = true
		case accm.Flag:
			r.onFlag()
		default:
			r.log.Debug("dropping ACCM-marked character mid-frame", "byte", b)
		}
		return
	}

	if r.escaped {
		b ^= accm.Trans
		r.escaped = false
	}

	r.advance(b)
}

// advance runs the byte-driven state machine for one already-unescaped,
// non-framing byte, including the switch-style fall-through chain
// IDLE->START->ADDRESS->CONTROL->PROTOCOL1 described in spec.md §4.4:
// a single input byte may walk through several states (e.g. the first
// 0xFF after idle is simultaneously the START and ADDRESS byte). It
// ends by folding b into the running FCS exactly once the chain of
// transitions has settled, matching the original's unconditional
// per-byte FCS update regardless of how many states that byte walked
// through or whether it ended up discarded.
func (r *RX) advance(b byte) {
	state := r.state
	for {
		next, stop := r.step(state, b)
		state = next
		if stop {
			break
		}
	}
	r.state = state
	r.fcsVal = fcs.Update(r.fcsVal, b)
}

// step runs one state's logic against byte b and reports the resulting
// state and whether b has been fully consumed (stop) or must be
// reprocessed against the next state (the fall-through cases).
func (r *RX) step(state State, b byte) (next State, stop bool) {
	switch state {
	case Idle:
		if b != AllStations {
			return Idle, true
		}
		return Start, false

	case Start:
		r.fcsVal = fcs.Init
		return Address, false

	case Address:
		if b == AllStations {
			return Control, true
		}
		// ACFC: peer omitted the address field, this byte is really
		// the control field (or, one level further down, the protocol
		// field if control is omitted too).
		r.stats.BumpBadAddr()
		return Control, false

	case Control:
		if b == UI {
			return Protocol1, true
		}
		// Open Question #1 (DESIGN.md): shipping lwIP behavior falls
		// through to PROTOCOL1 on an invalid control byte rather than
		// restarting the frame; kept here for wire compatibility.
		r.stats.BumpBadCtrl()
		return Protocol1, false

	case Protocol1:
		if b&1 != 0 {
			r.protocol = uint16(b)
			return Data, true
		}
		r.protocol = uint16(b) << 8
		return Protocol2, true

	case Protocol2:
		r.protocol |= uint16(b)
		return Data, true

	case Data:
		if !r.appendData(b) {
			return Start, true
		}
		return Data, true

	default:
		return Start, true
	}
}

// appendData stores one payload byte. On pool exhaustion it drops the
// partial chain and returns false; step then moves the framer to Start.
func (r *RX) appendData(b byte) bool {
	if r.chain == nil {
		r.chain = buffer.NewChain(r.pool)
	}
	if !r.chain.Append(b) {
		r.stats.BumpMemErr()
		r.log.Warn("buffer pool exhausted mid-frame, dropping")
		r.chain.Release()
		r.chain = nil
		return false
	}
	return true
}

// onFlag terminates whatever frame was in progress (spec.md §4.4's
// termination table) and then unconditionally resets for the next one.
func (r *RX) onFlag() {
	switch {
	case r.state <= Address:
		// Extra flag between frames; nothing to do.

	case r.state < Data:
		r.stats.BumpLenErr()
		r.log.Warn("incomplete frame at flag", "state", r.state)
		r.discard()

	case r.fcsVal != fcs.Good:
		r.stats.BumpChkErr()
		r.log.Warn("bad fcs", "fcs", r.fcsVal, "protocol", r.protocol)
		r.discard()

	default:
		r.deliver()
	}

	r.state = Start
	r.fcsVal = fcs.Init
	r.escaped = false
}

func (r *RX) discard() {
	if r.chain != nil {
		r.chain.Release()
		r.chain = nil
	}
}

// deliver trims the 2 trailing FCS bytes, writes the recovered protocol
// number into the chain's reserved prefix, and hands the chain to the
// upper engine.
func (r *RX) deliver() {
	c := r.chain
	r.chain = nil
	if c == nil {
		// DATA state reached with zero bytes absorbed is unreachable in
		// practice (PROTOCOL2->DATA always arrives after a protocol
		// byte whose bit pattern already counted as non-data), but stay
		// defensive since spec.md ties delivery strictly to in_head!=nil.
		return
	}
	c.TrimTrailing(2)
	c.SetProtocol(r.protocol)

	r.stats.FramesIn.Add(1)
	r.stats.IfInOctets.Add(uint64(c.Len()))

	if err := r.upper.Input(r.protocol, c); err != nil {
		r.stats.IfInDiscards.Add(1)
		r.log.Warn("upper engine rejected frame", "err", err, "protocol", r.protocol)
		c.Release()
	}
}
