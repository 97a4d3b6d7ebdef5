// Package buffer implements the fixed-capacity buffer chain used to
// assemble a variable-length PPP frame a byte at a time as it is
// recovered from the serial stream, and to hold a frame queued for
// transmission.
//
// Buffers are drawn from a Pool rather than allocated with new/make
// directly so callers can simulate the "pool exhausted" condition the
// spec requires every RX/TX path to recover from without panicking.
package buffer

// Capacity is the payload capacity of one buffer segment.
const Capacity = 512

// HeadReserve is the number of bytes reserved at the front of a chain's
// head buffer: two bytes for the protocol number recovered from the
// HDLC header, plus eight for a cross-thread dispatch back-pointer (an
// opaque link handle). Data bytes are appended after this reserved
// prefix; SetProtocol and Protocol access the protocol slot of it so
// callers never need to remember the offset by hand.
const HeadReserve = 10

// ProtocolOffset is where the 2-byte recovered protocol number is
// written once a frame is complete.
const ProtocolOffset = 0

// HandleOffset is where the dispatch handle slot begins, after the
// protocol number. Nothing in this module writes it: internal/link's
// ChannelDispatcher carries the protocol and chain over a channel
// instead of a back-pointer in the prefix.
const HandleOffset = 2

// Buffer is one fixed-capacity segment of a chain.
type Buffer struct {
	Data   [Capacity]byte
	Len    int
	Next   *Buffer
	TotLen int // valid on the head buffer only: payload bytes across the chain (sum of Len minus HeadReserve)
}

// Free returns the number of unused bytes remaining in this segment.
func (b *Buffer) Free() int {
	return len(b.Data) - b.Len
}

// Pool allocates and releases Buffers. The zero value of DefaultPool is
// a ready-to-use pool backed by the garbage collector; production
// deployments with a fixed-size pool implement Pool themselves and pass
// it to Chain's constructors to get allocation-failure behavior that
// matches a bounded embedded buffer pool.
type Pool interface {
	Get() *Buffer
	Put(*Buffer)
}

// DefaultPool is a Pool that never runs out: each Get allocates a fresh
// Buffer and Put is a no-op, leaving collection to the garbage
// collector. Tests exercising the allocation-starvation edge case (spec
// scenario 8) use a bounded fake pool instead.
type DefaultPool struct{}

func (DefaultPool) Get() *Buffer { return new(Buffer) }
func (DefaultPool) Put(*Buffer)  {}

// Chain is an ordered, singly-linked sequence of Buffers being built up
// incrementally. The zero value is not usable; use NewChain.
type Chain struct {
	pool Pool
	head *Buffer
	tail *Buffer
}

// NewChain starts an empty chain drawing buffers from pool. It reserves
// HeadReserve bytes at the front of the first buffer for the protocol
// number and dispatch handle; the first call to Append places the first
// payload byte immediately after that reservation.
func NewChain(pool Pool) *Chain {
	return &Chain{pool: pool}
}

// Head returns the first buffer in the chain, or nil if nothing has
// been appended yet.
func (c *Chain) Head() *Buffer { return c.head }

// Tail returns the last buffer in the chain, or nil if empty.
func (c *Chain) Tail() *Buffer { return c.tail }

// Len reports the total number of payload bytes appended so far
// (excluding the reserved head prefix).
func (c *Chain) Len() int {
	if c.head == nil {
		return 0
	}
	return c.head.TotLen
}

// Escaper reports whether a byte value must be HDLC-escaped. It is the
// minimal view of an ACCM that this package needs, avoiding a direct
// dependency on internal/accm.
type Escaper interface {
	Escaped(b byte) bool
}

// Append inserts one logical payload byte into the chain, allocating a
// new tail buffer from the pool when the current tail has fewer than 2
// bytes free — guaranteeing room for the worst-case escape pair so a
// pair is never split across buffers.
//
// Append never escapes: it writes b as a single byte. AppendEscaped is
// the variant that takes an escape map and writes the two-byte escape
// pair when the map marks b.
//
// Append returns false if pool allocation failed; the caller must then
// discard the entire chain (Release) and drop the in-progress frame.
func (c *Chain) Append(b byte) bool {
	return c.appendBytes(b)
}

// AppendEscaped inserts b into the chain, escaping it first if accm
// marks it as requiring escape. This is the direct analog of the
// spec's append(byte, chain_tail, accm_opt) operation.
func (c *Chain) AppendEscaped(b byte, esc Escaper) bool {
	if esc != nil && esc.Escaped(b) {
		const trans = 0x20
		const escapeOctet = 0x7d
		if !c.reserve(2) {
			return false
		}
		c.put(escapeOctet)
		c.put(b ^ trans)
		return true
	}
	return c.appendBytes(b)
}

func (c *Chain) appendBytes(b byte) bool {
	if !c.reserve(2) {
		return false
	}
	c.put(b)
	return true
}

// reserve ensures the tail buffer has at least the head reservation (on
// the very first write) plus n free bytes, allocating a new tail if
// necessary. It returns false on pool exhaustion.
func (c *Chain) reserve(n int) bool {
	if c.head == nil {
		nb := c.pool.Get()
		if nb == nil {
			return false
		}
		nb.Len = HeadReserve
		c.head = nb
		c.tail = nb
	}
	if c.tail.Free() < n {
		nb := c.pool.Get()
		if nb == nil {
			return false
		}
		c.tail.Next = nb
		c.tail = nb
	}
	return true
}

func (c *Chain) put(b byte) {
	c.tail.Data[c.tail.Len] = b
	c.tail.Len++
	c.head.TotLen++
}

// Release returns every buffer in the chain to the pool and clears the
// chain's pointers. It is the callers' job to call this on any error
// path that discards a partially built frame.
func (c *Chain) Release() {
	for b := c.head; b != nil; {
		next := b.Next
		c.pool.Put(b)
		b = next
	}
	c.head = nil
	c.tail = nil
}

// TrimTrailing removes the last n bytes of payload from the chain (used
// to strip the 2-byte FCS field once a frame has verified good),
// merging the tail into its predecessor first if the tail would
// underflow to n or fewer bytes — the spec's "in_head != in_tail"
// edge case.
func (c *Chain) TrimTrailing(n int) {
	if c.head == nil || c.tail == nil {
		return
	}
	if c.tail != c.head && c.tail.Len <= n {
		c.mergeTailIntoPrevious()
	}
	c.tail.Len -= n
	c.head.TotLen -= n
}

// mergeTailIntoPrevious folds the final (short) buffer into the one
// before it and drops it from the chain, so TrimTrailing always has a
// tail with enough bytes to remove the FCS from directly.
func (c *Chain) mergeTailIntoPrevious() {
	prev := c.head
	for prev.Next != c.tail {
		prev = prev.Next
	}
	copy(prev.Data[prev.Len:], c.tail.Data[:c.tail.Len])
	prev.Len += c.tail.Len
	prev.Next = nil
	c.pool.Put(c.tail)
	c.tail = prev
}

// SetProtocol writes the recovered 2-byte protocol number into the
// head buffer's reserved prefix.
func (c *Chain) SetProtocol(proto uint16) {
	c.head.Data[ProtocolOffset] = byte(proto >> 8)
	c.head.Data[ProtocolOffset+1] = byte(proto)
}

// Protocol reads back the 2-byte protocol number from the head's
// reserved prefix.
func (c *Chain) Protocol() uint16 {
	return uint16(c.head.Data[ProtocolOffset])<<8 | uint16(c.head.Data[ProtocolOffset+1])
}

// Payload copies the chain's payload bytes (excluding the reserved head
// prefix) into one contiguous slice. Used at delivery time and in
// tests; the hot RX path never needs to flatten the chain itself.
func (c *Chain) Payload() []byte {
	if c.head == nil {
		return nil
	}
	out := make([]byte, 0, c.head.TotLen)
	for b := c.head; b != nil; b = b.Next {
		start := 0
		if b == c.head {
			start = HeadReserve
		}
		out = append(out, b.Data[start:b.Len]...)
	}
	return out
}
