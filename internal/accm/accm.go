// Package accm implements the Async Control Character Map escape codec
// used by HDLC-like async PPP framing (RFC 1662).
//
// An ACCM is a 256-bit mask, stored as 32 bytes, selecting which byte
// values must be escaped on the wire. Byte c is escaped iff
// mask[c>>3] & (1 << (c & 7)) is non-zero.
package accm

const (
	Flag   byte = 0x7e
	Escape byte = 0x7d
	Trans  byte = 0x20
)

// Map is a 256-bit escape mask, LSB-first within each of its 32 bytes.
type Map [32]byte

// Default returns an ACCM with only the two framing octets marked, the
// minimum any RX or TX ACCM must carry before traffic flows.
func Default() Map {
	var m Map
	m.ForceFramingBits()
	return m
}

// ForceFramingBits sets the bits for Escape and Flag unconditionally.
// Escaped indexes a byte by c>>3, and 0x7d>>3 and 0x7e>>3 both equal 15,
// so byte 15 of the map holds both bits: bit 5 (0x7d&7) for Escape and
// bit 6 (0x7e&7) for Flag, i.e. 0x20|0x40 = 0x60. Forcing it guarantees
// both are always escaped regardless of what negotiation supplied.
func (m *Map) ForceFramingBits() {
	m[15] = 0x60
}

// Escaped reports whether c must be escaped under this map.
func (m *Map) Escaped(c byte) bool {
	return m[c>>3]&(1<<(c&7)) != 0
}

// Set marks c as requiring escape.
func (m *Map) Set(c byte) {
	m[c>>3] |= 1 << (c & 7)
}

// Clear unmarks c, except it can never clear the framing bits: callers
// negotiating a peer-supplied ACCM must call ForceFramingBits afterward
// in any case, but Clear refuses to remove Flag/Escape itself so a
// negotiated zero value cannot accidentally disable framing.
func (m *Map) Clear(c byte) {
	if c == Flag || c == Escape {
		return
	}
	m[c>>3] &^= 1 << (c & 7)
}

// AppendEscaped appends b to dst, escaping it first if this map marks
// it. Flag is always marked, so a Flag byte passed here comes out
// escaped like any other marked byte; callers emit delimiting Flag bytes
// directly, outside of this codec.
func (m *Map) AppendEscaped(dst []byte, b byte) []byte {
	if m.Escaped(b) {
		return append(dst, Escape, b^Trans)
	}
	return append(dst, b)
}
