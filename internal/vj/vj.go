// Package vj declares the pluggable interface the TX framer calls into
// for Van Jacobson TCP/IP header compression (RFC 1144). The VJ
// algorithm itself is out of scope (spec.md §1); this module only
// defines the seam a real implementation plugs into.
package vj

// Result classifies what Compressor.CompressTCP did to a packet.
type Result int

const (
	// TypeIP means the packet was not compressible (not TCP, or VJ
	// chose not to compress it) and should go out as plain IP.
	TypeIP Result = iota
	// TypeCompressedTCP means the packet was replaced with a
	// VJ-compressed TCP header; the protocol number must become
	// ProtocolCompressedTCP.
	TypeCompressedTCP
	// TypeUncompressedTCP means VJ annotated the TCP header (to carry
	// the connection id) without compressing it; the protocol number
	// must become ProtocolUncompressedTCP.
	TypeUncompressedTCP
	// TypeError means the compressor rejected the packet (malformed IP,
	// for instance); the TX framer drops it and bumps a protocol error.
	TypeError
)

// PPP protocol numbers for VJ-compressed traffic, RFC 1332.
const (
	ProtocolIP             uint16 = 0x0021
	ProtocolCompressedTCP  uint16 = 0x002d
	ProtocolUncompressedTCP uint16 = 0x002f
)

// Compressor is implemented by a VJ codec plugged into a link. Absence
// of a Compressor (a nil field on the link) forces VJ negotiation
// options off, per spec.md §9.
type Compressor interface {
	// CompressTCP takes an outbound IP packet and returns the
	// (possibly rewritten) bytes to send on the wire along with what
	// kind of rewrite happened.
	CompressTCP(packet []byte) (Result, []byte)
}
