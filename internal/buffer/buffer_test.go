package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pppos/pppos/internal/buffer"
)

func TestAppendAndPayload(t *testing.T) {
	c := buffer.NewChain(buffer.DefaultPool{})
	for _, b := range []byte{0xc0, 0x21, 0x09} {
		require.True(t, c.Append(b))
	}
	assert.Equal(t, []byte{0xc0, 0x21, 0x09}, c.Payload())
	assert.Equal(t, 3, c.Len())
}

func TestProtocolRoundTrip(t *testing.T) {
	c := buffer.NewChain(buffer.DefaultPool{})
	require.True(t, c.Append(0x01))
	c.SetProtocol(0xc021)
	assert.Equal(t, uint16(0xc021), c.Protocol())
}

func TestTrimTrailingWithinOneBuffer(t *testing.T) {
	c := buffer.NewChain(buffer.DefaultPool{})
	for _, b := range []byte{1, 2, 3, 4, 5} {
		require.True(t, c.Append(b))
	}
	c.TrimTrailing(2)
	assert.Equal(t, []byte{1, 2, 3}, c.Payload())
}

func TestTrimTrailingAcrossBufferBoundary(t *testing.T) {
	c := buffer.NewChain(buffer.DefaultPool{})
	// Fill the head buffer past the point where 2 bytes are no longer
	// free, forcing a new tail buffer, then append two more bytes so
	// TrimTrailing(2) has to look at a tail that isn't the head.
	for i := 0; i < buffer.Capacity-buffer.HeadReserve; i++ {
		require.True(t, c.Append(byte(i)))
	}
	require.True(t, c.Append(0xaa))
	require.True(t, c.Append(0xbb))
	require.NotSame(t, c.Head(), c.Tail())

	before := c.Len()
	c.TrimTrailing(2)
	assert.Equal(t, before-2, c.Len())
	last := buffer.Capacity - buffer.HeadReserve - 1
	assert.Equal(t, byte(last), c.Payload()[len(c.Payload())-1])
}

func TestAllocationFailureIsRecoverable(t *testing.T) {
	pool := &boundedPool{max: 1}
	c := buffer.NewChain(pool)
	// Append always reserves room for 2 bytes, so the single buffer runs
	// out one byte short of its raw capacity.
	for i := 0; i < buffer.Capacity-buffer.HeadReserve-1; i++ {
		require.True(t, c.Append(byte(i)))
	}
	// The single buffer no longer has 2 bytes free; the next append
	// needs a second buffer, which the pool refuses to hand out.
	assert.False(t, c.Append(0xff))
	c.Release()
}

type boundedPool struct {
	max int
	n   int
}

func (p *boundedPool) Get() *buffer.Buffer {
	if p.n >= p.max {
		return nil
	}
	p.n++
	return new(buffer.Buffer)
}

func (p *boundedPool) Put(*buffer.Buffer) {}

func TestAppendEscapedEscapesUnderMap(t *testing.T) {
	c := buffer.NewChain(buffer.DefaultPool{})
	require.True(t, c.AppendEscaped(0x7e, alwaysEscape{}))
	assert.Equal(t, []byte{0x7d, 0x7e ^ 0x20}, c.Payload())
}

type alwaysEscape struct{}

func (alwaysEscape) Escaped(byte) bool { return true }
