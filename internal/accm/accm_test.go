package accm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/go-pppos/pppos/internal/accm"
)

func TestDefaultForcesFramingBits(t *testing.T) {
	m := accm.Default()
	assert.True(t, m.Escaped(accm.Flag))
	assert.True(t, m.Escaped(accm.Escape))
}

func TestClearCannotRemoveFramingBits(t *testing.T) {
	m := accm.Default()
	m.Clear(accm.Flag)
	m.Clear(accm.Escape)
	assert.True(t, m.Escaped(accm.Flag))
	assert.True(t, m.Escaped(accm.Escape))
}

func TestSetAndClearArbitraryByte(t *testing.T) {
	m := accm.Default()
	assert.False(t, m.Escaped(0x11))
	m.Set(0x11)
	assert.True(t, m.Escaped(0x11))
	m.Clear(0x11)
	assert.False(t, m.Escaped(0x11))
}

func TestAppendEscapedRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := accm.Default()
		for _, c := range rapid.SliceOfDistinct(rapid.Byte(), func(b byte) byte { return b }).Draw(t, "extra") {
			m.Set(c)
		}
		m.ForceFramingBits()

		b := rapid.Byte().Draw(t, "b")
		out := m.AppendEscaped(nil, b)

		if m.Escaped(b) {
			if len(out) != 2 || out[0] != accm.Escape || out[1] != b^accm.Trans {
				t.Fatalf("escape of %#x produced %v", b, out)
			}
			recovered := out[1] ^ accm.Trans
			assert.Equal(t, b, recovered)
		} else {
			assert.Equal(t, []byte{b}, out)
		}
	})
}
