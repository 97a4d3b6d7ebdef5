package fcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/go-pppos/pppos/internal/fcs"
)

func TestUpdateMinimalLCPEcho(t *testing.T) {
	// 7E FF 03 C0 21 09 01 00 04 <fcs> 7E, per spec scenario 1.
	header := []byte{0xff, 0x03, 0xc0, 0x21, 0x09, 0x01, 0x00, 0x04}

	f := fcs.UpdateAll(fcs.Init, header)
	lo, hi := fcs.Encode(f)

	verify := fcs.UpdateAll(f, []byte{lo, hi})
	assert.Equal(t, fcs.Good, verify)
}

func TestTableAndBitwiseAgree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")

		table := fcs.Init
		bitwise := fcs.Init
		for _, b := range data {
			table = fcs.Update(table, b)
			bitwise = fcs.UpdateBitwise(bitwise, b)
		}
		require.Equal(t, table, bitwise)
	})
}

func TestUpdateAssociative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.SliceOf(rapid.Byte()).Draw(t, "a")
		b := rapid.SliceOf(rapid.Byte()).Draw(t, "b")

		whole := fcs.UpdateAll(fcs.Init, append(append([]byte{}, a...), b...))
		split := fcs.UpdateAll(fcs.UpdateAll(fcs.Init, a), b)

		assert.Equal(t, whole, split)
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(t, "data")

		f := fcs.UpdateAll(fcs.Init, data)
		lo, hi := fcs.Encode(f)
		final := fcs.UpdateAll(f, []byte{lo, hi})

		assert.Equal(t, fcs.Good, final)
	})
}
