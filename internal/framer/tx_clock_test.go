package framer

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pppos/pppos/internal/stats"
)

func quietTestLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type clockWriter struct{ frames [][]byte }

func (w *clockWriter) Write(p []byte) (int, error) {
	w.frames = append(w.frames, append([]byte{}, p...))
	return len(p), nil
}

// TestTXIdleFlagRule exercises spec.md scenario 6 directly against the
// unexported clock hook, since the idle-flag rule is a pure function of
// wall-clock time that production code sources from time.Now.
func TestTXIdleFlagRule(t *testing.T) {
	w := &clockWriter{}
	tx := NewTX(w, &stats.LinkStats{}, quietTestLogger())

	cur := time.Unix(1000, 0)
	tx.now = func() time.Time { return cur }

	require.NoError(t, tx.WriteNetIf(0xc021, []byte{0x01}, nil))
	assert.Equal(t, byte(Flag), w.frames[0][0])

	cur = cur.Add(1 * time.Millisecond)
	require.NoError(t, tx.WriteNetIf(0xc021, []byte{0x02}, nil))
	assert.NotEqual(t, byte(Flag), w.frames[1][0])

	cur = cur.Add(MaxIdleFlag + time.Millisecond)
	require.NoError(t, tx.WriteNetIf(0xc021, []byte{0x03}, nil))
	assert.Equal(t, byte(Flag), w.frames[2][0])
}
