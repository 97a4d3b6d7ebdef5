package serialport_test

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pppos/pppos/internal/serialport"
)

// TestPortWriteReadOverPTY drives a real Port against one side of a PTY
// pair, with the test acting as the peer on the other side — the same
// role creack/pty plays for the teacher's own PTY-backed tests, here
// exercising internal/serialport's Write/ReadLoop against actual file
// descriptor I/O instead of an in-memory fake.
func TestPortWriteReadOverPTY(t *testing.T) {
	ptyMaster, ptySlave, err := pty.Open()
	require.NoError(t, err)
	defer ptyMaster.Close()

	port, err := serialport.Open(ptySlave.Name(), 0)
	require.NoError(t, err)
	defer port.Close()
	defer ptySlave.Close()

	n, err := port.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	require.NoError(t, ptyMaster.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = ptyMaster.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	received := make(chan []byte, 1)
	go func() {
		_ = port.ReadLoop(func(b []byte) {
			cp := append([]byte{}, b...)
			select {
			case received <- cp:
			default:
			}
		})
	}()

	_, err = ptyMaster.Write([]byte("world"))
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, "world", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadLoop delivery")
	}
}
