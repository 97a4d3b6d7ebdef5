package link_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pppos/pppos/internal/buffer"
	"github.com/go-pppos/pppos/internal/fcs"
	"github.com/go-pppos/pppos/internal/link"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type fakeWriter struct {
	frames [][]byte
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	w.frames = append(w.frames, append([]byte{}, p...))
	return len(p), nil
}

type fakeUpper struct {
	starts    int
	linkEnds  int
	clears    int
	delivered []uint16
}

func (u *fakeUpper) Input(protocol uint16, frame *buffer.Chain) error {
	u.delivered = append(u.delivered, protocol)
	frame.Release()
	return nil
}
func (u *fakeUpper) Start()   { u.starts++ }
func (u *fakeUpper) LinkEnd() { u.linkEnds++ }
func (u *fakeUpper) Clear()   { u.clears++ }

func newLink(u link.Upper, w link.ModemControl) (*link.Link, *fakeWriter) {
	fw := &fakeWriter{}
	l := link.New(link.Config{
		ID:     1,
		Serial: fw,
		Upper:  u,
		Logger: quietLogger(),
		Modem:  w,
	})
	return l, fw
}

func TestConnectCallsStartExactlyOnce(t *testing.T) {
	u := &fakeUpper{}
	l, _ := newLink(u, nil)

	l.HandleCommand(context.Background(), link.Connect)
	assert.Equal(t, 1, u.starts)
	assert.Equal(t, 1, u.clears)
}

func TestDisconnectNotifiesLinkEndWithoutTouchingRXState(t *testing.T) {
	u := &fakeUpper{}
	l, _ := newLink(u, nil)

	l.HandleCommand(context.Background(), link.Connect)
	l.Input([]byte{0xff, 0x03, 0xc0, 0x21}) // partial frame, no closing flag
	l.HandleCommand(context.Background(), link.Disconnect)

	assert.Equal(t, 1, u.linkEnds)
}

func TestFreeDiscardsPartialFrameAndIsSafeToRepeat(t *testing.T) {
	u := &fakeUpper{}
	l, _ := newLink(u, nil)

	l.HandleCommand(context.Background(), link.Connect)
	l.Input([]byte{0xff, 0x03, 0xc0, 0x21, 0x01})
	l.HandleCommand(context.Background(), link.Free)
	l.HandleCommand(context.Background(), link.Free)
}

func TestReopenProducesFreshFramerState(t *testing.T) {
	u := &fakeUpper{}
	l, w := newLink(u, nil)
	ctx := context.Background()

	l.HandleCommand(ctx, link.Connect)
	require.Equal(t, link.WriteNone, l.Write([]byte{0xff, 0x03, 0xc0, 0x21, 0x01}))
	require.Len(t, w.frames, 1)

	l.Reopen(ctx)
	require.Equal(t, link.WriteNone, l.Write([]byte{0xff, 0x03, 0xc0, 0x21, 0x02}))
	require.Len(t, w.frames, 2)

	// Reopen forces a leading flag on the first post-reopen frame, the
	// same as a completely fresh link.
	assert.Equal(t, byte(0x7e), w.frames[1][0])
}

func TestNetifOutputDeliversToWriter(t *testing.T) {
	u := &fakeUpper{}
	l, w := newLink(u, nil)
	l.HandleCommand(context.Background(), link.Connect)

	result := l.NetifOutput(0xc021, []byte{0x01, 0x02})
	assert.Equal(t, link.NetIfOK, result)
	require.Len(t, w.frames, 1)
}

func TestCommandStringsForUnknownValueDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = link.Command(99).String()
	})
}

type countingModem struct {
	enabled, disabled int
}

func (m *countingModem) Enable() error  { m.enabled++; return nil }
func (m *countingModem) Disable() error { m.disabled++; return nil }

func TestConnectAndFreeDriveModemControl(t *testing.T) {
	u := &fakeUpper{}
	modem := &countingModem{}
	l, _ := newLink(u, modem)
	ctx := context.Background()

	l.HandleCommand(ctx, link.Connect)
	l.HandleCommand(ctx, link.Free)

	assert.Equal(t, 1, modem.enabled)
	assert.Equal(t, 1, modem.disabled)
}

func TestDispatchedFrameReachesUpperAsynchronously(t *testing.T) {
	u := &fakeUpper{}
	fw := &fakeWriter{}
	l := link.New(link.Config{
		ID:         2,
		Serial:     fw,
		Upper:      u,
		Logger:     quietLogger(),
		QueueDepth: 4,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.HandleCommand(ctx, link.Connect)
	l.Input(buildMinimalFrame())

	require.Eventually(t, func() bool {
		return len(u.delivered) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint16(0xc021), u.delivered[0])
}

func buildMinimalFrame() []byte {
	header := []byte{0xff, 0x03, 0xc0, 0x21, 0x09}
	f := fcs.UpdateAll(fcs.Init, header)
	lo, hi := fcs.Encode(f)

	out := []byte{0x7e}
	out = append(out, header...)
	out = append(out, lo, hi, 0x7e)
	return out
}
