package link

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/go-pppos/pppos/internal/buffer"
	"github.com/go-pppos/pppos/internal/framer"
)

// delivery is one frame queued for cross-thread dispatch, carrying the
// recovered protocol number alongside the chain so the consumer does
// not need to re-read it out of the reserved prefix.
type delivery struct {
	protocol uint16
	frame    *buffer.Chain
}

// ChannelDispatcher implements framer.Upper by handing completed frames
// to a bounded, FIFO channel drained by a separate goroutine — the
// "thread-hop" delivery model of spec.md §5, generalized from the
// original's tcpip_callback_with_block to a Go channel instead of a
// back-pointer baked into the pbuf prefix.
//
// Enqueue is non-blocking: a full channel means the upper engine's
// event loop is falling behind, and spec.md §5 is explicit that this
// case drops the frame and bumps a discard counter rather than
// blocking the RX path.
type ChannelDispatcher struct {
	ch  chan delivery
	log *log.Logger
}

// NewChannelDispatcher creates a dispatcher with the given queue depth.
func NewChannelDispatcher(depth int, logger *log.Logger) *ChannelDispatcher {
	return &ChannelDispatcher{ch: make(chan delivery, depth), log: logger}
}

// Input implements framer.Upper. It never blocks.
func (d *ChannelDispatcher) Input(protocol uint16, frame *buffer.Chain) error {
	select {
	case d.ch <- delivery{protocol: protocol, frame: frame}:
		return nil
	default:
		return framer.ErrDispatch
	}
}

// Run drains the dispatch queue in order, delivering each frame to
// upper, until ctx is canceled. Frames already queued when ctx is
// canceled are delivered if Run observes them before the context's
// Done channel fires; DISCONNECT does not cancel in-flight dispatch
// (spec.md §5, "Cancellation") so callers should only cancel ctx once
// they are prepared to discard whatever is still queued (FREE).
func (d *ChannelDispatcher) Run(ctx context.Context, upper framer.Upper) {
	for {
		select {
		case item := <-d.ch:
			if err := upper.Input(item.protocol, item.frame); err != nil {
				item.frame.Release()
				d.log.Warn("upper engine rejected dispatched frame", "err", err, "protocol", item.protocol)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Drain releases every frame still queued, for use during FREE once the
// upper engine has confirmed it will not consume them (spec.md §5,
// "FREE requires that the upper engine has drained or rejected any
// pending cross-thread deliveries for this link").
func (d *ChannelDispatcher) Drain() {
	for {
		select {
		case item := <-d.ch:
			item.frame.Release()
		default:
			return
		}
	}
}
