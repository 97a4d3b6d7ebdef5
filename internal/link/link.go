// Package link implements the link adapter (spec.md §4.6): the
// translation between the upper PPP engine's CONNECT/DISCONNECT/FREE
// commands and the RX/TX framers' lifecycle, and the two data
// callbacks (write, netif_output) the upper engine drives traffic
// through.
package link

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/go-pppos/pppos/internal/accm"
	"github.com/go-pppos/pppos/internal/buffer"
	"github.com/go-pppos/pppos/internal/framer"
	"github.com/go-pppos/pppos/internal/stats"
	"github.com/go-pppos/pppos/internal/vj"
)

// Command is one of the three lifecycle verbs the upper engine issues.
type Command int

const (
	Connect Command = iota
	Disconnect
	Free
)

// WriteResult is returned by the Write callback (spec.md §6).
type WriteResult int

const (
	WriteNone WriteResult = iota
	WriteAlloc
)

// NetIfResult is returned by the NetifOutput callback (spec.md §6).
type NetIfResult int

const (
	NetIfOK NetIfResult = iota
	NetIfMem
	NetIfVal
)

// Upper is the full upstream PPP engine contract the link adapter
// consumes (spec.md §6): frame delivery plus the three lifecycle
// notifications. A real PPP stack implements this; internal/framer
// only needs the narrower framer.Upper slice.
type Upper interface {
	framer.Upper
	Start()   // ppp_start
	LinkEnd() // ppp_link_end
	Clear()   // ppp_clear
}

// ModemControl is an optional hardware collaborator (e.g. a GPIO line
// wired to a modem's enable/reset pin) a Link can drive across its
// lifecycle. A nil ModemControl means there is no such hardware.
type ModemControl interface {
	Enable() error
	Disable() error
}

// Handle identifies a Link; it is attached to the link's log lines.
// Cross-thread dispatch does not use it: ChannelDispatcher carries the
// frame itself over a channel.
type Handle uint32

// Link is one PPP-over-serial session's state: the data in spec.md §3
// plus the plumbing to drive it.
type Link struct {
	id     Handle
	serial framer.Writer
	upper  Upper
	log    *log.Logger
	stats  *stats.LinkStats

	vjCompressor vj.Compressor
	vjEnabled    bool
	modem        ModemControl

	dispatcher *ChannelDispatcher
	dispatchCancel context.CancelFunc

	mu        sync.Mutex
	connected bool

	rx *framer.RX
	tx *framer.TX
}

// Config bundles the collaborators a Link is built from.
type Config struct {
	ID         Handle
	Serial     framer.Writer
	Upper      Upper
	Logger     *log.Logger
	Pool       buffer.Pool
	VJ         vj.Compressor // nil forces VJ negotiation off
	Modem      ModemControl  // nil if there is no GPIO-controlled modem
	QueueDepth int           // cross-thread dispatch queue depth; 0 delivers inline
}

// New creates a Link in the disconnected state. Callers issue Connect
// to bring it up.
func New(cfg Config) *Link {
	if cfg.Pool == nil {
		cfg.Pool = buffer.DefaultPool{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	st := &stats.LinkStats{}

	l := &Link{
		id:     cfg.ID,
		serial: cfg.Serial,
		upper:  cfg.Upper,
		log:    cfg.Logger.With("link", cfg.ID),
		stats:  st,
		modem:  cfg.Modem,
	}

	var rxUpper framer.Upper = cfg.Upper
	if cfg.QueueDepth > 0 {
		l.dispatcher = NewChannelDispatcher(cfg.QueueDepth, l.log)
		rxUpper = l.dispatcher
	}

	l.rx = framer.NewRX(cfg.Pool, rxUpper, st, l.log)
	l.tx = framer.NewTX(cfg.Serial, st, l.log)
	l.vjCompressor = cfg.VJ
	l.vjEnabled = cfg.VJ != nil
	return l
}

// Stats returns the link's counter set.
func (l *Link) Stats() stats.Snapshot { return l.stats.Snapshot() }

// HandleCommand dispatches one of the three lifecycle verbs. Unknown
// command values have no effect and return nothing to the caller; the
// only trace of them is a warning log line.
func (l *Link) HandleCommand(ctx context.Context, cmd Command) {
	switch cmd {
	case Connect:
		l.connect(ctx)
	case Disconnect:
		l.disconnect()
	case Free:
		l.free()
	default:
		l.log.Warn("ignoring unknown link command", "cmd", cmd)
	}
}

// connect implements spec.md §4.6 CONNECT: discard any partial RX
// frame, reset the upper engine's per-session state, initialize (or
// force off) VJ, set the mandatory ACCM bits, then start LCP.
func (l *Link) connect(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.modem != nil {
		if err := l.modem.Enable(); err != nil {
			l.log.Error("modem enable failed", "err", err)
		}
	}

	l.rx.Reset()
	l.upper.Clear()

	l.vjEnabled = l.vjCompressor != nil

	m := accm.Default()
	l.rx.SetACCM(m)
	l.tx.SetACCM(m)
	l.tx.ForceLeadingFlag()

	if l.dispatcher != nil {
		var dctx context.Context
		dctx, l.dispatchCancel = context.WithCancel(ctx)
		go l.dispatcher.Run(dctx, l.upper)
	}

	l.connected = true
	l.upper.Start()
}

// disconnect implements spec.md §4.6 DISCONNECT: notify the upper
// engine, but leave any in-flight RX frame alone — another goroutine
// may still be writing into it (spec.md §5, "Cancellation").
func (l *Link) disconnect() {
	l.mu.Lock()
	l.connected = false
	l.mu.Unlock()

	l.upper.LinkEnd()
}

// free implements spec.md §4.6 FREE: discard any partial RX frame and
// release the link. The caller must have already ensured the upper
// engine will not consume anything still queued for cross-thread
// dispatch; free then drains it defensively.
func (l *Link) free() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rx.Reset()
	if l.dispatchCancel != nil {
		l.dispatchCancel()
	}
	if l.dispatcher != nil {
		l.dispatcher.Drain()
	}
	if l.modem != nil {
		if err := l.modem.Disable(); err != nil {
			l.log.Error("modem disable failed", "err", err)
		}
	}
	l.connected = false
}

// Reopen sequences FREE followed by CONNECT, giving the idempotence
// property spec.md §8 names explicitly ("CONNECT; FREE; CONNECT on the
// same fd produces an equivalent framer state as a fresh CONNECT").
func (l *Link) Reopen(ctx context.Context) {
	l.free()
	l.connect(ctx)
}

// Input feeds bytes read from the serial device into the RX framer.
// Callers own the read loop (spec.md §5: there is exactly one RX
// producer); Input itself is safe to call repeatedly from that single
// producer goroutine.
func (l *Link) Input(data []byte) {
	l.rx.Input(data)
}

// Write is the on_write callback (spec.md §6): the upper engine hands
// a pre-framed PPP packet to transmit as-is.
func (l *Link) Write(frame []byte) WriteResult {
	if err := l.tx.WriteRaw(frame); err != nil {
		return WriteAlloc
	}
	return WriteNone
}

// NetifOutput is the on_netif_output callback (spec.md §6): the upper
// engine hands an IP packet plus protocol number, optionally VJ
// compressed by the link's configured compressor.
func (l *Link) NetifOutput(protocol uint16, payload []byte) NetIfResult {
	var vjc vj.Compressor
	if l.vjEnabled {
		vjc = l.vjCompressor
	}
	err := l.tx.WriteNetIf(protocol, payload, vjc)
	switch {
	case err == nil:
		return NetIfOK
	case err == framer.ErrProtocol:
		return NetIfVal
	default:
		return NetIfMem
	}
}

// VJEnabled reports whether VJ compression is currently active on this
// link (it is forced off whenever no Compressor is configured, per
// spec.md §9).
func (l *Link) VJEnabled() bool { return l.vjEnabled }

func (c Command) String() string {
	switch c {
	case Connect:
		return "CONNECT"
	case Disconnect:
		return "DISCONNECT"
	case Free:
		return "FREE"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}
