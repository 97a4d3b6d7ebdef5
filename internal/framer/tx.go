package framer

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-pppos/pppos/internal/accm"
	"github.com/go-pppos/pppos/internal/fcs"
	"github.com/go-pppos/pppos/internal/stats"
	"github.com/go-pppos/pppos/internal/vj"
)

// Writer is the serial device's single write primitive (spec.md §6):
// it reports how many bytes actually made it onto the wire, and a
// short write (n < len(p)) is the only failure signal the framer acts
// on.
type Writer interface {
	Write(p []byte) (n int, err error)
}

// MaxIdleFlag is the default idle threshold (spec.md's PPP_MAXIDLEFLAG)
// after which a leading flag is prepended to flush line noise rather
// than relying on the previous frame's trailing flag.
const MaxIdleFlag = 100 * time.Millisecond

// TX is one link's transmit-side framer.
type TX struct {
	w     Writer
	stats *stats.LinkStats
	log   *log.Logger
	now   func() time.Time

	accm atomic.Pointer[accm.Map]

	acfc bool // address-and-control-field compression negotiated
	pfc  bool // protocol-field compression negotiated

	idleFlag time.Duration
	lastXmit atomic.Int64 // unix nanos; 0 forces a leading flag
}

// NewTX constructs a TX framer writing to w.
func NewTX(w Writer, st *stats.LinkStats, logger *log.Logger) *TX {
	t := &TX{w: w, stats: st, log: logger, now: time.Now, idleFlag: MaxIdleFlag}
	m := accm.Default()
	t.accm.Store(&m)
	return t
}

// SetACCM atomically replaces the TX ACCM, forcing the framing bits on.
func (t *TX) SetACCM(m accm.Map) {
	m.ForceFramingBits()
	t.accm.Store(&m)
}

// SetCompression records the negotiated ACFC/PFC flags. The core never
// negotiates these itself (spec.md §1 Non-goals); it only consumes the
// result.
func (t *TX) SetCompression(acfc, pfc bool) {
	t.acfc = acfc
	t.pfc = pfc
}

// ForceLeadingFlag arranges for the next frame to begin with an
// explicit flag rather than relying on the previous frame's trailing
// flag doubling as an opener. internal/link calls this on CONNECT and
// the short-write recovery path calls it after a partial write.
func (t *TX) ForceLeadingFlag() {
	t.lastXmit.Store(0)
}

// WriteRaw is TX entry point (a): the upper engine has already built a
// complete PPP frame (address/control/protocol/payload, no FCS, no
// escaping, no flags). WriteRaw adds the FCS, escapes the whole thing,
// and delimits it with flags.
func (t *TX) WriteRaw(frame []byte) error {
	return t.send(frame)
}

// WriteNetIf is TX entry point (b): the upper engine hands an IP
// packet plus a protocol number. If vjc is non-nil and protocol is IP,
// it runs VJ compression first and remaps the protocol number per
// spec.md §4.5 step 1.
func (t *TX) WriteNetIf(protocol uint16, payload []byte, vjc vj.Compressor) error {
	if vjc != nil && protocol == vj.ProtocolIP {
		result, out := vjc.CompressTCP(payload)
		switch result {
		case vj.TypeCompressedTCP:
			protocol = vj.ProtocolCompressedTCP
			payload = out
		case vj.TypeUncompressedTCP:
			protocol = vj.ProtocolUncompressedTCP
			payload = out
		case vj.TypeIP:
			// unchanged
		default:
			t.stats.ProtErr.Add(1)
			t.log.Warn("vj compressor returned unrecognized result", "result", result)
			return ErrProtocol
		}
	}

	header := t.buildHeader(protocol)
	full := append(header, payload...)
	return t.send(full)
}

// buildHeader returns the address/control/protocol prefix to prepend
// to a netif payload, honoring ACFC/PFC.
func (t *TX) buildHeader(protocol uint16) []byte {
	var header []byte
	if !t.acfc {
		header = append(header, AllStations, UI)
	}
	if !t.pfc || protocol > 0xff {
		header = append(header, byte(protocol>>8))
	}
	header = append(header, byte(protocol))
	return header
}

// send escapes and transmits a fully-formed logical frame (header +
// payload, no FCS yet), per spec.md §4.5 steps 2-8.
func (t *TX) send(logical []byte) error {
	m := t.accm.Load()

	out := make([]byte, 0, len(logical)*2+4)

	if t.shouldLeadWithFlag() {
		out = append(out, Flag)
	}
	t.lastXmit.Store(t.now().UnixNano())

	f := fcs.Init
	for _, b := range logical {
		f = fcs.Update(f, b)
		out = m.AppendEscaped(out, b)
	}
	lo, hi := fcs.Encode(f)
	out = m.AppendEscaped(out, lo)
	out = m.AppendEscaped(out, hi)
	out = append(out, Flag)

	return t.write(out, len(logical)+2)
}

func (t *TX) shouldLeadWithFlag() bool {
	last := t.lastXmit.Load()
	if last == 0 {
		return true
	}
	return t.now().Sub(time.Unix(0, last)) >= t.idleFlag
}

// write hands the framed bytes to the serial device and implements the
// short-write recovery rule of spec.md §4.5: any short write forces the
// next frame to open with a flag and abandons the remainder of this
// one; it is never retried here.
func (t *TX) write(out []byte, logicalOctets int) error {
	n, err := t.w.Write(out)
	if err != nil || n < len(out) {
		t.stats.LinkErr.Add(1)
		t.stats.IfOutDiscards.Add(1)
		t.ForceLeadingFlag()
		t.log.Warn("short serial write, dropping remainder of frame", "wrote", n, "wanted", len(out), "err", err)
		if err != nil {
			return err
		}
		return ErrShortWrite
	}
	t.stats.FramesOut.Add(1)
	t.stats.IfOutOctets.Add(uint64(logicalOctets))
	return nil
}
