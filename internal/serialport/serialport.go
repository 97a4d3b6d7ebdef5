// Package serialport opens and drives the raw byte channel underneath
// a link (spec.md §2's "serial device" collaborator), hiding operating
// system differences the way the teacher's serial_port_open/_write/_get1
// trio did, built on pkg/term instead of termios syscalls directly.
package serialport

import (
	"errors"
	"fmt"
	"io"

	"github.com/pkg/term"
)

// SupportedBauds lists the speeds Open accepts without falling back to
// a default, mirroring the teacher's serial_port_open switch.
var SupportedBauds = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400}

// DefaultBaud is used when an unsupported speed is requested.
const DefaultBaud = 115200

// Port wraps an open TTY. It is safe for one reader and one writer
// goroutine to use concurrently (the two halves of a link's duplex
// path); it is not safe for concurrent writers or concurrent readers.
type Port struct {
	t      *term.Term
	name   string
	closed bool
}

// Open opens device at the given baud rate in raw mode. baud == 0
// leaves the device's current speed alone. An unsupported positive
// baud falls back to DefaultBaud rather than failing the open, per the
// teacher's "Using 4800" fallback.
func Open(device string, baud int) (*Port, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", device, err)
	}

	switch {
	case baud == 0:
	case supported(baud):
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serialport: set speed %d on %s: %w", baud, device, err)
		}
	default:
		if err := t.SetSpeed(DefaultBaud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serialport: set fallback speed on %s: %w", device, err)
		}
	}

	return &Port{t: t, name: device}, nil
}

func supported(baud int) bool {
	for _, b := range SupportedBauds {
		if b == baud {
			return true
		}
	}
	return false
}

// Write implements framer.Writer.
func (p *Port) Write(data []byte) (int, error) {
	if p.closed {
		return 0, errors.New("serialport: write on closed port")
	}
	return p.t.Write(data)
}

// ReadLoop blocks reading from the device and calls deliver with each
// chunk read, until the port is closed or the read returns a
// non-recoverable error. It is meant to run on its own goroutine as
// the link's single RX producer (spec.md §5).
func (p *Port) ReadLoop(deliver func([]byte)) error {
	buf := make([]byte, 256)
	for {
		n, err := p.t.Read(buf)
		if n > 0 {
			deliver(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && p.closed {
				return nil
			}
			return fmt.Errorf("serialport: read %s: %w", p.name, err)
		}
	}
}

// Close releases the underlying file descriptor. A blocked ReadLoop
// will observe the resulting read error and return.
func (p *Port) Close() error {
	p.closed = true
	return p.t.Close()
}

// Name returns the device path Open was called with.
func (p *Port) Name() string { return p.name }
