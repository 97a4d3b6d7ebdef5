// Package modemctl drives a GPIO line wired to external modem
// hardware's enable/reset pin, satisfying link.ModemControl. Dire
// Wolf's own go.mod carries warthog618/go-gpiocdev for exactly this
// kind of hardware control line but never wires it into committed Go
// source; this package is that wiring, generalized to PPPoS's
// CONNECT/FREE lifecycle instead of a PTT line.
package modemctl

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO toggles a single output line on Enable/Disable.
type GPIO struct {
	line *gpiocdev.Line

	// activeLow inverts the drive sense: Enable drives 0 instead of 1.
	activeLow bool
}

// Open requests exclusive control of chip/offset as an output line,
// initially deasserted.
func Open(chip string, offset int, activeLow bool) (*GPIO, error) {
	initial := 0
	if activeLow {
		initial = 1
	}

	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(initial), gpiocdev.WithConsumer("pppos-modemctl"))
	if err != nil {
		return nil, fmt.Errorf("modemctl: request %s:%d: %w", chip, offset, err)
	}
	return &GPIO{line: line, activeLow: activeLow}, nil
}

// Enable asserts the line (spec.md §4.6 CONNECT hardware hook).
func (g *GPIO) Enable() error {
	return g.set(true)
}

// Disable deasserts the line (spec.md §4.6 FREE hardware hook).
func (g *GPIO) Disable() error {
	return g.set(false)
}

func (g *GPIO) set(asserted bool) error {
	v := 1
	if asserted == g.activeLow {
		v = 0
	}
	if err := g.line.SetValue(v); err != nil {
		return fmt.Errorf("modemctl: set value: %w", err)
	}
	return nil
}

// Close releases the GPIO line request.
func (g *GPIO) Close() error {
	return g.line.Close()
}

// Noop is a link.ModemControl that does nothing, for links with no
// GPIO-controlled modem hardware.
type Noop struct{}

func (Noop) Enable() error  { return nil }
func (Noop) Disable() error { return nil }
