// Package hotplug watches udev for tty device arrival/departure so a
// daemon can drive CONNECT/DISCONNECT as a USB-serial adapter is
// plugged and unplugged, rather than requiring a restart. Grounded on
// the teacher's jochenvg/go-udev dependency, likewise never wired into
// its own committed Go source.
package hotplug

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Event reports a tty device transition.
type Event struct {
	Action string // "add" or "remove"
	Devnode string
}

// Watcher streams tty subsystem hotplug events for one device path.
type Watcher struct {
	device string
}

// NewWatcher returns a Watcher that will report events naming device
// (e.g. "/dev/ttyUSB0").
func NewWatcher(device string) *Watcher {
	return &Watcher{device: device}
}

// Run streams matching events to events until ctx is canceled or the
// udev monitor errors. It closes events before returning.
func (w *Watcher) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("tty"); err != nil {
		return fmt.Errorf("hotplug: filter subsystem: %w", err)
	}

	deviceChan, errChan, err := mon.DeviceChan(ctx)
	if err != nil {
		return fmt.Errorf("hotplug: start monitor: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("hotplug: monitor: %w", err)
			}
		case d, ok := <-deviceChan:
			if !ok {
				return nil
			}
			if d.Devnode() != w.device {
				continue
			}
			select {
			case events <- Event{Action: d.Action(), Devnode: d.Devnode()}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
