// Package discovery announces a link's monitor/debug endpoint over
// mDNS/DNS-SD, adapted from the teacher's dns_sd_announce (src/dns_sd.go),
// which advertises its KISS-over-TCP service the same way: a
// brutella/dnssd service plus responder, with no system daemon
// dependency.
package discovery

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// ServiceType is the DNS-SD service type for a PPPoS link's monitor
// endpoint, mirroring the teacher's "_kiss-tnc._tcp" constant.
const ServiceType = "_pppos-link._tcp"

// DefaultName is used when no instance name is configured.
const DefaultName = "pppos-link"

// Announcer advertises one link's monitor endpoint on the local
// network.
type Announcer struct {
	log *log.Logger
}

// New creates an Announcer that logs through logger.
func New(logger *log.Logger) *Announcer {
	return &Announcer{log: logger}
}

// Announce registers and responds to mDNS queries for name on port,
// until ctx is canceled. It returns once registration has started;
// responding continues on its own goroutine, same as the teacher's
// fire-and-forget rp.Respond call.
func (a *Announcer) Announce(ctx context.Context, name string, port int) error {
	if name == "" {
		name = DefaultName
	}

	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("discovery: create service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("discovery: create responder: %w", err)
	}

	if _, err := responder.Add(svc); err != nil {
		return fmt.Errorf("discovery: add service: %w", err)
	}

	a.log.Info("announcing link monitor endpoint", "name", name, "type", ServiceType, "port", port)

	go func() {
		if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("dns-sd responder error", "err", err)
		}
	}()

	return nil
}
