// Command pppos-link runs one PPP-over-serial link: it opens a serial
// device, frames/deframes HDLC traffic over it, and hands decoded
// frames to an upper PPP engine. The engine itself (LCP/IPCP/auth) is
// out of scope here (spec.md Non-goals); this binary wires a
// minimal logging stand-in so the link can be exercised end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/go-pppos/pppos/internal/buffer"
	"github.com/go-pppos/pppos/internal/config"
	"github.com/go-pppos/pppos/internal/discovery"
	"github.com/go-pppos/pppos/internal/hotplug"
	"github.com/go-pppos/pppos/internal/link"
	"github.com/go-pppos/pppos/internal/modemctl"
	"github.com/go-pppos/pppos/internal/serialport"
	"github.com/go-pppos/pppos/internal/tracelog"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to link YAML configuration file.")
		device     = pflag.StringP("device", "d", "", "Serial device path, overrides config file.")
		baud       = pflag.IntP("baud", "b", 0, "Baud rate, overrides config file.")
		logLevel   = pflag.String("log-level", "", "Log level (debug, info, warn, error), overrides config file.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - PPP-over-serial link daemon\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s --config FILE [OPTIONS]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		pflag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("link exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	port, err := serialport.Open(cfg.Device, cfg.Baud)
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	defer port.Close()

	trace, err := tracelog.Open(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("open trace log: %w", err)
	}
	defer trace.Close()

	var modem link.ModemControl = modemctl.Noop{}
	if cfg.GPIOChip != "" {
		gpio, err := modemctl.Open(cfg.GPIOChip, cfg.GPIOLine, false)
		if err != nil {
			return fmt.Errorf("open modem control line: %w", err)
		}
		defer gpio.Close()
		modem = gpio
	}

	upper := newLoggingUpper(logger, trace)

	l := link.New(link.Config{
		ID:         1,
		Serial:     port,
		Upper:      upper,
		Logger:     logger,
		Pool:       buffer.DefaultPool{},
		Modem:      modem,
		QueueDepth: cfg.QueueDepth,
	})

	if cfg.Advertise {
		ann := discovery.New(logger)
		if err := ann.Announce(ctx, cfg.InstanceName, 0); err != nil {
			logger.Warn("dns-sd announce failed", "err", err)
		}
	}

	if cfg.GPIOChip != "" {
		w := hotplug.NewWatcher(cfg.Device)
		events := make(chan hotplug.Event, 4)
		go func() {
			if err := w.Run(ctx, events); err != nil {
				logger.Warn("hotplug watcher stopped", "err", err)
			}
		}()
		go func() {
			for ev := range events {
				logger.Info("hotplug event", "action", ev.Action, "device", ev.Devnode)
				switch ev.Action {
				case "remove":
					l.HandleCommand(ctx, link.Disconnect)
				case "add":
					l.HandleCommand(ctx, link.Connect)
				}
			}
		}()
	}

	l.HandleCommand(ctx, link.Connect)
	defer l.HandleCommand(ctx, link.Free)

	readErr := make(chan error, 1)
	go func() {
		readErr <- port.ReadLoop(l.Input)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-readErr:
		return err
	}
}
