package main

import (
	"github.com/charmbracelet/log"

	"github.com/go-pppos/pppos/internal/buffer"
	"github.com/go-pppos/pppos/internal/tracelog"
)

// loggingUpper is a minimal stand-in for the upper PPP engine
// (LCP/IPCP/authentication are out of scope here). It accepts every
// frame, logs it, and traces it, so the link can be exercised end to
// end without a full PPP stack.
type loggingUpper struct {
	log   *log.Logger
	trace *tracelog.Log
}

func newLoggingUpper(logger *log.Logger, trace *tracelog.Log) *loggingUpper {
	return &loggingUpper{log: logger, trace: trace}
}

func (u *loggingUpper) Input(protocol uint16, frame *buffer.Chain) error {
	defer frame.Release()
	length := frame.Len()
	u.log.Info("received frame", "protocol", protocol, "length", length)
	if err := u.trace.Write(tracelog.RX, protocol, length, true); err != nil {
		u.log.Warn("trace write failed", "err", err)
	}
	return nil
}

func (u *loggingUpper) Start()   { u.log.Info("link up, starting LCP") }
func (u *loggingUpper) LinkEnd() { u.log.Info("link down") }
func (u *loggingUpper) Clear()   { u.log.Info("clearing per-session state") }
