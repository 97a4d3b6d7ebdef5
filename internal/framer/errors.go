package framer

import "errors"

// Errors returned across the framer's exported boundaries. RX's own
// internal failure modes (bad FCS, short frame, pool exhaustion) never
// surface as errors — they pair with a stats counter and a log line and
// reset the state machine in place, per spec.md §7 ("nothing in the
// core is fatal"). These three are the ones callers actually receive.
var (
	ErrDispatch   = errors.New("framer: upper-engine queue full")
	ErrProtocol   = errors.New("framer: unrecognized VJ compression result")
	ErrShortWrite = errors.New("framer: serial write wrote fewer bytes than offered")
)
