package engine

import "errors"

// ErrEndpointUnregistered is returned by ProgramBuilder.Initialize when a
// channel's sender or receiver was never attached, or was attached with an
// identifier that does not belong to any context added via AddChild.
var ErrEndpointUnregistered = errors.New("engine: channel endpoint not registered as a context")

// ErrDuplicateExecution is returned if an Initialized program is run more
// than once; each ProgramBuilder/Initialized value supports exactly one Run.
var ErrDuplicateExecution = errors.New("engine: program already executed")

// ErrValidationFailure is the sentinel a contexts.Checker wraps when an
// observed element diverges from its expected sequence.
var ErrValidationFailure = errors.New("engine: validation failure")

// ErrTimeConversion marks an overflow or otherwise-invalid conversion between
// logical tick representations; reserved for callers that bridge simtime.Time
// to external fixed-width representations (e.g. metrics export).
var ErrTimeConversion = errors.New("engine: time conversion failure")
