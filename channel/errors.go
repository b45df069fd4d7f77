package channel

import "errors"

var (
	// ErrClosed is returned by a send or receive operation once the channel
	// is known to be permanently disconnected.
	ErrClosed = errors.New("channel: closed")

	// ErrAlreadyAttached is returned by AttachSender/AttachReceiver when the
	// corresponding endpoint has already been bound.
	ErrAlreadyAttached = errors.New("channel: endpoint already attached")
)
