package channel

import "github.com/lattice-sim/dam-sim/simtime"

type sendOptionKind int

const (
	sendUnknown sendOptionKind = iota
	sendAvailableAt
	sendCheckBackAt
	sendNever
)

// SendOptions is the advice a failed TrySend gives its caller about whether
// and when a retry might succeed.
type SendOptions struct {
	kind sendOptionKind
	at   simtime.Time
}

// UnknownOptions carries no retry advice at all.
func UnknownOptions() SendOptions { return SendOptions{kind: sendUnknown} }

// NeverOptions asserts the channel will never accept another send.
func NeverOptions() SendOptions { return SendOptions{kind: sendNever} }

// AvailableAtOptions asserts a slot is known to free up at exactly t.
func AvailableAtOptions(t simtime.Time) SendOptions {
	return SendOptions{kind: sendAvailableAt, at: t}
}

// CheckBackAtOptions suggests retrying no earlier than t.
func CheckBackAtOptions(t simtime.Time) SendOptions {
	return SendOptions{kind: sendCheckBackAt, at: t}
}

func (s SendOptions) AvailableAt() (simtime.Time, bool) {
	return s.at, s.kind == sendAvailableAt
}

func (s SendOptions) CheckBackAt() (simtime.Time, bool) {
	return s.at, s.kind == sendCheckBackAt
}

func (s SendOptions) IsNever() bool   { return s.kind == sendNever }
func (s SendOptions) IsUnknown() bool { return s.kind == sendUnknown }

func (s SendOptions) String() string {
	switch s.kind {
	case sendAvailableAt:
		return "available-at(" + s.at.String() + ")"
	case sendCheckBackAt:
		return "check-back-at(" + s.at.String() + ")"
	case sendNever:
		return "never"
	default:
		return "unknown"
	}
}
