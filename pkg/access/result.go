// Package access arbitrates proposed operations with veto checks.
package access

import (
	"encoding"
	"errors"
	"strings"
)

// Verdict is the outcome of a single access check.
type Verdict int

const (
	// VerdictAbstain means the check has no objection.
	VerdictAbstain Verdict = iota
	// VerdictDeny vetoes the operation.
	VerdictDeny
	// VerdictForceAllow allows the operation regardless of any denial.
	VerdictForceAllow
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAbstain:
		return "abstain"
	case VerdictDeny:
		return "deny"
	case VerdictForceAllow:
		return "force-allow"
	default:
		return "unknown"
	}
}

// ParseVerdict parses a verdict string.
func ParseVerdict(s string) Verdict {
	switch s {
	case "abstain":
		return VerdictAbstain
	case "deny":
		return VerdictDeny
	case "force-allow":
		return VerdictForceAllow
	default:
		return Verdict(-1)
	}
}

var (
	_ encoding.TextMarshaler   = Verdict(0)
	_ encoding.TextUnmarshaler = (*Verdict)(nil)
)

// ErrInvalidVerdict is returned when an invalid verdict is provided.
var ErrInvalidVerdict = errors.New("invalid verdict")

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	p := ParseVerdict(string(text))
	if p < 0 {
		return ErrInvalidVerdict
	}

	*v = p

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() (text []byte, err error) {
	return []byte(v.String()), nil
}

// Result is what a check returns: abstain, deny with messages, or force
// allow.
type Result struct {
	verdict  Verdict
	messages []string
}

// Abstain returns a result without objection.
func Abstain() Result {
	return Result{verdict: VerdictAbstain}
}

// Deny returns a veto carrying user-facing messages. A denial without
// messages is the same as abstaining.
func Deny(messages ...string) Result {
	if len(messages) == 0 {
		return Abstain()
	}
	return Result{verdict: VerdictDeny, messages: messages}
}

// ForceAllow returns a result that overrides every denial.
func ForceAllow() Result {
	return Result{verdict: VerdictForceAllow}
}

// Verdict returns the result verdict.
func (r Result) Verdict() Verdict {
	return r.verdict
}

// Messages returns the denial messages.
func (r Result) Messages() []string {
	return r.messages
}

// Outcome is the result of a named check within a decision.
type Outcome struct {
	Check    string   `json:"check"`
	Verdict  Verdict  `json:"verdict"`
	Messages []string `json:"messages,omitempty"`
}

// Decision is the aggregate of every check result for an operation.
type Decision struct {
	Allowed bool `json:"allowed"`
	// Forced is set when a check force-allowed the operation.
	Forced bool `json:"forced,omitempty"`
	// Messages are the denial messages, empty when allowed.
	Messages []string `json:"messages"`
	// Suppressed are the denial messages overridden by a force allow.
	Suppressed []string  `json:"suppressed,omitempty"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Message returns the denial messages joined by newlines.
func (d Decision) Message() string {
	return strings.Join(d.Messages, "\n")
}

// Err returns a *DeniedError when the operation was denied.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Messages: d.Messages}
}

// DeniedError is returned when an operation is vetoed.
type DeniedError struct {
	Messages []string
}

// Error implements error.
func (e *DeniedError) Error() string {
	return strings.Join(e.Messages, "\n")
}
