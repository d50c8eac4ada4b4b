package webhook

import (
	"encoding"
	"errors"
)

// Event is a webhook event.
type Event int

const (
	// EventCommit is a commit operation event.
	EventCommit Event = iota + 1

	// EventBranchTag is a branch or tag operation event.
	EventBranchTag

	// EventRepository is a repository event.
	EventRepository

	// EventAccount is a repository account event.
	EventAccount
)

var eventStrings = map[Event]string{
	EventCommit:     "commit",
	EventBranchTag:  "branch_tag",
	EventRepository: "repository",
	EventAccount:    "account",
}

// Events returns all events.
func Events() []Event {
	return []Event{
		EventCommit,
		EventBranchTag,
		EventRepository,
		EventAccount,
	}
}

// String returns the string representation of the event.
func (e Event) String() string {
	return eventStrings[e]
}

// ErrInvalidEvent is returned when the event is invalid.
var ErrInvalidEvent = errors.New("invalid event")

// ParseEvent parses an event string and returns the event.
func ParseEvent(s string) (Event, error) {
	for k, v := range eventStrings {
		if v == s {
			return k, nil
		}
	}

	return -1, ErrInvalidEvent
}

var (
	_ encoding.TextMarshaler   = Event(0)
	_ encoding.TextUnmarshaler = (*Event)(nil)
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Event) UnmarshalText(text []byte) error {
	ev, err := ParseEvent(string(text))
	if err != nil {
		return err
	}

	*e = ev
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (e Event) MarshalText() (text []byte, err error) {
	ev := e.String()
	if ev == "" {
		return nil, ErrInvalidEvent
	}

	return []byte(ev), nil
}
