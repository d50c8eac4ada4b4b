// Package notify broadcasts recorded changes to subscribers.
package notify

import (
	"encoding"
	"errors"

	"github.com/vcgate/vcgate/pkg/proto"
)

// Action is the kind of change being broadcast.
type Action int

const (
	// ActionInsert is broadcast after a record is created.
	ActionInsert Action = iota + 1
	// ActionUpdate is broadcast after a record is updated.
	ActionUpdate
	// ActionDelete is broadcast right before a record is removed.
	ActionDelete
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseAction parses an action string.
func ParseAction(s string) Action {
	switch s {
	case "insert":
		return ActionInsert
	case "update":
		return ActionUpdate
	case "delete":
		return ActionDelete
	default:
		return Action(-1)
	}
}

// Scope is the kind of record an event is about.
type Scope int

const (
	// ScopeOperation events carry an operation and its items.
	ScopeOperation Scope = iota + 1
	// ScopeRepository events carry a repository.
	ScopeRepository
	// ScopeAccount events carry an account and its repository.
	ScopeAccount
)

// String returns the string representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeOperation:
		return "operation"
	case ScopeRepository:
		return "repository"
	case ScopeAccount:
		return "account"
	default:
		return "unknown"
	}
}

// ParseScope parses a scope string.
func ParseScope(s string) Scope {
	switch s {
	case "operation":
		return ScopeOperation
	case "repository":
		return ScopeRepository
	case "account":
		return ScopeAccount
	default:
		return Scope(-1)
	}
}

var (
	_ encoding.TextMarshaler   = Action(0)
	_ encoding.TextUnmarshaler = (*Action)(nil)
	_ encoding.TextMarshaler   = Scope(0)
	_ encoding.TextUnmarshaler = (*Scope)(nil)
)

var (
	// ErrInvalidAction is returned when an invalid action is provided.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidScope is returned when an invalid scope is provided.
	ErrInvalidScope = errors.New("invalid scope")
)

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	v := ParseAction(string(text))
	if v < 0 {
		return ErrInvalidAction
	}
	*a = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	v := ParseScope(string(text))
	if v < 0 {
		return ErrInvalidScope
	}
	*s = v
	return nil
}

// Event is a change broadcast to subscribers.
type Event struct {
	Action     Action            `json:"action"`
	Scope      Scope             `json:"scope"`
	Operation  *proto.Operation  `json:"operation,omitempty"`
	Items      []proto.Item      `json:"items,omitempty"`
	Repository *proto.Repository `json:"repository,omitempty"`
	Account    *proto.Account    `json:"account,omitempty"`
}

// OperationEvent returns an operation event.
func OperationEvent(action Action, op *proto.Operation, items []proto.Item) Event {
	return Event{
		Action:     action,
		Scope:      ScopeOperation,
		Operation:  op,
		Items:      items,
		Repository: op.Repository,
	}
}

// RepositoryEvent returns a repository event.
func RepositoryEvent(action Action, repo *proto.Repository) Event {
	return Event{
		Action:     action,
		Scope:      ScopeRepository,
		Repository: repo,
	}
}

// AccountEvent returns an account event.
func AccountEvent(action Action, repo *proto.Repository, acc *proto.Account) Event {
	return Event{
		Action:     action,
		Scope:      ScopeAccount,
		Repository: repo,
		Account:    acc,
	}
}
