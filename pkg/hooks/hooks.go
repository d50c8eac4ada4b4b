package hooks

import (
	"context"
	"errors"
	"io"
)

// ErrDenied is returned by hooks rejecting a push.
var ErrDenied = errors.New("push denied")

// HookArg is an argument to a git hook.
type HookArg struct {
	OldSha  string
	NewSha  string
	RefName string
}

// Hooks provides an interface for git server-side hooks. Pre-receive and
// update return ErrDenied after writing the denial messages to stderr.
type Hooks interface {
	PreReceive(ctx context.Context, stdout io.Writer, stderr io.Writer, repo string, pusher string, args []HookArg) error
	Update(ctx context.Context, stdout io.Writer, stderr io.Writer, repo string, pusher string, arg HookArg) error
	PostReceive(ctx context.Context, stdout io.Writer, stderr io.Writer, repo string, pusher string, args []HookArg) error
}
