package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vcgate/vcgate/pkg/hooks"
	"github.com/vcgate/vcgate/pkg/proto"
	vcsgit "github.com/vcgate/vcgate/pkg/vcs/git"
)

var _ hooks.Hooks = (*Backend)(nil)

// ErrNotGitRepo is returned when git hooks run for a repository of another
// backend.
var ErrNotGitRepo = errors.New("not a git repository")

// proposals reads the proposals of a push to a git repository.
func (d *Backend) proposals(ctx context.Context, repo string, pusher string, args []hooks.HookArg) (*proto.Repository, []vcsgit.Proposal, error) {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return nil, nil, err
	}
	if r.VCS != vcsgit.Kind {
		return nil, nil, fmt.Errorf("%w: %s is a %s repository", ErrNotGitRepo, r.Name, r.VCS)
	}
	if r.Root == "" {
		return nil, nil, hooks.ErrNoRoot
	}

	gr, err := vcsgit.Open(r.Root)
	if err != nil {
		return nil, nil, err
	}

	ps, err := gr.Proposals(ctx, pusher, args)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range ps {
		p.Operation.Repository = r
	}

	return r, ps, nil
}

// arbitrate authorizes every proposal of a push and writes the denial
// messages to stderr. The push is denied when any proposal is.
func (d *Backend) arbitrate(ctx context.Context, stderr io.Writer, repo string, pusher string, args []hooks.HookArg) error {
	_, ps, err := d.proposals(ctx, repo, pusher, args)
	if err != nil {
		d.logger.Error("error reading push", "repo", repo, "err", err)
		fmt.Fprintln(stderr, "** ERROR: the push could not be verified.") //nolint:errcheck
		return err
	}

	denied := false
	for _, p := range ps {
		dec, err := d.AuthorizeOperation(ctx, p.Operation, p.Items)
		if err != nil {
			fmt.Fprintf(stderr, "** ERROR: %v\n", err) //nolint:errcheck
			denied = true
			continue
		}
		if !dec.Allowed {
			fmt.Fprintln(stderr, dec.Message()) //nolint:errcheck
			denied = true
		}
	}

	if denied {
		return hooks.ErrDenied
	}
	return nil
}

// PreReceive is called by the git pre-receive hook.
//
// It implements Hooks.
func (d *Backend) PreReceive(ctx context.Context, _ io.Writer, stderr io.Writer, repo string, pusher string, args []hooks.HookArg) error {
	d.logger.Debug("pre-receive hook called", "repo", repo, "pusher", pusher, "args", args)
	return d.arbitrate(ctx, stderr, repo, pusher, args)
}

// Update is called by the git update hook. Generated hooks gate pushes
// in pre-receive, so this only runs where the update hook is installed
// by hand instead.
//
// It implements Hooks.
func (d *Backend) Update(ctx context.Context, _ io.Writer, stderr io.Writer, repo string, pusher string, arg hooks.HookArg) error {
	d.logger.Debug("update hook called", "repo", repo, "pusher", pusher, "arg", arg)
	return d.arbitrate(ctx, stderr, repo, pusher, []hooks.HookArg{arg})
}

// PostReceive is called by the git post-receive hook. It records the
// operations of the push; failures are logged and reported but the push
// has already happened.
//
// It implements Hooks.
func (d *Backend) PostReceive(ctx context.Context, _ io.Writer, stderr io.Writer, repo string, pusher string, args []hooks.HookArg) error {
	d.logger.Debug("post-receive hook called", "repo", repo, "pusher", pusher, "args", args)

	_, ps, err := d.proposals(ctx, repo, pusher, args)
	if err != nil {
		d.logger.Error("error reading push", "repo", repo, "err", err)
		return err
	}

	var errs []error
	for _, p := range ps {
		if _, err := d.RecordOperation(ctx, p.Operation, p.Items); err != nil {
			fmt.Fprintf(stderr, "** WARNING: operation %s was not recorded.\n", p.Operation.Revision) //nolint:errcheck
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
