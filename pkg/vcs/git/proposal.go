package git

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/vcgate/vcgate/pkg/hooks"
	"github.com/vcgate/vcgate/pkg/proto"
)

// Kind is the vcs backend kind of git repositories.
const Kind = "git"

// Proposal is an operation and its items built from a push.
type Proposal struct {
	Operation *proto.Operation
	Items     []proto.Item
}

// Proposals opens the repository at repoPath and builds the proposals of
// a push. See Repository.Proposals.
func Proposals(repoPath string, pusher string, updates []hooks.HookArg) ([]Proposal, error) {
	r, err := Open(repoPath)
	if err != nil {
		return nil, err
	}
	return r.Proposals(context.Background(), pusher, updates)
}

// Proposals builds the operations a push performs, authored by pusher.
//
// Created and deleted branches and every tag change give branch and tag
// operations. Commits that no other branch already contains give commit
// operations, oldest first, labelled with the updated branch. A commit
// that several pushed branches reach gives one operation carrying a label
// for each of them. Operations are returned in update order. The
// repository of each operation only carries its VCS kind; callers set the
// rest.
func (r *Repository) Proposals(ctx context.Context, pusher string, updates []hooks.HookArg) ([]Proposal, error) {
	var ps []Proposal
	proposed := map[plumbing.Hash]*proto.Operation{}
	for _, u := range updates {
		switch {
		case strings.HasPrefix(u.RefName, branchPrefix):
			bps, err := r.branchProposals(ctx, pusher, u, updates, proposed)
			if err != nil {
				return nil, err
			}
			ps = append(ps, bps...)
		case strings.HasPrefix(u.RefName, tagPrefix):
			p, err := r.tagProposal(pusher, u)
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRef, u.RefName)
		}
	}
	return ps, nil
}

func newOperation(typ proto.OperationType, pusher string) *proto.Operation {
	return &proto.Operation{
		Type:       typ,
		Repository: &proto.Repository{VCS: Kind},
		Author:     proto.Author{Username: pusher},
	}
}

func refAction(u hooks.HookArg) proto.Action {
	switch {
	case IsZeroHash(u.OldSha):
		return proto.ActionAdded
	case IsZeroHash(u.NewSha):
		return proto.ActionDeleted
	default:
		return proto.ActionModified
	}
}

func (r *Repository) branchProposals(ctx context.Context, pusher string, u hooks.HookArg, updates []hooks.HookArg, proposed map[plumbing.Hash]*proto.Operation) ([]Proposal, error) {
	name, _ := BranchName(u.RefName)
	action := refAction(u)

	var ps []Proposal
	if action != proto.ActionModified {
		op := newOperation(proto.OperationBranch, pusher)
		op.Labels = []proto.Label{{Name: name, Type: proto.LabelBranch, Action: action}}
		if action == proto.ActionAdded {
			op.Revision = u.NewSha
		} else {
			op.Revision = u.OldSha
		}
		ps = append(ps, Proposal{Operation: op})
	}
	if action == proto.ActionDeleted {
		return ps, nil
	}

	commits, err := r.newCommits(u, updates)
	if err != nil {
		return nil, err
	}
	label := proto.Label{Name: name, Type: proto.LabelBranch, Action: proto.ActionModified}
	for _, c := range commits {
		if op, ok := proposed[c.Hash]; ok {
			if !slices.Contains(op.Labels, label) {
				op.Labels = append(op.Labels, label)
			}
			continue
		}
		items, err := r.commitItems(ctx, c)
		if err != nil {
			return nil, err
		}
		op := newOperation(proto.OperationCommit, pusher)
		op.Date = c.Committer.When
		op.Committer = c.Author.Name
		op.Message = c.Message
		op.Revision = c.Hash.String()
		op.Labels = []proto.Label{label}
		proposed[c.Hash] = op
		ps = append(ps, Proposal{Operation: op, Items: items})
	}

	return ps, nil
}

func (r *Repository) tagProposal(pusher string, u hooks.HookArg) (Proposal, error) {
	name, _ := TagName(u.RefName)
	action := refAction(u)

	op := newOperation(proto.OperationTag, pusher)
	op.Labels = []proto.Label{{Name: name, Type: proto.LabelTag, Action: action}}
	op.Revision = u.NewSha
	if action == proto.ActionDeleted {
		op.Revision = u.OldSha
		return Proposal{Operation: op}, nil
	}

	// Annotated tags carry a message and the tagged commit.
	tag, err := r.TagObject(plumbing.NewHash(u.NewSha))
	switch {
	case err == nil:
		op.Message = tag.Message
		op.Revision = tag.Target.String()
		op.Date = tag.Tagger.When
	case errors.Is(err, plumbing.ErrObjectNotFound):
	default:
		return Proposal{}, fmt.Errorf("tag %s: %w", name, err)
	}

	return Proposal{Operation: op}, nil
}

// newCommits returns the commits reachable from the new branch head that
// neither the old head nor any other branch reaches, oldest first.
func (r *Repository) newCommits(u hooks.HookArg, updates []hooks.HookArg) ([]*object.Commit, error) {
	seen := map[plumbing.Hash]bool{}
	mark := func(h plumbing.Hash) error {
		if seen[h] {
			return nil
		}
		c, err := r.CommitObject(h)
		if err != nil {
			return err
		}
		return object.NewCommitPreorderIter(c, seen, nil).ForEach(func(c *object.Commit) error {
			seen[c.Hash] = true
			return nil
		})
	}

	if !IsZeroHash(u.OldSha) {
		if err := mark(plumbing.NewHash(u.OldSha)); err != nil {
			return nil, fmt.Errorf("old head %s: %w", u.OldSha, err)
		}
	}

	// Other branches as they were before the push.
	pushed := map[string]bool{}
	for _, o := range updates {
		pushed[o.RefName] = true
		if o.RefName != u.RefName && strings.HasPrefix(o.RefName, branchPrefix) && !IsZeroHash(o.OldSha) {
			if err := mark(plumbing.NewHash(o.OldSha)); err != nil {
				return nil, fmt.Errorf("old head %s: %w", o.OldSha, err)
			}
		}
	}
	refs, err := r.References()
	if err != nil {
		return nil, err
	}
	if err := refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if ref.Type() != plumbing.HashReference || !strings.HasPrefix(name, branchPrefix) || pushed[name] {
			return nil
		}
		if err := mark(ref.Hash()); err != nil && !errors.Is(err, plumbing.ErrObjectNotFound) {
			return err
		}
		return nil
	}); err != nil {
		return nil, err
	}

	head, err := r.CommitObject(plumbing.NewHash(u.NewSha))
	if err != nil {
		return nil, fmt.Errorf("new head %s: %w", u.NewSha, err)
	}

	var commits []*object.Commit
	if err := object.NewCommitPreorderIter(head, seen, nil).ForEach(func(c *object.Commit) error {
		commits = append(commits, c)
		return nil
	}); err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}

	// The walk visits children before their parents.
	slices.Reverse(commits)

	return commits, nil
}
