package backend

import (
	"context"
	"errors"

	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/proto"
)

var _ access.Authorizer = (*Backend)(nil)

// IsAuthorAuthorized reports whether the repository authorization method
// accepts the account of an operation author.
func (d *Backend) IsAuthorAuthorized(ctx context.Context, repo *proto.Repository, author proto.Author) (bool, error) {
	if repo == nil {
		return false, proto.ErrRepoNotFound
	}

	acc, err := d.account(ctx, repo, author.Username)
	if err != nil && !errors.Is(err, proto.ErrAccountNotFound) {
		return false, err
	}

	return d.registry.IsAccountAuthorized(ctx, repo, acc)
}

// prepare validates a proposal and fills in what can be derived: the
// stored repository, the resolved author and the common directory.
func (d *Backend) prepare(ctx context.Context, op *proto.Operation, items []proto.Item) error {
	if err := proto.ValidateOperation(op, items); err != nil {
		return err
	}

	if op.Repository.ID == 0 {
		r, err := d.Repository(ctx, op.Repository.Name)
		if err != nil {
			return err
		}
		op.Repository = r
	}

	if !op.Author.Resolved() {
		if id, ok := d.ResolveUser(ctx, op.Author.Username, op.Repository); ok {
			op.Author.UserID = id
		}
	}

	if op.Directory == "" {
		op.Directory = proto.CommonDirectory(items)
	}

	return nil
}

// AuthorizeOperation arbitrates a proposed operation. Malformed proposals
// are returned as errors and never reach the access checks.
func (d *Backend) AuthorizeOperation(ctx context.Context, op *proto.Operation, items []proto.Item) (access.Decision, error) {
	if err := d.prepare(ctx, op, items); err != nil {
		return access.Decision{}, err
	}

	dec := d.registry.Arbiter().Evaluate(ctx, op, items)
	d.logger.Info("operation arbitrated",
		"repo", op.Repository.Name,
		"type", op.Type,
		"author", op.Author.Username,
		"allowed", dec.Allowed,
		"forced", dec.Forced,
	)

	return dec, nil
}
