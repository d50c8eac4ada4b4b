package access

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/vcs"
)

// Authorizer tells whether an author may change a repository under its
// authorization method.
type Authorizer interface {
	IsAuthorAuthorized(ctx context.Context, repo *proto.Repository, author proto.Author) (bool, error)
}

// AuthorizationCheck denies operations of authors the repository
// authorization method rejects.
func AuthorizationCheck(authorizer Authorizer) Check {
	return CheckFunc(func(ctx context.Context, op *proto.Operation, _ []proto.Item) Result {
		if op.Repository == nil {
			return Abstain()
		}

		args := map[string]string{
			"vcs":  vcs.Name(op.Repository.VCS),
			"user": op.Author.Username,
			"repo": op.Repository.Name,
		}
		ok, err := authorizer.IsAuthorAuthorized(ctx, op.Repository, op.Author)
		if err != nil {
			log.FromContext(ctx).WithPrefix("access").Error("error checking authorization", "repo", op.Repository.Name, "author", op.Author.Username, "err", err)
			return Deny(FromContext(ctx).Translate("** ERROR: could not verify the authorization of @vcs user '@user'.", args))
		}
		if !ok {
			return Deny(FromContext(ctx).Translate("** ERROR: the @vcs account '@user' is not authorized to commit to @repo.", args))
		}
		return Abstain()
	})
}
