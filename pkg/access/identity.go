package access

import (
	"context"

	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/vcs"
)

const unresolvedAuthorMessage = "** ERROR: no @registry user matches @vcs user '@user'.\n" +
	"** Please contact a @vcs administrator for help."

// IdentityCheck denies operations whose author doesn't resolve to a user of
// the named registry.
func IdentityCheck(registry string) Check {
	return CheckFunc(func(ctx context.Context, op *proto.Operation, _ []proto.Item) Result {
		if op.Author.Resolved() {
			return Abstain()
		}

		kind := ""
		if op.Repository != nil {
			kind = op.Repository.VCS
		}

		return Deny(FromContext(ctx).Translate(unresolvedAuthorMessage, map[string]string{
			"registry": registry,
			"vcs":      vcs.Name(kind),
			"user":     op.Author.Username,
		}))
	})
}
