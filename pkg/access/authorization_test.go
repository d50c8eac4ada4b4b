package access

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/proto"
)

type authorizerFunc func(ctx context.Context, repo *proto.Repository, author proto.Author) (bool, error)

func (f authorizerFunc) IsAuthorAuthorized(ctx context.Context, repo *proto.Repository, author proto.Author) (bool, error) {
	return f(ctx, repo, author)
}

func TestAuthorizationCheck(t *testing.T) {
	is := is.New(t)
	allow := map[string]bool{"dries": true}
	var fail error
	check := AuthorizationCheck(authorizerFunc(func(_ context.Context, _ *proto.Repository, a proto.Author) (bool, error) {
		return allow[a.Username], fail
	}))

	op := proposal()
	is.Equal(check.Check(context.TODO(), op, nil).Verdict(), VerdictAbstain)

	op.Author.Username = "chx"
	res := check.Check(context.TODO(), op, nil)
	is.Equal(res.Verdict(), VerdictDeny)
	is.Equal(res.Messages()[0], "** ERROR: the CVS account 'chx' is not authorized to commit to drupal.")

	fail = errors.New("db down")
	res = check.Check(context.TODO(), op, nil)
	is.Equal(res.Verdict(), VerdictDeny)
	is.Equal(res.Messages()[0], "** ERROR: could not verify the authorization of CVS user 'chx'.")
}

func TestTranslate(t *testing.T) {
	is := is.New(t)
	got := DefaultTranslator.Translate("%name !names @name", map[string]string{
		"name":  "a",
		"names": "b",
	})
	is.Equal(got, "a b a")
	is.Equal(DefaultTranslator.Translate("plain", nil), "plain")
}
