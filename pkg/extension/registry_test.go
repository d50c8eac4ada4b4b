package extension

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
)

func TestAuthorizationMethods(t *testing.T) {
	is := is.New(t)
	r := NewRegistry()
	is.NoErr(r.RegisterAuthorizationMethod("ffa", "Free for all"))
	is.NoErr(r.RegisterAuthorizationMethod("approval", "Pre-approved accounts only"))
	err := r.RegisterAuthorizationMethod("ffa", "again")
	is.True(errors.Is(err, ErrMethodExists))

	ms := r.AuthorizationMethods()
	is.Equal(len(ms), 2)
	is.Equal(ms[0].ID, "ffa")
	is.Equal(ms[1].ID, "approval")
	is.True(r.HasAuthorizationMethod("approval"))
	is.True(!r.HasAuthorizationMethod("ninja"))
}

func TestAccountAuthorizers(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	r := NewRegistry()

	err := r.RegisterAccountAuthorizer("ninja", AccountAuthorizerFunc(nil))
	is.True(errors.Is(err, ErrUnknownMethod))

	is.NoErr(r.RegisterAuthorizationMethod("ffa", "Free for all"))
	is.NoErr(r.RegisterAuthorizationMethod("plain", "Existing accounts"))
	is.NoErr(r.RegisterAccountAuthorizer("ffa", AccountAuthorizerFunc(func(context.Context, *proto.Repository, *proto.Account) (bool, error) {
		return true, nil
	})))

	ok, err := r.IsAccountAuthorized(ctx, &proto.Repository{AuthorizationMethod: "ffa"}, nil)
	is.NoErr(err)
	is.True(ok)

	ok, err = r.IsAccountAuthorized(ctx, &proto.Repository{AuthorizationMethod: "plain"}, nil)
	is.NoErr(err)
	is.True(!ok)

	ok, err = r.IsAccountAuthorized(ctx, &proto.Repository{AuthorizationMethod: "plain"}, &proto.Account{})
	is.NoErr(err)
	is.True(ok)
}

func TestExtractors(t *testing.T) {
	is := is.New(t)
	r := NewRegistry()

	karma := ExtractorFunc(func(fields map[string]string) (any, bool, error) {
		v, ok := fields["karma"]
		if !ok {
			return nil, false, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, false, err
		}
		return map[string]int{"karma": n}, true, nil
	})
	is.NoErr(r.RegisterExtraDataExtractor(ScopeAccount, "mymodule", karma))
	is.NoErr(r.RegisterExtraDataExtractor(ScopeRepository, "mymodule", karma))

	err := r.RegisterExtraDataExtractor(ScopeAccount, "mymodule", karma)
	is.True(errors.Is(err, ErrNamespaceConflict))
	err = r.RegisterExtraDataExtractor(Scope(9), "x", karma)
	is.True(errors.Is(err, ErrInvalidScope))

	data := proto.ExtraData{}
	is.NoErr(r.ExtractAccountData(map[string]string{"karma": "3"}, data))
	var v map[string]int
	ok, err := data.Get("mymodule", &v)
	is.NoErr(err)
	is.True(ok)
	is.Equal(v["karma"], 3)

	data = proto.ExtraData{}
	is.NoErr(r.ExtractRepositoryData(map[string]string{"other": "x"}, data))
	is.True(!data.Has("mymodule"))

	is.True(errors.Is(r.ExtractAccountData(map[string]string{"karma": "lots"}, data), ErrInvalidData))
}

func TestDecorators(t *testing.T) {
	is := is.New(t)
	r := NewRegistry()

	is.NoErr(r.RegisterListDecorator(ScopeAccount, func(_ context.Context, l *Listing[*proto.Account], opts ListOptions) error {
		if name, ok := opts.Filter("username"); ok {
			l.Filter(func(row Row[*proto.Account]) bool {
				return row.Item.Username == name
			})
		}
		return nil
	}))
	is.NoErr(r.RegisterListDecorator(ScopeAccount, AccountDecorator(func(_ context.Context, l *Listing[*proto.Account], _ ListOptions) error {
		l.AddColumn("Bound", func(a *proto.Account) string {
			return strconv.FormatBool(a.UserID != 0)
		})
		return nil
	})))
	err := r.RegisterListDecorator(ScopeRepository, AccountDecorator(nil))
	is.True(errors.Is(err, ErrInvalidDecorator))

	accounts := []*proto.Account{{Username: "chx", UserID: 2}, {Username: "dries"}}
	l, err := r.DecorateAccounts(context.TODO(), accounts, ListOptions{Filters: map[string]string{"username": "chx"}})
	is.NoErr(err)
	is.Equal(len(l.Rows), 1)
	is.Equal(l.Columns, []string{"Bound"})
	is.Equal(l.Rows[0].Cells["Bound"], "true")
	is.Equal(l.Items()[0].Username, "chx")

	l, err = r.DecorateAccounts(context.TODO(), accounts, ListOptions{})
	is.NoErr(err)
	is.Equal(len(l.Rows), 2)

	repos, err := r.DecorateRepositories(context.TODO(), []*proto.Repository{{Name: "drupal"}}, ListOptions{})
	is.NoErr(err)
	is.Equal(len(repos.Columns), 0)
	is.Equal(len(repos.Rows), 1)
}

func TestRegistryWiresArbiterAndNotifier(t *testing.T) {
	is := is.New(t)
	r := NewRegistry()
	r.RegisterAccessCheck("deny", access.CheckFunc(func(context.Context, *proto.Operation, []proto.Item) access.Result {
		return access.Deny("no")
	}))
	r.RegisterNotificationSubscriber("noop", notify.SubscriberFunc(func(context.Context, notify.Event) error {
		return nil
	}))
	is.Equal(r.Arbiter().Checks(), []string{"deny"})
	is.Equal(r.Notifier().Subscribers(), []string{"noop"})
}
