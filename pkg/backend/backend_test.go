package backend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/store/database"
	"github.com/vcgate/vcgate/pkg/test"
	"github.com/vcgate/vcgate/pkg/vcs"
)

type events struct {
	mu   sync.Mutex
	list []notify.Event
}

func (e *events) Notify(_ context.Context, ev notify.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, ev)
	return nil
}

func (e *events) get() []notify.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]notify.Event(nil), e.list...)
}

func (e *events) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = nil
}

func setup(t *testing.T) (context.Context, *Backend, *events) {
	t.Helper()
	ctx := context.TODO()
	dbx := test.OpenDB(ctx, t)
	cfg := config.DefaultConfig()
	reg := extension.NewRegistry()
	for _, m := range []string{"ffa", "approval"} {
		if err := reg.RegisterAuthorizationMethod(m, m); err != nil {
			t.Fatal(err)
		}
	}
	evs := &events{}
	reg.RegisterNotificationSubscriber("test", evs)
	return ctx, New(ctx, cfg, dbx, database.New(ctx, dbx), reg), evs
}

func TestRepositoryLifecycle(t *testing.T) {
	is := is.New(t)
	ctx, b, evs := setup(t)

	r, err := b.CreateRepository(ctx, "/drupal.git", proto.RepositoryOptions{Root: "/srv/git/drupal.git"})
	is.NoErr(err)
	is.Equal(r.Name, "drupal")
	is.Equal(r.VCS, DefaultVCS)
	is.Equal(r.AuthorizationMethod, "ffa")
	is.True(r.ID > 0)

	_, err = b.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.True(errors.Is(err, proto.ErrRepoExist))
	_, err = b.CreateRepository(ctx, "views", proto.RepositoryOptions{VCS: "darcs"})
	is.True(errors.Is(err, vcs.ErrUnknownBackend))
	_, err = b.CreateRepository(ctx, "views", proto.RepositoryOptions{AuthorizationMethod: "lottery"})
	is.True(errors.Is(err, extension.ErrUnknownMethod))

	_, err = b.CreateRepository(ctx, "views", proto.RepositoryOptions{VCS: "cvs"})
	is.NoErr(err)

	r, err = b.UpdateRepository(ctx, "drupal", proto.RepositoryOptions{AuthorizationMethod: "approval"})
	is.NoErr(err)
	is.Equal(r.AuthorizationMethod, "approval")
	is.Equal(r.Root, "/srv/git/drupal.git")

	cached, err := b.Repository(ctx, "drupal")
	is.NoErr(err)
	is.Equal(cached.AuthorizationMethod, "approval")

	l, err := b.Repositories(ctx, extension.ListOptions{Filters: map[string]string{"vcs": "cvs"}})
	is.NoErr(err)
	is.Equal(len(l.Items()), 1)
	is.Equal(l.Items()[0].Name, "views")

	// The delete event is delivered while the repository still exists.
	var existed bool
	b.Registry().RegisterNotificationSubscriber("check", notify.SubscriberFunc(func(ctx context.Context, e notify.Event) error {
		if e.Scope == notify.ScopeRepository && e.Action == notify.ActionDelete {
			_, err := b.store.GetRepoByID(ctx, b.db, e.Repository.ID)
			existed = err == nil
		}
		return nil
	}))
	is.NoErr(b.DeleteRepository(ctx, "drupal"))
	is.True(existed)
	_, err = b.Repository(ctx, "drupal")
	is.True(errors.Is(err, proto.ErrRepoNotFound))
	is.True(errors.Is(b.DeleteRepository(ctx, "drupal"), proto.ErrRepoNotFound))

	var actions []notify.Action
	for _, e := range evs.get() {
		is.Equal(e.Scope, notify.ScopeRepository)
		actions = append(actions, e.Action)
	}
	is.Equal(actions, []notify.Action{notify.ActionInsert, notify.ActionInsert, notify.ActionUpdate, notify.ActionDelete})
}

func TestRepositoryExtraData(t *testing.T) {
	is := is.New(t)
	ctx, b, _ := setup(t)

	is.NoErr(b.Registry().RegisterExtraDataExtractor(extension.ScopeRepository, "project", extension.ExtractorFunc(func(fields map[string]string) (any, bool, error) {
		p, ok := fields["project"]
		return p, ok, nil
	})))

	r, err := b.CreateRepository(ctx, "drupal", proto.RepositoryOptions{Fields: map[string]string{"project": "core"}})
	is.NoErr(err)
	var project string
	ok, err := r.Data.Get("project", &project)
	is.NoErr(err)
	is.True(ok)
	is.Equal(project, "core")

	r, err = b.UpdateRepository(ctx, "drupal", proto.RepositoryOptions{Fields: map[string]string{"unrelated": "x"}})
	is.NoErr(err)
	ok, err = r.Data.Get("project", &project)
	is.NoErr(err)
	is.True(ok)
	is.Equal(project, "core")
}

func TestUsers(t *testing.T) {
	is := is.New(t)
	ctx, b, _ := setup(t)

	u, err := b.CreateUser(ctx, "Webchick", proto.UserOptions{})
	is.NoErr(err)
	is.Equal(u.Username, "webchick")
	_, err = b.CreateUser(ctx, "webchick", proto.UserOptions{})
	is.True(errors.Is(err, proto.ErrUserExist))

	is.NoErr(b.SetAdmin(ctx, "webchick", true))
	u, err = b.UserByID(ctx, u.ID)
	is.NoErr(err)
	is.True(u.Admin)
	is.True(errors.Is(b.SetAdmin(ctx, "ghost", true), proto.ErrUserNotFound))

	users, err := b.Users(ctx)
	is.NoErr(err)
	is.Equal(len(users), 2) // admin and webchick

	is.NoErr(b.DeleteUser(ctx, "webchick"))
	_, err = b.User(ctx, "webchick")
	is.True(errors.Is(err, proto.ErrUserNotFound))
	is.True(errors.Is(b.DeleteUser(ctx, "webchick"), proto.ErrUserNotFound))
}

func TestAccounts(t *testing.T) {
	is := is.New(t)
	ctx, b, evs := setup(t)

	r, err := b.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.NoErr(err)
	u, err := b.CreateUser(ctx, "dries", proto.UserOptions{})
	is.NoErr(err)

	is.NoErr(b.Registry().RegisterExtraDataExtractor(extension.ScopeAccount, "note", extension.ExtractorFunc(func(fields map[string]string) (any, bool, error) {
		n, ok := fields["note"]
		return n, ok, nil
	})))

	evs.reset()
	acc, err := b.CreateAccount(ctx, "drupal", "dbuytaert", proto.AccountOptions{User: "dries", Fields: map[string]string{"note": "founder"}})
	is.NoErr(err)
	is.Equal(acc.UserID, u.ID)
	is.True(acc.Data.Has("note"))

	_, err = b.CreateAccount(ctx, "drupal", "dbuytaert", proto.AccountOptions{})
	is.True(errors.Is(err, proto.ErrAccountExist))
	_, err = b.CreateAccount(ctx, "drupal", "anon", proto.AccountOptions{User: "ghost"})
	is.True(errors.Is(err, proto.ErrUserNotFound))
	_, err = b.CreateAccount(ctx, "drupal", "two words", proto.AccountOptions{})
	is.True(err != nil)

	_, err = b.CreateAccount(ctx, "drupal", "anon", proto.AccountOptions{})
	is.NoErr(err)

	id, ok := b.ResolveUser(ctx, "dbuytaert", r)
	is.True(ok)
	is.Equal(id, u.ID)
	_, ok = b.ResolveUser(ctx, "anon", r)
	is.True(!ok)
	_, ok = b.ResolveUser(ctx, "nobody", r)
	is.True(!ok)
	_, ok = b.ResolveUser(ctx, "dbuytaert", &proto.Repository{Name: "drupal"})
	is.True(ok)

	l, err := b.Accounts(ctx, "drupal", extension.ListOptions{Filters: map[string]string{"bound": "no"}})
	is.NoErr(err)
	is.Equal(len(l.Items()), 1)
	is.Equal(l.Items()[0].Username, "anon")

	acc, err = b.UpdateAccount(ctx, "drupal", "dbuytaert", proto.AccountOptions{Unbind: true})
	is.NoErr(err)
	is.Equal(acc.UserID, int64(0))
	is.True(acc.Data.Has("note"))
	_, ok = b.ResolveUser(ctx, "dbuytaert", r)
	is.True(!ok)

	acc, err = b.UpdateAccount(ctx, "drupal", "anon", proto.AccountOptions{User: "dries"})
	is.NoErr(err)
	is.Equal(acc.UserID, u.ID)

	accs, err := b.UserAccounts(ctx, "dries")
	is.NoErr(err)
	is.Equal(len(accs), 1)
	is.Equal(accs[0].Username, "anon")

	is.NoErr(b.DeleteAccount(ctx, "drupal", "anon"))
	_, err = b.Account(ctx, "drupal", "anon")
	is.True(errors.Is(err, proto.ErrAccountNotFound))
	is.True(errors.Is(b.DeleteAccount(ctx, "drupal", "anon"), proto.ErrAccountNotFound))

	var actions []notify.Action
	for _, e := range evs.get() {
		is.Equal(e.Scope, notify.ScopeAccount)
		is.Equal(e.Repository.Name, "drupal")
		actions = append(actions, e.Action)
	}
	is.Equal(actions, []notify.Action{
		notify.ActionInsert, notify.ActionInsert,
		notify.ActionUpdate, notify.ActionUpdate,
		notify.ActionDelete,
	})
}

func TestIsAuthorAuthorized(t *testing.T) {
	is := is.New(t)
	ctx, b, _ := setup(t)

	is.NoErr(b.Registry().RegisterAccountAuthorizer("approval", extension.AccountAuthorizerFunc(func(_ context.Context, _ *proto.Repository, acc *proto.Account) (bool, error) {
		return acc != nil && acc.Data.Has("approved"), nil
	})))
	is.NoErr(b.Registry().RegisterExtraDataExtractor(extension.ScopeAccount, "approved", extension.ExtractorFunc(func(fields map[string]string) (any, bool, error) {
		return true, fields["approved"] == "yes", nil
	})))

	ffa, err := b.CreateRepository(ctx, "ffa", proto.RepositoryOptions{})
	is.NoErr(err)
	strict, err := b.CreateRepository(ctx, "strict", proto.RepositoryOptions{AuthorizationMethod: "approval"})
	is.NoErr(err)

	_, err = b.CreateAccount(ctx, "ffa", "dries", proto.AccountOptions{})
	is.NoErr(err)
	_, err = b.CreateAccount(ctx, "strict", "dries", proto.AccountOptions{})
	is.NoErr(err)
	_, err = b.CreateAccount(ctx, "strict", "webchick", proto.AccountOptions{Fields: map[string]string{"approved": "yes"}})
	is.NoErr(err)

	for _, tc := range []struct {
		repo *proto.Repository
		user string
		want bool
	}{
		{ffa, "dries", true},
		{ffa, "nobody", false},
		{strict, "dries", false},
		{strict, "webchick", true},
		{strict, "nobody", false},
	} {
		ok, err := b.IsAuthorAuthorized(ctx, tc.repo, proto.Author{Username: tc.user})
		is.NoErr(err)
		is.Equal(ok, tc.want)
	}
}

func commit(repo *proto.Repository, author string) (*proto.Operation, []proto.Item) {
	op := &proto.Operation{
		Type:       proto.OperationCommit,
		Repository: repo,
		Author:     proto.Author{Username: author},
		Message:    "Issue #1: fix the frobnicator.",
		Revision:   "0123abcd",
		Labels:     []proto.Label{{Name: "main", Type: proto.LabelBranch, Action: proto.ActionModified}},
	}
	replaced := proto.Item{Path: "/core/old.txt", Type: proto.ItemFile, Revision: "0001"}
	items := []proto.Item{
		{
			Path: "/core/index.php", Type: proto.ItemFile, Action: proto.ActionModified,
			SourceItems: []proto.Item{{Path: "/core/index.php", Type: proto.ItemFile, Revision: "0001"}},
		},
		{Path: "/core/new.txt", Type: proto.ItemFile, Action: proto.ActionAdded},
		{
			Path: "/core/old.txt", Type: proto.ItemFile, Action: proto.ActionMoved,
			SourceItems:  []proto.Item{{Path: "/core/moved.txt", Type: proto.ItemFile, Revision: "0001"}},
			ReplacedItem: &replaced,
		},
	}
	return op, items
}

func TestIngest(t *testing.T) {
	is := is.New(t)
	ctx, b, evs := setup(t)

	policy, err := access.NewLabelPolicy([]string{"main", "glob:8.x-*"}, nil)
	is.NoErr(err)
	var checked int
	b.Registry().RegisterAccessCheck("count", access.CheckFunc(func(context.Context, *proto.Operation, []proto.Item) access.Result {
		checked++
		return access.Abstain()
	}))
	b.Registry().RegisterAccessCheck("identity", access.IdentityCheck("vcgate"))
	b.Registry().RegisterAccessCheck("labels", access.LabelCheck(policy))

	r, err := b.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.NoErr(err)
	u, err := b.CreateUser(ctx, "dries", proto.UserOptions{})
	is.NoErr(err)
	_, err = b.CreateAccount(ctx, "drupal", "dbuytaert", proto.AccountOptions{User: "dries"})
	is.NoErr(err)
	evs.reset()

	t.Run("unresolved author", func(t *testing.T) {
		is := is.New(t)
		op, items := commit(r, "stranger")
		dec, err := b.Ingest(ctx, op, items)
		var denied *access.DeniedError
		is.True(errors.As(err, &denied))
		is.True(!dec.Allowed)
		is.Equal(dec.Messages, []string{
			"** ERROR: no vcgate user matches Git user 'stranger'.\n** Please contact a Git administrator for help.",
		})
		is.Equal(op.ID, int64(0))
	})

	t.Run("allowed commit", func(t *testing.T) {
		is := is.New(t)
		op, items := commit(&proto.Repository{Name: "drupal"}, "dbuytaert")
		dec, err := b.Ingest(ctx, op, items)
		is.NoErr(err)
		is.True(dec.Allowed)
		is.True(op.ID > 0)
		is.True(!op.Date.IsZero())
		is.Equal(op.Author.UserID, u.ID)
		is.Equal(op.Directory, "/core")
		is.True(op.Labels[0].ID > 0)

		got, err := b.Operation(ctx, op.ID)
		is.NoErr(err)
		is.Equal(got.Repository.Name, "drupal")
		is.Equal(got.Author, op.Author)
		is.Equal(got.Labels, op.Labels)
		is.Equal(got.Message, op.Message)
		is.True(got.Date.Equal(op.Date))

		gotItems, err := b.OperationItems(ctx, op.ID)
		is.NoErr(err)
		is.Equal(gotItems, items)
	})

	t.Run("forbidden branch", func(t *testing.T) {
		is := is.New(t)
		op := &proto.Operation{
			Type:       proto.OperationBranch,
			Repository: r,
			Author:     proto.Author{Username: "dbuytaert"},
			Labels:     []proto.Label{{Name: "feature", Type: proto.LabelBranch, Action: proto.ActionAdded}},
		}
		dec, err := b.Ingest(ctx, op, nil)
		is.True(err != nil)
		is.Equal(dec.Message(), "** ERROR: the feature branch is not allowed in this repository.")
	})

	t.Run("malformed proposal", func(t *testing.T) {
		is := is.New(t)
		before := checked
		op := &proto.Operation{
			Type:       proto.OperationTag,
			Repository: r,
			Author:     proto.Author{Username: "dbuytaert"},
			Labels: []proto.Label{
				{Name: "8.x-1.0", Type: proto.LabelTag, Action: proto.ActionAdded},
				{Name: "8.x-1.1", Type: proto.LabelTag, Action: proto.ActionAdded},
			},
		}
		_, err := b.AuthorizeOperation(ctx, op, nil)
		is.True(errors.Is(err, proto.ErrInvalidLabelCount))
		is.Equal(checked, before)
	})

	inserts := 0
	for _, e := range evs.get() {
		if e.Scope == notify.ScopeOperation && e.Action == notify.ActionInsert {
			inserts++
			is.True(e.Operation.ID > 0)
		}
	}
	is.Equal(inserts, 1)

	ops, err := b.Operations(ctx, OperationFilter{Repository: "drupal"})
	is.NoErr(err)
	is.Equal(len(ops), 1)
}

func TestRecordOperationPersistenceError(t *testing.T) {
	is := is.New(t)
	ctx, b, evs := setup(t)

	op, items := commit(&proto.Repository{ID: 999, Name: "ghost", VCS: "git"}, "dries")
	_, err := b.RecordOperation(ctx, op, items)
	var perr *PersistenceError
	is.True(errors.As(err, &perr))
	is.Equal(perr.Repository, "ghost")
	is.Equal(op.ID, int64(0))
	is.Equal(len(evs.get()), 0)

	op.ID = 12
	_, err = b.RecordOperation(ctx, op, items)
	is.True(errors.Is(err, proto.ErrMalformedOperation))
}

func TestOperationsAndDelete(t *testing.T) {
	is := is.New(t)
	ctx, b, evs := setup(t)

	r, err := b.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.NoErr(err)

	op1, items := commit(r, "dries")
	_, err = b.RecordOperation(ctx, op1, items)
	is.NoErr(err)

	op2 := &proto.Operation{
		Type:       proto.OperationTag,
		Repository: r,
		Author:     proto.Author{Username: "webchick"},
		Labels:     []proto.Label{{Name: "8.x-1.0", Type: proto.LabelTag, Action: proto.ActionAdded}},
	}
	_, err = b.RecordOperation(ctx, op2, nil)
	is.NoErr(err)

	ops, err := b.Operations(ctx, OperationFilter{Types: []proto.OperationType{proto.OperationTag}})
	is.NoErr(err)
	is.Equal(len(ops), 1)
	is.Equal(ops[0].ID, op2.ID)

	ops, err = b.Operations(ctx, OperationFilter{Label: "main"})
	is.NoErr(err)
	is.Equal(len(ops), 1)
	is.Equal(ops[0].ID, op1.ID)

	ops, err = b.Operations(ctx, OperationFilter{Author: "webchick", Repository: "drupal"})
	is.NoErr(err)
	is.Equal(len(ops), 1)

	_, err = b.Operations(ctx, OperationFilter{Repository: "ghost"})
	is.True(errors.Is(err, proto.ErrRepoNotFound))

	var existed bool
	b.Registry().RegisterNotificationSubscriber("check", notify.SubscriberFunc(func(ctx context.Context, e notify.Event) error {
		if e.Scope == notify.ScopeOperation && e.Action == notify.ActionDelete {
			_, err := b.Operation(ctx, e.Operation.ID)
			existed = err == nil
			is.Equal(len(e.Items), 3)
		}
		return nil
	}))
	evs.reset()
	is.NoErr(b.DeleteOperation(ctx, op1.ID))
	is.True(existed)
	_, err = b.Operation(ctx, op1.ID)
	is.True(errors.Is(err, proto.ErrOperationNotFound))
	_, err = b.OperationItems(ctx, op1.ID)
	is.True(errors.Is(err, proto.ErrOperationNotFound))
	is.True(errors.Is(b.DeleteOperation(ctx, op1.ID), proto.ErrOperationNotFound))
	is.Equal(len(evs.get()), 1)
}

func TestResolveAuthors(t *testing.T) {
	is := is.New(t)
	ctx, b, _ := setup(t)

	r, err := b.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.NoErr(err)
	op, items := commit(r, "dbuytaert")
	_, err = b.RecordOperation(ctx, op, items)
	is.NoErr(err)
	is.True(!op.Author.Resolved())

	u, err := b.CreateUser(ctx, "dries", proto.UserOptions{})
	is.NoErr(err)
	_, err = b.CreateAccount(ctx, "drupal", "dbuytaert", proto.AccountOptions{User: "dries"})
	is.NoErr(err)

	n, err := b.ResolveAuthors(ctx)
	is.NoErr(err)
	is.Equal(n, int64(1))

	got, err := b.Operation(ctx, op.ID)
	is.NoErr(err)
	is.Equal(got.Author.UserID, u.ID)
}

func TestContext(t *testing.T) {
	is := is.New(t)
	_, b, _ := setup(t)
	is.True(FromContext(context.TODO()) == nil)
	is.Equal(FromContext(WithContext(context.TODO(), b)), b)
}

func TestGenerateSecret(t *testing.T) {
	is := is.New(t)
	a, c := GenerateSecret(), GenerateSecret()
	is.True(a != "")
	is.True(a != c)
}
