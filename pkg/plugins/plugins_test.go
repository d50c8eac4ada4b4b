package plugins

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/store/database"
	"github.com/vcgate/vcgate/pkg/test"
)

func setup(t *testing.T, cfg *config.Config, plugins ...string) (context.Context, *backend.Backend) {
	t.Helper()
	ctx := context.TODO()
	dbx := test.OpenDB(ctx, t)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	be := backend.New(ctx, cfg, dbx, database.New(ctx, dbx), nil)
	ctx = config.WithContext(ctx, cfg)
	ctx = backend.WithContext(ctx, be)
	if err := extension.Load(ctx, be.Registry(), plugins); err != nil {
		t.Fatal(err)
	}
	return ctx, be
}

func branchOp(repo, author, branch string) *proto.Operation {
	return &proto.Operation{
		Type:       proto.OperationBranch,
		Repository: &proto.Repository{Name: repo},
		Author:     proto.Author{Username: author},
		Labels:     []proto.Label{{Name: branch, Type: proto.LabelBranch, Action: proto.ActionAdded}},
	}
}

func TestCatalog(t *testing.T) {
	is := is.New(t)
	names := extension.Plugins()
	for _, p := range config.DefaultPlugins {
		found := false
		for _, n := range names {
			found = found || n == p
		}
		is.True(found) // default plugin is registered
	}
}

func TestDefaultPlugins(t *testing.T) {
	is := is.New(t)
	_, be := setup(t, nil, config.DefaultPlugins...)
	is.Equal(be.Registry().Arbiter().Checks(), []string{"identity", "labels", "authorization"})
	is.Equal(be.Registry().Notifier().Subscribers(), []string{"audit", "metrics", "webhook"})

	var ids []string
	for _, m := range be.Registry().AuthorizationMethods() {
		ids = append(ids, m.ID)
	}
	is.Equal(ids, []string{FFAMethod, ApprovalMethod})
}

func TestMissingContext(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	reg := extension.NewRegistry()
	is.True(errors.Is(extension.Load(ctx, reg, []string{"identity"}), config.ErrNilConfig))
	ctx = config.WithContext(ctx, config.DefaultConfig())
	is.True(errors.Is(extension.Load(ctx, reg, []string{"approval"}), ErrMissingBackend))
}

func TestIdentityDisabled(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Access.RequireIdentity = false
	_, be := setup(t, cfg, "identity")
	is.Equal(len(be.Registry().Arbiter().Checks()), 0)
}

func TestLabels(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Access.Branches = []string{"glob:[0-9].x"}
	ctx, be := setup(t, cfg, "ffa", "labels")

	_, err := be.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.NoErr(err)
	_, err = be.CreateRepository(ctx, "views", proto.RepositoryOptions{Fields: map[string]string{"branches": "main, glob:feature/*"}})
	is.NoErr(err)
	_, err = be.CreateRepository(ctx, "panels", proto.RepositoryOptions{Fields: map[string]string{"branches": "("}})
	is.True(err != nil)

	for _, tc := range []struct {
		repo, branch string
		allowed      bool
	}{
		{"drupal", "7.x", true},
		{"drupal", "main", false},
		{"views", "main", true},
		{"views", "feature/x", true},
		{"views", "7.x", false},
	} {
		dec, err := be.AuthorizeOperation(ctx, branchOp(tc.repo, "dries", tc.branch), nil)
		is.NoErr(err)
		is.Equal(dec.Allowed, tc.allowed)
		if !tc.allowed {
			is.Equal(dec.Message(), "** ERROR: the "+tc.branch+" branch is not allowed in this repository.")
		}
	}
}

func TestApproval(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Access.RequireIdentity = false
	ctx, be := setup(t, cfg, "ffa", "approval")

	_, err := be.CreateRepository(ctx, "open", proto.RepositoryOptions{})
	is.NoErr(err)
	_, err = be.CreateRepository(ctx, "strict", proto.RepositoryOptions{AuthorizationMethod: ApprovalMethod})
	is.NoErr(err)

	_, err = be.CreateAccount(ctx, "strict", "dries", proto.AccountOptions{Fields: map[string]string{"approved": "yes"}})
	is.NoErr(err)
	_, err = be.CreateAccount(ctx, "strict", "webchick", proto.AccountOptions{})
	is.NoErr(err)
	_, err = be.CreateAccount(ctx, "strict", "chx", proto.AccountOptions{Fields: map[string]string{"approved": "maybe"}})
	is.True(errors.Is(err, ErrInvalidFlag))

	for _, tc := range []struct {
		repo, author string
		allowed      bool
	}{
		{"open", "anyone", true},
		{"strict", "dries", true},
		{"strict", "webchick", false},
		{"strict", "nobody", false},
	} {
		dec, err := be.AuthorizeOperation(ctx, branchOp(tc.repo, tc.author, "main"), nil)
		is.NoErr(err)
		is.Equal(dec.Allowed, tc.allowed)
		if !tc.allowed {
			is.Equal(dec.Message(), "** ERROR: the Git account '"+tc.author+"' is not authorized to commit to strict.")
		}
	}

	l, err := be.Accounts(ctx, "strict", extension.ListOptions{})
	is.NoErr(err)
	is.Equal(l.Columns, []string{"Approved"})
	cells := map[string]string{}
	for _, r := range l.Rows {
		cells[r.Item.Username] = r.Cells["Approved"]
	}
	is.Equal(cells, map[string]string{"dries": "yes", "webchick": "no"})

	l, err = be.Accounts(ctx, "strict", extension.ListOptions{Filters: map[string]string{"approved": "no"}})
	is.NoErr(err)
	is.Equal(len(l.Rows), 1)
	is.Equal(l.Rows[0].Item.Username, "webchick")

	_, err = be.Accounts(ctx, "strict", extension.ListOptions{Filters: map[string]string{"approved": "sometimes"}})
	is.True(errors.Is(err, ErrInvalidFlag))

	_, err = be.UpdateAccount(ctx, "strict", "webchick", proto.AccountOptions{Fields: map[string]string{"approved": "yes"}})
	is.NoErr(err)
	dec, err := be.AuthorizeOperation(ctx, branchOp("strict", "webchick", "main"), nil)
	is.NoErr(err)
	is.True(dec.Allowed)
}

func TestMetrics(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Access.RequireIdentity = false
	ctx, be := setup(t, cfg, "ffa", "metrics")

	r, err := be.CreateRepository(ctx, "drupal", proto.RepositoryOptions{VCS: "svn"})
	is.NoErr(err)

	before := testutil.ToFloat64(operationCounter.WithLabelValues("svn", "commit"))
	items := []proto.Item{{Path: "/trunk/a.txt", Type: proto.ItemFile, Action: proto.ActionAdded}}
	_, err = be.RecordOperation(ctx, &proto.Operation{
		Type:       proto.OperationCommit,
		Repository: r,
		Author:     proto.Author{Username: "dries"},
		Revision:   "12",
	}, items)
	is.NoErr(err)
	is.Equal(testutil.ToFloat64(operationCounter.WithLabelValues("svn", "commit")), before+1)
}

func TestAudit(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	sub := auditEvent(log.New(&buf))
	is.NoErr(sub.Notify(context.TODO(), notify.RepositoryEvent(notify.ActionInsert, &proto.Repository{Name: "drupal"})))
	is.True(strings.Contains(buf.String(), "change"))
	is.True(strings.Contains(buf.String(), "scope=repository"))
	is.True(strings.Contains(buf.String(), "repo=drupal"))
}

func TestWebhookPlugin(t *testing.T) {
	is := is.New(t)
	ctx, be := setup(t, nil, "ffa", "webhook")
	is.Equal(be.Registry().Notifier().Subscribers(), []string{"webhook"})

	r, err := be.CreateRepository(ctx, "drupal", proto.RepositoryOptions{})
	is.NoErr(err)

	// The subscriber supplies the configuration the caller context lacks.
	err = be.Registry().Notifier().Publish(context.TODO(), notify.RepositoryEvent(notify.ActionUpdate, r))
	is.NoErr(err)
}
