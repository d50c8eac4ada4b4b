package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/jobs"
	"github.com/vcgate/vcgate/pkg/store/database"
	"github.com/vcgate/vcgate/pkg/test"
)

func setup(t *testing.T) (context.Context, *config.Config) {
	t.Helper()
	is := is.New(t)
	ctx := log.WithContext(context.Background(), log.New(io.Discard))

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.HTTP.ListenAddr = fmt.Sprintf("localhost:%d", test.RandomPort())
	cfg.Stats.ListenAddr = fmt.Sprintf("localhost:%d", test.RandomPort())
	is.NoErr(cfg.Validate())
	ctx = config.WithContext(ctx, cfg)

	dbx := test.OpenDB(ctx, t)
	st := database.New(ctx, dbx)
	reg := extension.NewRegistry()
	be := backend.New(ctx, cfg, dbx, st, reg)
	ctx = db.WithContext(ctx, dbx)
	ctx = backend.WithContext(ctx, be)

	return ctx, cfg
}

func waitFor(t *testing.T, url string) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		res, err := http.Get(url) //nolint:noctx
		if err == nil {
			res.Body.Close() // nolint: errcheck
			return res.StatusCode
		}
		if time.Now().After(deadline) {
			t.Fatalf("server at %s did not come up: %v", url, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestServer(t *testing.T) {
	is := is.New(t)
	ctx, cfg := setup(t)

	s, err := NewServer(ctx)
	is.NoErr(err)

	is.Equal(len(s.Cron.Entries()), len(jobs.List()))

	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()

	is.Equal(waitFor(t, "http://"+cfg.HTTP.ListenAddr+"/livez"), http.StatusOK)
	is.Equal(waitFor(t, "http://"+cfg.HTTP.ListenAddr+"/readyz"), http.StatusOK)
	is.Equal(waitFor(t, "http://"+cfg.Stats.ListenAddr+"/metrics"), http.StatusOK)

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	is.NoErr(s.Shutdown(sctx))
	is.NoErr(<-errc)
}

func TestServerDisabledJob(t *testing.T) {
	is := is.New(t)
	ctx, cfg := setup(t)
	cfg.Jobs.PruneDeliveries = ""

	s, err := NewServer(ctx)
	is.NoErr(err)
	is.Equal(len(s.Cron.Entries()), len(jobs.List())-1)
	is.NoErr(s.Close())
}

func TestNewServerNoConfig(t *testing.T) {
	is := is.New(t)
	_, err := NewServer(context.Background())
	is.Equal(err, config.ErrNilConfig)
}
