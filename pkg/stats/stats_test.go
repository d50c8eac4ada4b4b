package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vcgate/vcgate/pkg/config"
)

func TestNewStatsServer(t *testing.T) {
	if _, err := NewStatsServer(context.TODO()); !errors.Is(err, config.ErrNilConfig) {
		t.Errorf("NewStatsServer() => %v, want %v", err, config.ErrNilConfig)
	}

	cfg := config.DefaultConfig()
	s, err := NewStatsServer(config.WithContext(context.TODO(), cfg))
	if err != nil {
		t.Fatal(err)
	}
	if s.server.Addr != cfg.Stats.ListenAddr {
		t.Errorf("Addr => %q, want %q", s.server.Addr, cfg.Stats.ListenAddr)
	}
}

func TestHandler(t *testing.T) {
	promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcgate_stats_test_total",
		Help: "Counter exposed by the stats handler test.",
	}).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics => %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "vcgate_stats_test_total 1") {
		t.Errorf("metrics output is missing the test counter")
	}
}
