package jobs

import (
	"context"

	"github.com/caarlos0/duration"
	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
)

type pruneDeliveries struct{}

var _ Runner = pruneDeliveries{}

// Spec implements Runner.
func (pruneDeliveries) Spec(ctx context.Context) string {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return ""
	}
	return cfg.Jobs.PruneDeliveries
}

// Func implements Runner.
func (pruneDeliveries) Func(ctx context.Context) func() {
	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("jobs.prune")
	return func() {
		if cfg == nil || be == nil || cfg.Webhook.Retention == "" {
			return
		}

		retention, err := duration.Parse(cfg.Webhook.Retention)
		if err != nil {
			logger.Error("invalid retention", "retention", cfg.Webhook.Retention, "err", err)
			return
		}

		n, err := be.PruneWebhookDeliveries(ctx, retention)
		if err != nil {
			logger.Error("error pruning webhook deliveries", "err", err)
			return
		}
		if n > 0 {
			logger.Info("pruned webhook deliveries", "count", n, "retention", retention)
		}
	}
}
