package jobs

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
)

type resolveAuthors struct{}

var _ Runner = resolveAuthors{}

// Spec implements Runner.
func (resolveAuthors) Spec(ctx context.Context) string {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return ""
	}
	return cfg.Jobs.ResolveAuthors
}

// Func implements Runner.
func (resolveAuthors) Func(ctx context.Context) func() {
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("jobs.resolve")
	return func() {
		if be == nil {
			return
		}

		n, err := be.ResolveAuthors(ctx)
		if err != nil {
			logger.Error("error resolving operation authors", "err", err)
			return
		}
		if n > 0 {
			logger.Info("resolved operation authors", "count", n)
		}
	}
}
