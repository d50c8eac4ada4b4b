package plugins

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/extension"
)

func initIdentity(ctx context.Context, r *extension.Registry) error {
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}

	if !cfg.Access.RequireIdentity {
		log.FromContext(ctx).WithPrefix("plugins").Debug("identity check disabled")
		return nil
	}

	r.RegisterAccessCheck("identity", access.IdentityCheck(cfg.Access.UserRegistry))
	return nil
}
