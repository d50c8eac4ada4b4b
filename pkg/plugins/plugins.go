// Package plugins provides the built-in vcgate plugins. Importing it adds
// them to the extension catalog; the configured ones are loaded with
// extension.Load.
package plugins

import (
	"context"
	"errors"

	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/extension"
)

// ErrMissingBackend is returned when a plugin needing the backend is
// initialized without one in the context.
var ErrMissingBackend = errors.New("missing backend in context")

func init() {
	extension.Register("identity", extension.PluginFunc(initIdentity))
	extension.Register("labels", extension.PluginFunc(initLabels))
	extension.Register("ffa", extension.PluginFunc(initFFA))
	extension.Register("approval", extension.PluginFunc(initApproval))
	extension.Register("webhook", extension.PluginFunc(initWebhook))
	extension.Register("metrics", extension.PluginFunc(initMetrics))
	extension.Register("audit", extension.PluginFunc(initAudit))
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, config.ErrNilConfig
	}
	return cfg, nil
}

func backendFrom(ctx context.Context) (*backend.Backend, error) {
	be := backend.FromContext(ctx)
	if be == nil {
		return nil, ErrMissingBackend
	}
	return be, nil
}

// parseYesNo parses the values list filters and submitted fields use for
// flags.
func parseYesNo(s string) (bool, error) {
	switch s {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}
	return false, ErrInvalidFlag
}

// ErrInvalidFlag is returned for a flag value other than yes or no.
var ErrInvalidFlag = errors.New("invalid flag, expected yes or no")

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
