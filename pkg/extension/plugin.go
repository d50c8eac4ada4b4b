package extension

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrUnknownPlugin is returned when loading a plugin that isn't registered.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Plugin registers its checks, subscribers and extensions.
type Plugin interface {
	Init(ctx context.Context, r *Registry) error
}

// PluginFunc is an adapter to allow the use of ordinary functions as
// plugins.
type PluginFunc func(ctx context.Context, r *Registry) error

// Init calls f(ctx, r).
func (f PluginFunc) Init(ctx context.Context, r *Registry) error {
	return f(ctx, r)
}

var (
	pluginsMu sync.RWMutex
	plugins   = map[string]Plugin{}
)

// Register adds a plugin to the catalog. Plugins usually call it from
// init.
func Register(name string, p Plugin) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()
	plugins[name] = p
}

// Plugins returns the catalog plugin names, sorted.
func Plugins() []string {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	names := make([]string, 0, len(plugins))
	for n := range plugins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load initializes the named plugins in order.
func Load(ctx context.Context, r *Registry, names []string) error {
	logger := log.FromContext(ctx).WithPrefix("extension")
	for _, name := range names {
		pluginsMu.RLock()
		p, ok := plugins[name]
		pluginsMu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
		}
		if err := p.Init(ctx, r); err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}
		logger.Debug("loaded plugin", "plugin", name)
	}
	return nil
}
