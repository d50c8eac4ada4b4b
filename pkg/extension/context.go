package extension

import "context"

// ContextKey is the context key for the registry.
var ContextKey = &struct{ string }{"extension"}

// FromContext returns the registry from the context.
func FromContext(ctx context.Context) *Registry {
	if r, ok := ctx.Value(ContextKey).(*Registry); ok {
		return r
	}

	return nil
}

// WithContext returns a new context with the registry.
func WithContext(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, ContextKey, r)
}
