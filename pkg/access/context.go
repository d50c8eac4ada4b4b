package access

import "context"

// ContextKey is the context key for the message translator.
var ContextKey = &struct{ string }{"translator"}

// FromContext returns the translator from the context. It returns the
// DefaultTranslator when there is none.
func FromContext(ctx context.Context) Translator {
	if t, ok := ctx.Value(ContextKey).(Translator); ok {
		return t
	}

	return DefaultTranslator
}

// WithContext returns a new context with the translator.
func WithContext(ctx context.Context, t Translator) context.Context {
	return context.WithValue(ctx, ContextKey, t)
}
