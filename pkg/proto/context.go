package proto

import "context"

// RepositoryContextKey is the context key for the repository.
var RepositoryContextKey = &struct{ string }{"repository"}

// UserContextKey is the context key for the user.
var UserContextKey = &struct{ string }{"user"}

// RepositoryFromContext returns the repository from the context.
func RepositoryFromContext(ctx context.Context) *Repository {
	if r, ok := ctx.Value(RepositoryContextKey).(*Repository); ok {
		return r
	}
	return nil
}

// WithRepositoryContext returns a new context with the repository.
func WithRepositoryContext(ctx context.Context, r *Repository) context.Context {
	return context.WithValue(ctx, RepositoryContextKey, r)
}

// UserFromContext returns the user from the context.
func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(UserContextKey).(*User); ok {
		return u
	}
	return nil
}

// WithUserContext returns a new context with the user.
func WithUserContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}
