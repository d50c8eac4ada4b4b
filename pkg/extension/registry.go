// Package extension is the registration surface of vcgate plugins.
package extension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
)

var (
	// ErrMethodExists is returned when an authorization method is
	// registered twice.
	ErrMethodExists = errors.New("authorization method already registered")
	// ErrUnknownMethod is returned for an authorization method nobody
	// registered.
	ErrUnknownMethod = errors.New("unknown authorization method")
	// ErrNamespaceConflict is returned when two extractors claim the same
	// namespace in a scope.
	ErrNamespaceConflict = errors.New("extra data namespace already registered")
	// ErrInvalidScope is returned for a scope that doesn't support the
	// registration.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrInvalidDecorator is returned when a decorator doesn't match its
	// scope.
	ErrInvalidDecorator = errors.New("invalid list decorator")
	// ErrInvalidData is returned when an extractor rejects submitted
	// fields.
	ErrInvalidData = errors.New("invalid extra data")
)

// Scope selects repositories or accounts.
type Scope int

const (
	// ScopeRepository is the repository scope.
	ScopeRepository Scope = iota + 1
	// ScopeAccount is the account scope.
	ScopeAccount
)

// String returns the string representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeRepository:
		return "repository"
	case ScopeAccount:
		return "account"
	default:
		return "unknown"
	}
}

// AuthorizationMethod tells how users may get accounts in a repository.
type AuthorizationMethod struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Extractor turns submitted fields into the value of its namespace. It
// returns false when the fields don't concern it.
type Extractor interface {
	Extract(fields map[string]string) (any, bool, error)
}

// ExtractorFunc is an adapter to allow the use of ordinary functions as
// extractors.
type ExtractorFunc func(fields map[string]string) (any, bool, error)

// Extract calls f(fields).
func (f ExtractorFunc) Extract(fields map[string]string) (any, bool, error) {
	return f(fields)
}

// Decorator may filter a listing or add columns to it.
type Decorator[T any] func(ctx context.Context, l *Listing[T], opts ListOptions) error

// RepositoryDecorator decorates repository listings.
type RepositoryDecorator = Decorator[*proto.Repository]

// AccountDecorator decorates account listings.
type AccountDecorator = Decorator[*proto.Account]

// AccountAuthorizer tells whether an account may commit to a repository
// using its authorization method. The account is nil when the author has
// none.
type AccountAuthorizer interface {
	IsAccountAuthorized(ctx context.Context, repo *proto.Repository, acc *proto.Account) (bool, error)
}

// AccountAuthorizerFunc is an adapter to allow the use of ordinary
// functions as account authorizers.
type AccountAuthorizerFunc func(ctx context.Context, repo *proto.Repository, acc *proto.Account) (bool, error)

// IsAccountAuthorized calls f(ctx, repo, acc).
func (f AccountAuthorizerFunc) IsAccountAuthorized(ctx context.Context, repo *proto.Repository, acc *proto.Account) (bool, error) {
	return f(ctx, repo, acc)
}

type namedExtractor struct {
	namespace string
	extractor Extractor
}

// Registry collects everything plugins register.
type Registry struct {
	arbiter  *access.Arbiter
	notifier *notify.Notifier

	mu          sync.RWMutex
	methods     []AuthorizationMethod
	authorizers map[string]AccountAuthorizer
	extractors  map[Scope][]namedExtractor
	repoDecs    []RepositoryDecorator
	accountDecs []AccountDecorator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		arbiter:     access.NewArbiter(),
		notifier:    notify.NewNotifier(),
		authorizers: map[string]AccountAuthorizer{},
		extractors:  map[Scope][]namedExtractor{},
	}
}

// Arbiter returns the access arbiter.
func (r *Registry) Arbiter() *access.Arbiter {
	return r.arbiter
}

// Notifier returns the change notifier.
func (r *Registry) Notifier() *notify.Notifier {
	return r.notifier
}

// RegisterAccessCheck adds an access check to the arbiter.
func (r *Registry) RegisterAccessCheck(name string, c access.Check) {
	r.arbiter.Register(name, c)
}

// RegisterNotificationSubscriber adds a subscriber to the notifier.
func (r *Registry) RegisterNotificationSubscriber(name string, s notify.Subscriber) {
	r.notifier.Subscribe(name, s)
}

// RegisterAuthorizationMethod adds an authorization method.
func (r *Registry) RegisterAuthorizationMethod(id, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods {
		if m.ID == id {
			return fmt.Errorf("%w: %q", ErrMethodExists, id)
		}
	}
	r.methods = append(r.methods, AuthorizationMethod{ID: id, Description: description})
	return nil
}

// AuthorizationMethods returns the authorization methods in registration
// order.
func (r *Registry) AuthorizationMethods() []AuthorizationMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms := make([]AuthorizationMethod, len(r.methods))
	copy(ms, r.methods)
	return ms
}

// HasAuthorizationMethod reports whether the method is registered.
func (r *Registry) HasAuthorizationMethod(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.methods {
		if m.ID == id {
			return true
		}
	}
	return false
}

// RegisterAccountAuthorizer sets the authorizer of a registered method.
func (r *Registry) RegisterAccountAuthorizer(method string, a AccountAuthorizer) error {
	if !r.HasAuthorizationMethod(method) {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorizers[method] = a
	return nil
}

// IsAccountAuthorized asks the authorizer of the repository method. When
// the method has no authorizer, any existing account is authorized.
func (r *Registry) IsAccountAuthorized(ctx context.Context, repo *proto.Repository, acc *proto.Account) (bool, error) {
	r.mu.RLock()
	a, ok := r.authorizers[repo.AuthorizationMethod]
	r.mu.RUnlock()
	if !ok {
		return acc != nil, nil
	}
	return a.IsAccountAuthorized(ctx, repo, acc)
}

// RegisterExtraDataExtractor adds an extractor owning namespace in scope.
func (r *Registry) RegisterExtraDataExtractor(scope Scope, namespace string, e Extractor) error {
	if scope != ScopeRepository && scope != ScopeAccount {
		return fmt.Errorf("%w: %d", ErrInvalidScope, scope)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.extractors[scope] {
		if x.namespace == namespace {
			return fmt.Errorf("%w: %s %q", ErrNamespaceConflict, scope, namespace)
		}
	}
	r.extractors[scope] = append(r.extractors[scope], namedExtractor{namespace: namespace, extractor: e})
	return nil
}

// ExtractRepositoryData runs the repository extractors over fields and
// stores their values in data.
func (r *Registry) ExtractRepositoryData(fields map[string]string, data proto.ExtraData) error {
	return r.extract(ScopeRepository, fields, data)
}

// ExtractAccountData runs the account extractors over fields and stores
// their values in data.
func (r *Registry) ExtractAccountData(fields map[string]string, data proto.ExtraData) error {
	return r.extract(ScopeAccount, fields, data)
}

func (r *Registry) extract(scope Scope, fields map[string]string, data proto.ExtraData) error {
	if len(fields) == 0 {
		return nil
	}
	r.mu.RLock()
	xs := make([]namedExtractor, len(r.extractors[scope]))
	copy(xs, r.extractors[scope])
	r.mu.RUnlock()

	for _, x := range xs {
		v, ok, err := x.extractor.Extract(fields)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrInvalidData, scope, x.namespace, err)
		}
		if !ok {
			continue
		}
		if err := data.Set(x.namespace, v); err != nil {
			return err
		}
	}
	return nil
}

// RegisterListDecorator adds a RepositoryDecorator or an AccountDecorator
// to scope.
func (r *Registry) RegisterListDecorator(scope Scope, d any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch scope {
	case ScopeRepository:
		dec, ok := asDecorator[*proto.Repository](d)
		if !ok {
			return fmt.Errorf("%w: %T for %s", ErrInvalidDecorator, d, scope)
		}
		r.repoDecs = append(r.repoDecs, dec)
	case ScopeAccount:
		dec, ok := asDecorator[*proto.Account](d)
		if !ok {
			return fmt.Errorf("%w: %T for %s", ErrInvalidDecorator, d, scope)
		}
		r.accountDecs = append(r.accountDecs, dec)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidScope, scope)
	}
	return nil
}

func asDecorator[T any](d any) (Decorator[T], bool) {
	switch dec := d.(type) {
	case Decorator[T]:
		return dec, dec != nil
	case func(context.Context, *Listing[T], ListOptions) error:
		return dec, dec != nil
	}
	return nil, false
}

// DecorateRepositories runs the repository decorators over repos.
func (r *Registry) DecorateRepositories(ctx context.Context, repos []*proto.Repository, opts ListOptions) (*Listing[*proto.Repository], error) {
	r.mu.RLock()
	decs := append([]RepositoryDecorator(nil), r.repoDecs...)
	r.mu.RUnlock()
	return decorate(ctx, repos, opts, decs)
}

// DecorateAccounts runs the account decorators over accounts.
func (r *Registry) DecorateAccounts(ctx context.Context, accounts []*proto.Account, opts ListOptions) (*Listing[*proto.Account], error) {
	r.mu.RLock()
	decs := append([]AccountDecorator(nil), r.accountDecs...)
	r.mu.RUnlock()
	return decorate(ctx, accounts, opts, decs)
}

func decorate[T any](ctx context.Context, items []T, opts ListOptions, decs []Decorator[T]) (*Listing[T], error) {
	l := NewListing(items)
	for _, d := range decs {
		if err := d(ctx, l, opts); err != nil {
			return nil, err
		}
	}
	return l, nil
}
