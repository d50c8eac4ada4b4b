package store

// Store is an interface for managing users, repositories, accounts,
// operations and webhooks.
type Store interface {
	UserStore
	RepositoryStore
	AccountStore
	OperationStore
	WebhookStore
}
