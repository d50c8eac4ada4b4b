package proto

import "time"

// Account binds a VCS username in a repository to a registry user.
type Account struct {
	ID     int64 `json:"id" yaml:"id"`
	RepoID int64 `json:"repo_id" yaml:"repo_id"`
	// UserID is zero when the account isn't bound to a user.
	UserID    int64     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Username  string    `json:"username" yaml:"username"`
	Data      ExtraData `json:"data,omitempty" yaml:"data,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// AccountOptions are options for creating or updating an account.
type AccountOptions struct {
	// User is the registry username to bind the account to. Empty leaves
	// the binding unchanged on update.
	User string
	// Unbind removes the user binding on update.
	Unbind bool
	// Fields are raw submitted fields handed to the extra data extractors.
	Fields map[string]string
}
