package proto

import "time"

// Repository is a version-controlled repository known to vcgate.
type Repository struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// VCS is the backend kind, such as "git".
	VCS string `json:"vcs" yaml:"vcs"`
	// Root is the backend-specific location of the repository.
	Root                string    `json:"root" yaml:"root"`
	AuthorizationMethod string    `json:"authorization_method" yaml:"authorization_method"`
	Data                ExtraData `json:"data,omitempty" yaml:"data,omitempty"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" yaml:"updated_at"`
}

// RepositoryOptions are options for creating or updating a repository.
// Empty values are left unchanged on update.
type RepositoryOptions struct {
	VCS                 string
	Root                string
	AuthorizationMethod string
	// Fields are raw submitted fields handed to the extra data extractors.
	Fields map[string]string
}
