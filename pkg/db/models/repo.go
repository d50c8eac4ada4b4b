package models

import (
	"time"
)

// Repo is a database model for a repository.
type Repo struct {
	ID                  int64     `db:"id"`
	Name                string    `db:"name"`
	VCS                 string    `db:"vcs"`
	Root                string    `db:"root"`
	AuthorizationMethod string    `db:"authorization_method"`
	Data                string    `db:"data"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}
