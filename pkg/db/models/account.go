package models

import (
	"database/sql"
	"time"
)

// Account is a database model binding a VCS username of a repository to a
// user.
type Account struct {
	ID        int64         `db:"id"`
	RepoID    int64         `db:"repo_id"`
	UserID    sql.NullInt64 `db:"user_id"`
	Username  string        `db:"username"`
	Data      string        `db:"data"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
