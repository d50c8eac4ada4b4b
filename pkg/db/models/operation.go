package models

import (
	"database/sql"
	"time"
)

// Operation is a database model for a recorded commit, branch or tag
// operation.
type Operation struct {
	ID        int64         `db:"id"`
	RepoID    int64         `db:"repo_id"`
	Type      int           `db:"type"`
	Date      time.Time     `db:"date"`
	AuthorID  sql.NullInt64 `db:"author_id"`
	Author    string        `db:"author"`
	Committer string        `db:"committer"`
	Message   string        `db:"message"`
	Revision  string        `db:"revision"`
	Directory string        `db:"directory"`
	CreatedAt time.Time     `db:"created_at"`
}

// OperationLabel is a label as seen by one operation.
type OperationLabel struct {
	OperationID int64  `db:"operation_id"`
	LabelID     int64  `db:"label_id"`
	Name        string `db:"name"`
	Type        int    `db:"type"`
	Action      int    `db:"action"`
	Position    int    `db:"position"`
}

// Item roles within operation_items.
const (
	// ItemRoleItem is an item touched by the operation.
	ItemRoleItem = 0
	// ItemRoleSource is a prior state of its parent item.
	ItemRoleSource = 1
	// ItemRoleReplaced is an unrelated item replaced by its parent item.
	ItemRoleReplaced = 2
)

// OperationItem is a database model for an operation item, one of its
// source items or its replaced item.
type OperationItem struct {
	ID           int64         `db:"id"`
	OperationID  int64         `db:"operation_id"`
	ParentID     sql.NullInt64 `db:"parent_id"`
	Role         int           `db:"role"`
	Position     int           `db:"position"`
	Path         string        `db:"path"`
	Type         int           `db:"type"`
	Revision     string        `db:"revision"`
	Action       int           `db:"action"`
	SourceBranch string        `db:"source_branch"`
	Modified     bool          `db:"modified"`
}
