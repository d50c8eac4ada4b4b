package store

import (
	"context"
	"time"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
)

// OperationFilter selects recorded operations. Zero fields match
// everything.
type OperationFilter struct {
	RepoID int64
	// Types restricts the operation types.
	Types  []int
	Author string
	// Label restricts to operations touching a label with this name.
	Label  string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// OperationStore is an interface for managing recorded operations.
type OperationStore interface {
	CreateOperation(ctx context.Context, h db.Handler, op models.Operation) (int64, error)
	GetOperationByID(ctx context.Context, h db.Handler, id int64) (models.Operation, error)
	// GetOperations returns the operations matching filter, newest first.
	GetOperations(ctx context.Context, h db.Handler, filter OperationFilter) ([]models.Operation, error)
	DeleteOperationByID(ctx context.Context, h db.Handler, id int64) error

	// GetOrCreateLabel returns the id of a repository label, creating it
	// when needed.
	GetOrCreateLabel(ctx context.Context, h db.Handler, repoID int64, name string, typ int) (int64, error)
	CreateOperationLabel(ctx context.Context, h db.Handler, operationID int64, labelID int64, action int, position int) error
	// GetOperationLabels returns the labels of an operation in position
	// order.
	GetOperationLabels(ctx context.Context, h db.Handler, operationID int64) ([]models.OperationLabel, error)

	CreateOperationItem(ctx context.Context, h db.Handler, item models.OperationItem) (int64, error)
	// GetOperationItems returns every item row of an operation, source
	// and replaced items included, in insertion order.
	GetOperationItems(ctx context.Context, h db.Handler, operationID int64) ([]models.OperationItem, error)

	// ResolveOperationAuthors links operations of unresolved authors to the
	// user their account is bound to, and returns how many were linked.
	ResolveOperationAuthors(ctx context.Context, h db.Handler) (int64, error)
}
