package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/store"
)

// PersistenceError is returned when an operation could not be recorded.
// Nothing is broadcast for such an operation.
type PersistenceError struct {
	Repository string
	Err        error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("record operation in %q: %v", e.Repository, e.Err)
}

// Unwrap returns the underlying database error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// OperationFilter selects recorded operations. Zero fields match
// everything.
type OperationFilter struct {
	Repository string
	Types      []proto.OperationType
	Author     string
	Label      string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// RecordOperation records an allowed proposal with its labels and items
// in a single transaction, assigns its ID and date, and broadcasts it once
// the transaction is committed.
func (d *Backend) RecordOperation(ctx context.Context, op *proto.Operation, items []proto.Item) (int64, error) {
	if op != nil && !op.IsProposal() {
		return 0, fmt.Errorf("%w: operation %d is already recorded", proto.ErrMalformedOperation, op.ID)
	}
	if err := d.prepare(ctx, op, items); err != nil {
		return 0, err
	}

	date := op.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = date.UTC().Truncate(time.Second)

	var (
		id       int64
		labelIDs = make([]int64, len(op.Labels))
	)
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		id, err = d.store.CreateOperation(ctx, tx, models.Operation{
			RepoID:    op.Repository.ID,
			Type:      int(op.Type),
			Date:      date,
			AuthorID:  sql.NullInt64{Int64: op.Author.UserID, Valid: op.Author.Resolved()},
			Author:    op.Author.Username,
			Committer: op.Committer,
			Message:   op.Message,
			Revision:  op.Revision,
			Directory: op.Directory,
		})
		if err != nil {
			return err
		}

		for i, l := range op.Labels {
			labelIDs[i], err = d.store.GetOrCreateLabel(ctx, tx, op.Repository.ID, l.Name, int(l.Type))
			if err != nil {
				return err
			}
			if err := d.store.CreateOperationLabel(ctx, tx, id, labelIDs[i], int(l.Action), i); err != nil {
				return err
			}
		}

		for i, it := range items {
			if err := d.storeItem(ctx, tx, id, 0, models.ItemRoleItem, i, it); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		d.logger.Error("failed to record operation", "repo", op.Repository.Name, "err", err)
		return 0, &PersistenceError{Repository: op.Repository.Name, Err: db.WrapError(err)}
	}

	op.ID = id
	op.Date = date
	for i := range op.Labels {
		op.Labels[i].ID = labelIDs[i]
	}

	d.logger.Info("operation recorded", "id", id, "repo", op.Repository.Name, "type", op.Type, "author", op.Author.Username)
	d.publish(ctx, notify.OperationEvent(notify.ActionInsert, op, items))

	return id, nil
}

func (d *Backend) storeItem(ctx context.Context, h db.Handler, opID int64, parentID int64, role int, pos int, it proto.Item) error {
	id, err := d.store.CreateOperationItem(ctx, h, models.OperationItem{
		OperationID:  opID,
		ParentID:     sql.NullInt64{Int64: parentID, Valid: parentID > 0},
		Role:         role,
		Position:     pos,
		Path:         it.Path,
		Type:         int(it.Type),
		Revision:     it.Revision,
		Action:       int(it.Action),
		SourceBranch: it.SourceBranch,
		Modified:     it.Modified,
	})
	if err != nil {
		return err
	}

	for i, src := range it.SourceItems {
		if err := d.storeItem(ctx, h, opID, id, models.ItemRoleSource, i, src); err != nil {
			return err
		}
	}

	if it.ReplacedItem != nil {
		return d.storeItem(ctx, h, opID, id, models.ItemRoleReplaced, 0, *it.ReplacedItem)
	}

	return nil
}

// Ingest arbitrates a proposal and records it when allowed. A denied
// proposal returns the decision along with a *access.DeniedError.
func (d *Backend) Ingest(ctx context.Context, op *proto.Operation, items []proto.Item) (access.Decision, error) {
	dec, err := d.AuthorizeOperation(ctx, op, items)
	if err != nil {
		return dec, err
	}
	if !dec.Allowed {
		return dec, dec.Err()
	}

	if _, err := d.RecordOperation(ctx, op, items); err != nil {
		return dec, err
	}

	return dec, nil
}

// DeleteOperation deletes a recorded operation. The delete event is
// broadcast before the operation is removed.
func (d *Backend) DeleteOperation(ctx context.Context, id int64) error {
	op, err := d.Operation(ctx, id)
	if err != nil {
		return err
	}

	items, err := d.OperationItems(ctx, id)
	if err != nil {
		return err
	}

	d.publish(ctx, notify.OperationEvent(notify.ActionDelete, op, items))

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return d.store.DeleteOperationByID(ctx, tx, id)
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrOperationNotFound
		}
		return err
	}

	d.logger.Info("operation deleted", "id", id, "repo", op.RepositoryName())

	return nil
}

// Operation returns a recorded operation with its labels.
func (d *Backend) Operation(ctx context.Context, id int64) (*proto.Operation, error) {
	var (
		m      models.Operation
		labels []models.OperationLabel
	)
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetOperationByID(ctx, tx, id)
		if err != nil {
			return err
		}
		labels, err = d.store.GetOperationLabels(ctx, tx, id)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrOperationNotFound
		}
		return nil, err
	}

	r, err := d.RepositoryByID(ctx, m.RepoID)
	if err != nil {
		return nil, err
	}

	return operationFromModel(m, r, labels), nil
}

// Operations returns the recorded operations matching the filter, newest
// first.
func (d *Backend) Operations(ctx context.Context, filter OperationFilter) ([]*proto.Operation, error) {
	sf := store.OperationFilter{
		Author: filter.Author,
		Label:  filter.Label,
		Since:  filter.Since,
		Until:  filter.Until,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, t := range filter.Types {
		sf.Types = append(sf.Types, int(t))
	}

	repos := map[int64]*proto.Repository{}
	if filter.Repository != "" {
		r, err := d.Repository(ctx, filter.Repository)
		if err != nil {
			return nil, err
		}
		sf.RepoID = r.ID
		repos[r.ID] = r
	}

	var (
		ms     []models.Operation
		labels = map[int64][]models.OperationLabel{}
	)
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		ms, err = d.store.GetOperations(ctx, tx, sf)
		if err != nil {
			return err
		}
		for _, m := range ms {
			labels[m.ID], err = d.store.GetOperationLabels(ctx, tx, m.ID)
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, db.WrapError(err)
	}

	ops := make([]*proto.Operation, len(ms))
	for i, m := range ms {
		r, ok := repos[m.RepoID]
		if !ok {
			var err error
			r, err = d.RepositoryByID(ctx, m.RepoID)
			if err != nil {
				return nil, err
			}
			repos[m.RepoID] = r
		}
		ops[i] = operationFromModel(m, r, labels[m.ID])
	}

	return ops, nil
}

// OperationItems returns the items of a recorded operation with their
// source and replaced items.
func (d *Backend) OperationItems(ctx context.Context, id int64) ([]proto.Item, error) {
	var ms []models.OperationItem
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		if _, err := d.store.GetOperationByID(ctx, tx, id); err != nil {
			return err
		}
		var err error
		ms, err = d.store.GetOperationItems(ctx, tx, id)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrOperationNotFound
		}
		return nil, err
	}

	return itemsFromModels(ms), nil
}

// ResolveAuthors links recorded operations of unresolved authors to the
// users their accounts have since been bound to.
func (d *Backend) ResolveAuthors(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		n, err = d.store.ResolveOperationAuthors(ctx, tx)
		return err
	}); err != nil {
		return 0, db.WrapError(err)
	}

	return n, nil
}
