package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/store"
)

type operationStore struct{}

var _ store.OperationStore = (*operationStore)(nil)

// CreateOperation implements store.OperationStore.
func (*operationStore) CreateOperation(ctx context.Context, tx db.Handler, op models.Operation) (int64, error) {
	id, err := db.InsertID(ctx, tx, `INSERT INTO operations (repo_id, type, date, author_id, author, committer, message, revision, directory)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.RepoID, op.Type, op.Date.UTC(), op.AuthorID, op.Author, op.Committer, op.Message, op.Revision, op.Directory)
	return id, db.WrapError(err)
}

// GetOperationByID implements store.OperationStore.
func (*operationStore) GetOperationByID(ctx context.Context, tx db.Handler, id int64) (models.Operation, error) {
	var m models.Operation
	query := tx.Rebind(`SELECT * FROM operations WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// GetOperations implements store.OperationStore.
func (*operationStore) GetOperations(ctx context.Context, tx db.Handler, filter store.OperationFilter) ([]models.Operation, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.RepoID > 0 {
		where = append(where, "o.repo_id = ?")
		args = append(args, filter.RepoID)
	}
	if len(filter.Types) > 0 {
		where = append(where, "o.type IN (?)")
		args = append(args, filter.Types)
	}
	if filter.Author != "" {
		where = append(where, "o.author = ?")
		args = append(args, filter.Author)
	}
	if filter.Label != "" {
		where = append(where, `EXISTS (SELECT 1 FROM operation_labels ol
			INNER JOIN labels l ON l.id = ol.label_id
			WHERE ol.operation_id = o.id AND l.name = ?)`)
		args = append(args, filter.Label)
	}
	if !filter.Since.IsZero() {
		where = append(where, "o.date >= ?")
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		where = append(where, "o.date < ?")
		args = append(args, filter.Until.UTC())
	}

	query := "SELECT o.* FROM operations o"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.date DESC, o.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var ms []models.Operation
	err = tx.SelectContext(ctx, &ms, tx.Rebind(query), args...)
	return ms, db.WrapError(err)
}

// DeleteOperationByID implements store.OperationStore.
func (*operationStore) DeleteOperationByID(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind(`DELETE FROM operations WHERE id = ?;`)
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return db.WrapError(err)
	}
	return affected(res)
}

// GetOrCreateLabel implements store.OperationStore.
func (*operationStore) GetOrCreateLabel(ctx context.Context, tx db.Handler, repoID int64, name string, typ int) (int64, error) {
	var id int64
	query := tx.Rebind(`SELECT id FROM labels WHERE repo_id = ? AND name = ? AND type = ?;`)
	err := db.WrapError(tx.GetContext(ctx, &id, query, repoID, name, typ))
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, db.ErrRecordNotFound) {
		return 0, err
	}

	id, err = db.InsertID(ctx, tx, `INSERT INTO labels (repo_id, name, type) VALUES (?, ?, ?)`, repoID, name, typ)
	return id, db.WrapError(err)
}

// CreateOperationLabel implements store.OperationStore.
func (*operationStore) CreateOperationLabel(ctx context.Context, tx db.Handler, operationID int64, labelID int64, action int, position int) error {
	query := tx.Rebind(`INSERT INTO operation_labels (operation_id, label_id, action, position) VALUES (?, ?, ?, ?);`)
	_, err := tx.ExecContext(ctx, query, operationID, labelID, action, position)
	return db.WrapError(err)
}

// GetOperationLabels implements store.OperationStore.
func (*operationStore) GetOperationLabels(ctx context.Context, tx db.Handler, operationID int64) ([]models.OperationLabel, error) {
	var ms []models.OperationLabel
	query := tx.Rebind(`SELECT ol.operation_id, ol.label_id, l.name, l.type, ol.action, ol.position
			FROM operation_labels ol
			INNER JOIN labels l ON l.id = ol.label_id
			WHERE ol.operation_id = ?
			ORDER BY ol.position;`)
	err := tx.SelectContext(ctx, &ms, query, operationID)
	return ms, db.WrapError(err)
}

// CreateOperationItem implements store.OperationStore.
func (*operationStore) CreateOperationItem(ctx context.Context, tx db.Handler, it models.OperationItem) (int64, error) {
	id, err := db.InsertID(ctx, tx, `INSERT INTO operation_items (operation_id, parent_id, role, position, path, type, revision, action, source_branch, modified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.OperationID, it.ParentID, it.Role, it.Position, it.Path, it.Type, it.Revision, it.Action, it.SourceBranch, it.Modified)
	return id, db.WrapError(err)
}

// GetOperationItems implements store.OperationStore.
func (*operationStore) GetOperationItems(ctx context.Context, tx db.Handler, operationID int64) ([]models.OperationItem, error) {
	var ms []models.OperationItem
	query := tx.Rebind(`SELECT * FROM operation_items WHERE operation_id = ? ORDER BY id;`)
	err := tx.SelectContext(ctx, &ms, query, operationID)
	return ms, db.WrapError(err)
}

// ResolveOperationAuthors implements store.OperationStore.
func (*operationStore) ResolveOperationAuthors(ctx context.Context, tx db.Handler) (int64, error) {
	query := tx.Rebind(`UPDATE operations SET author_id = (
				SELECT a.user_id FROM accounts a
				WHERE a.repo_id = operations.repo_id AND a.username = operations.author
			)
			WHERE author_id IS NULL AND EXISTS (
				SELECT 1 FROM accounts a
				WHERE a.repo_id = operations.repo_id AND a.username = operations.author AND a.user_id IS NOT NULL
			);`)
	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, db.WrapError(err)
	}
	n, err := res.RowsAffected()
	return n, db.WrapError(err)
}
