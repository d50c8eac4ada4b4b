package database

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/store"
	"github.com/vcgate/vcgate/pkg/utils"
)

type accountStore struct{}

var _ store.AccountStore = (*accountStore)(nil)

// CreateAccount implements store.AccountStore.
func (*accountStore) CreateAccount(ctx context.Context, tx db.Handler, repoID int64, userID int64, username string, data string) (int64, error) {
	if err := utils.ValidateAccountName(username); err != nil {
		return 0, err //nolint:wrapcheck
	}
	if data == "" {
		data = "{}"
	}
	id, err := db.InsertID(ctx, tx, `INSERT INTO accounts (repo_id, user_id, username, data, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`, repoID, nullID(userID), username, data)
	return id, db.WrapError(err)
}

// UpdateAccountByID implements store.AccountStore.
func (*accountStore) UpdateAccountByID(ctx context.Context, tx db.Handler, id int64, userID int64, data string) error {
	query := tx.Rebind(`UPDATE accounts SET user_id = ?, data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	res, err := tx.ExecContext(ctx, query, nullID(userID), data, id)
	if err != nil {
		return db.WrapError(err)
	}
	return affected(res)
}

// DeleteAccountByID implements store.AccountStore.
func (*accountStore) DeleteAccountByID(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind(`DELETE FROM accounts WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, id)
	return db.WrapError(err)
}

// GetAccountByID implements store.AccountStore.
func (*accountStore) GetAccountByID(ctx context.Context, tx db.Handler, id int64) (models.Account, error) {
	var m models.Account
	query := tx.Rebind(`SELECT * FROM accounts WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// GetAccountByUsername implements store.AccountStore.
func (*accountStore) GetAccountByUsername(ctx context.Context, tx db.Handler, repoID int64, username string) (models.Account, error) {
	var m models.Account
	query := tx.Rebind(`SELECT * FROM accounts WHERE repo_id = ? AND username = ?;`)
	err := tx.GetContext(ctx, &m, query, repoID, username)
	return m, db.WrapError(err)
}

// GetAccountsByRepoID implements store.AccountStore.
func (*accountStore) GetAccountsByRepoID(ctx context.Context, tx db.Handler, repoID int64) ([]models.Account, error) {
	var ms []models.Account
	query := tx.Rebind(`SELECT * FROM accounts WHERE repo_id = ? ORDER BY username;`)
	err := tx.SelectContext(ctx, &ms, query, repoID)
	return ms, db.WrapError(err)
}

// GetAccountsByUserID implements store.AccountStore.
func (*accountStore) GetAccountsByUserID(ctx context.Context, tx db.Handler, userID int64) ([]models.Account, error) {
	var ms []models.Account
	query := tx.Rebind(`SELECT * FROM accounts WHERE user_id = ? ORDER BY repo_id, username;`)
	err := tx.SelectContext(ctx, &ms, query, userID)
	return ms, db.WrapError(err)
}
