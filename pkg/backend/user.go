package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/utils"
)

// User finds a user by username.
func (d *Backend) User(ctx context.Context, username string) (*proto.User, error) {
	username = strings.ToLower(username)
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}

	var m models.User
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.FindUserByUsername(ctx, tx, username)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		d.logger.Error("error finding user", "username", username, "error", err)
		return nil, err
	}

	return userFromModel(m), nil
}

// UserByID finds a user by ID.
func (d *Backend) UserByID(ctx context.Context, id int64) (*proto.User, error) {
	var m models.User
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetUserByID(ctx, tx, id)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		d.logger.Error("error finding user", "id", id, "error", err)
		return nil, err
	}

	return userFromModel(m), nil
}

// Users returns all users.
func (d *Backend) Users(ctx context.Context) ([]*proto.User, error) {
	var ms []models.User
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		ms, err = d.store.GetAllUsers(ctx, tx)
		return err
	}); err != nil {
		return nil, db.WrapError(err)
	}

	users := make([]*proto.User, len(ms))
	for i, m := range ms {
		users[i] = userFromModel(m)
	}

	return users, nil
}

// CreateUser creates a new user.
func (d *Backend) CreateUser(ctx context.Context, username string, opts proto.UserOptions) (*proto.User, error) {
	username = strings.ToLower(username)
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		_, err := d.store.CreateUser(ctx, tx, username, opts.Admin)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, proto.ErrUserExist
		}
		return nil, err
	}

	return d.User(ctx, username)
}

// DeleteUser deletes a user. Accounts bound to the user become unbound.
func (d *Backend) DeleteUser(ctx context.Context, username string) error {
	u, err := d.User(ctx, username)
	if err != nil {
		return err
	}

	return db.WrapError(d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return d.store.DeleteUserByUsername(ctx, tx, u.Username)
	}))
}

// SetAdmin sets the admin flag of a user.
func (d *Backend) SetAdmin(ctx context.Context, username string, admin bool) error {
	username = strings.ToLower(username)
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return d.store.SetAdminByUsername(ctx, tx, username, admin)
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrUserNotFound
		}
		return err
	}

	return nil
}

// ResolveUser returns the user a VCS username is bound to in a repository.
// It reports false when the repository has no such account or the account
// isn't bound to a user.
func (d *Backend) ResolveUser(ctx context.Context, username string, repo *proto.Repository) (int64, bool) {
	if repo == nil || username == "" {
		return 0, false
	}

	repoID := repo.ID
	if repoID == 0 {
		r, err := d.Repository(ctx, repo.Name)
		if err != nil {
			return 0, false
		}
		repoID = r.ID
	}

	var m models.Account
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetAccountByUsername(ctx, tx, repoID, username)
		return err
	}); err != nil {
		if err = db.WrapError(err); !errors.Is(err, db.ErrRecordNotFound) {
			d.logger.Error("error resolving vcs user", "username", username, "repo", repo.Name, "err", err)
		}
		return 0, false
	}

	if !m.UserID.Valid {
		return 0, false
	}

	return m.UserID.Int64, true
}
