package backend

import (
	"context"
	"errors"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/utils"
)

// bindUser returns the ID of the user an account should be bound to.
func (d *Backend) bindUser(ctx context.Context, username string) (int64, error) {
	if username == "" {
		return 0, nil
	}
	u, err := d.User(ctx, username)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// CreateAccount creates a repository account for a VCS username.
func (d *Backend) CreateAccount(ctx context.Context, repo string, username string, opts proto.AccountOptions) (*proto.Account, error) {
	if err := utils.ValidateAccountName(username); err != nil {
		return nil, err
	}

	r, err := d.Repository(ctx, repo)
	if err != nil {
		return nil, err
	}

	userID, err := d.bindUser(ctx, opts.User)
	if err != nil {
		return nil, err
	}

	extra := proto.ExtraData{}
	if err := d.registry.ExtractAccountData(opts.Fields, extra); err != nil {
		return nil, err
	}
	data, err := extra.Encode()
	if err != nil {
		return nil, err
	}

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		_, err := d.store.CreateAccount(ctx, tx, r.ID, userID, username, data)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, proto.ErrAccountExist
		}
		return nil, err
	}

	acc, err := d.account(ctx, r, username)
	if err != nil {
		return nil, err
	}

	d.logger.Info("account created", "repo", r.Name, "username", username, "user", opts.User)
	d.publish(ctx, notify.AccountEvent(notify.ActionInsert, r, acc))

	return acc, nil
}

// UpdateAccount updates the user binding and extra data of an account.
func (d *Backend) UpdateAccount(ctx context.Context, repo string, username string, opts proto.AccountOptions) (*proto.Account, error) {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return nil, err
	}

	acc, err := d.account(ctx, r, username)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Unbind:
		acc.UserID = 0
	case opts.User != "":
		acc.UserID, err = d.bindUser(ctx, opts.User)
		if err != nil {
			return nil, err
		}
	}

	if acc.Data == nil {
		acc.Data = proto.ExtraData{}
	}
	if err := d.registry.ExtractAccountData(opts.Fields, acc.Data); err != nil {
		return nil, err
	}
	data, err := acc.Data.Encode()
	if err != nil {
		return nil, err
	}

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return d.store.UpdateAccountByID(ctx, tx, acc.ID, acc.UserID, data)
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrAccountNotFound
		}
		return nil, err
	}

	acc, err = d.account(ctx, r, username)
	if err != nil {
		return nil, err
	}

	d.publish(ctx, notify.AccountEvent(notify.ActionUpdate, r, acc))

	return acc, nil
}

// DeleteAccount deletes a repository account. The delete event is
// broadcast before the account is removed.
func (d *Backend) DeleteAccount(ctx context.Context, repo string, username string) error {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return err
	}

	acc, err := d.account(ctx, r, username)
	if err != nil {
		return err
	}

	d.publish(ctx, notify.AccountEvent(notify.ActionDelete, r, acc))

	return db.WrapError(d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return d.store.DeleteAccountByID(ctx, tx, acc.ID)
	}))
}

// Account returns the account of a VCS username in a repository.
func (d *Backend) Account(ctx context.Context, repo string, username string) (*proto.Account, error) {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return nil, err
	}

	return d.account(ctx, r, username)
}

func (d *Backend) account(ctx context.Context, r *proto.Repository, username string) (*proto.Account, error) {
	var m models.Account
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetAccountByUsername(ctx, tx, r.ID, username)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrAccountNotFound
		}
		return nil, err
	}

	return accountFromModel(m)
}

// Accounts returns the decorated account listing of a repository. The
// "bound" filter ("yes" or "no") keeps accounts with or without a user;
// other filters are handled by the plugin list decorators.
func (d *Backend) Accounts(ctx context.Context, repo string, opts extension.ListOptions) (*extension.Listing[*proto.Account], error) {
	r, err := d.Repository(ctx, repo)
	if err != nil {
		return nil, err
	}

	var ms []models.Account
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		ms, err = d.store.GetAccountsByRepoID(ctx, tx, r.ID)
		return err
	}); err != nil {
		return nil, db.WrapError(err)
	}

	bound, filtered := opts.Filter("bound")
	accounts := make([]*proto.Account, 0, len(ms))
	for _, m := range ms {
		if filtered && (bound == "yes") != m.UserID.Valid {
			continue
		}
		acc, err := accountFromModel(m)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return d.registry.DecorateAccounts(ctx, accounts, opts)
}

// UserAccounts returns the accounts bound to a user across repositories.
func (d *Backend) UserAccounts(ctx context.Context, username string) ([]*proto.Account, error) {
	u, err := d.User(ctx, username)
	if err != nil {
		return nil, err
	}

	var ms []models.Account
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		ms, err = d.store.GetAccountsByUserID(ctx, tx, u.ID)
		return err
	}); err != nil {
		return nil, db.WrapError(err)
	}

	accounts := make([]*proto.Account, 0, len(ms))
	for _, m := range ms {
		acc, err := accountFromModel(m)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}
