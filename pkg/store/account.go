package store

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
)

// AccountStore is an interface for managing repository accounts.
type AccountStore interface {
	GetAccountByID(ctx context.Context, h db.Handler, id int64) (models.Account, error)
	GetAccountByUsername(ctx context.Context, h db.Handler, repoID int64, username string) (models.Account, error)
	GetAccountsByRepoID(ctx context.Context, h db.Handler, repoID int64) ([]models.Account, error)
	GetAccountsByUserID(ctx context.Context, h db.Handler, userID int64) ([]models.Account, error)
	// CreateAccount creates an account. A zero userID leaves it unbound.
	CreateAccount(ctx context.Context, h db.Handler, repoID int64, userID int64, username string, data string) (int64, error)
	// UpdateAccountByID updates an account. A zero userID unbinds it.
	UpdateAccountByID(ctx context.Context, h db.Handler, id int64, userID int64, data string) error
	DeleteAccountByID(ctx context.Context, h db.Handler, id int64) error
}
