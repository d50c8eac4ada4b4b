package store

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
)

// RepositoryStore is an interface for managing repositories.
type RepositoryStore interface {
	GetRepoByName(ctx context.Context, h db.Handler, name string) (models.Repo, error)
	GetRepoByID(ctx context.Context, h db.Handler, id int64) (models.Repo, error)
	GetAllRepos(ctx context.Context, h db.Handler) ([]models.Repo, error)
	GetReposByVCS(ctx context.Context, h db.Handler, vcs string) ([]models.Repo, error)
	CreateRepo(ctx context.Context, h db.Handler, name string, vcs string, root string, authMethod string, data string) (int64, error)
	UpdateRepoByID(ctx context.Context, h db.Handler, id int64, vcs string, root string, authMethod string, data string) error
	DeleteRepoByID(ctx context.Context, h db.Handler, id int64) error
}
