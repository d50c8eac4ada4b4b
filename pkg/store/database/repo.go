package database

import (
	"context"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/store"
	"github.com/vcgate/vcgate/pkg/utils"
)

type repoStore struct{}

var _ store.RepositoryStore = (*repoStore)(nil)

// CreateRepo implements store.RepositoryStore.
func (*repoStore) CreateRepo(ctx context.Context, tx db.Handler, name string, vcs string, root string, authMethod string, data string) (int64, error) {
	name = utils.SanitizeRepo(name)
	if data == "" {
		data = "{}"
	}
	id, err := db.InsertID(ctx, tx, `INSERT INTO repos (name, vcs, root, authorization_method, data, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`, name, vcs, root, authMethod, data)
	return id, db.WrapError(err)
}

// UpdateRepoByID implements store.RepositoryStore.
func (*repoStore) UpdateRepoByID(ctx context.Context, tx db.Handler, id int64, vcs string, root string, authMethod string, data string) error {
	query := tx.Rebind(`UPDATE repos SET vcs = ?, root = ?, authorization_method = ?, data = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?;`)
	res, err := tx.ExecContext(ctx, query, vcs, root, authMethod, data, id)
	if err != nil {
		return db.WrapError(err)
	}
	return affected(res)
}

// DeleteRepoByID implements store.RepositoryStore.
func (*repoStore) DeleteRepoByID(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind("DELETE FROM repos WHERE id = ?;")
	_, err := tx.ExecContext(ctx, query, id)
	return db.WrapError(err)
}

// GetAllRepos implements store.RepositoryStore.
func (*repoStore) GetAllRepos(ctx context.Context, tx db.Handler) ([]models.Repo, error) {
	var repos []models.Repo
	query := tx.Rebind("SELECT * FROM repos ORDER BY name;")
	err := tx.SelectContext(ctx, &repos, query)
	return repos, db.WrapError(err)
}

// GetReposByVCS implements store.RepositoryStore.
func (*repoStore) GetReposByVCS(ctx context.Context, tx db.Handler, vcs string) ([]models.Repo, error) {
	var repos []models.Repo
	query := tx.Rebind("SELECT * FROM repos WHERE vcs = ? ORDER BY name;")
	err := tx.SelectContext(ctx, &repos, query, vcs)
	return repos, db.WrapError(err)
}

// GetRepoByName implements store.RepositoryStore.
func (*repoStore) GetRepoByName(ctx context.Context, tx db.Handler, name string) (models.Repo, error) {
	var repo models.Repo
	name = utils.SanitizeRepo(name)
	query := tx.Rebind("SELECT * FROM repos WHERE name = ?;")
	err := tx.GetContext(ctx, &repo, query, name)
	return repo, db.WrapError(err)
}

// GetRepoByID implements store.RepositoryStore.
func (*repoStore) GetRepoByID(ctx context.Context, tx db.Handler, id int64) (models.Repo, error) {
	var repo models.Repo
	query := tx.Rebind("SELECT * FROM repos WHERE id = ?;")
	err := tx.GetContext(ctx, &repo, query, id)
	return repo, db.WrapError(err)
}
