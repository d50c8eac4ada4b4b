package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/utils"
	"github.com/vcgate/vcgate/pkg/vcs"
)

// DefaultVCS is the backend of repositories created without one.
const DefaultVCS = "git"

func (d *Backend) validateMethod(method string) error {
	if method != "" && !d.registry.HasAuthorizationMethod(method) {
		return fmt.Errorf("%w: %q", extension.ErrUnknownMethod, method)
	}
	return nil
}

// CreateRepository creates a new repository.
func (d *Backend) CreateRepository(ctx context.Context, name string, opts proto.RepositoryOptions) (*proto.Repository, error) {
	name = utils.SanitizeRepo(name)
	if err := utils.ValidateRepo(name); err != nil {
		return nil, err
	}

	kind := opts.VCS
	if kind == "" {
		kind = DefaultVCS
	}
	if _, err := vcs.Lookup(kind); err != nil {
		return nil, err
	}

	method := opts.AuthorizationMethod
	if method == "" {
		method = d.cfg.Access.DefaultMethod
	}
	if err := d.validateMethod(method); err != nil {
		return nil, err
	}

	extra := proto.ExtraData{}
	if err := d.registry.ExtractRepositoryData(opts.Fields, extra); err != nil {
		return nil, err
	}
	data, err := extra.Encode()
	if err != nil {
		return nil, err
	}

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		_, err := d.store.CreateRepo(ctx, tx, name, kind, opts.Root, method, data)
		return err
	}); err != nil {
		d.logger.Debug("failed to create repository in database", "err", err)
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, proto.ErrRepoExist
		}

		return nil, err
	}

	r, err := d.Repository(ctx, name)
	if err != nil {
		return nil, err
	}

	d.logger.Info("repository created", "repo", name, "vcs", kind, "method", method)
	d.publish(ctx, notify.RepositoryEvent(notify.ActionInsert, r))

	return r, nil
}

// UpdateRepository updates a repository. Empty options are left
// unchanged and submitted fields are merged into the extra data.
func (d *Backend) UpdateRepository(ctx context.Context, name string, opts proto.RepositoryOptions) (*proto.Repository, error) {
	r, err := d.Repository(ctx, name)
	if err != nil {
		return nil, err
	}

	if opts.VCS != "" {
		if _, err := vcs.Lookup(opts.VCS); err != nil {
			return nil, err
		}
		r.VCS = opts.VCS
	}
	if opts.Root != "" {
		r.Root = opts.Root
	}
	if opts.AuthorizationMethod != "" {
		if err := d.validateMethod(opts.AuthorizationMethod); err != nil {
			return nil, err
		}
		r.AuthorizationMethod = opts.AuthorizationMethod
	}

	if r.Data == nil {
		r.Data = proto.ExtraData{}
	}
	if err := d.registry.ExtractRepositoryData(opts.Fields, r.Data); err != nil {
		return nil, err
	}
	data, err := r.Data.Encode()
	if err != nil {
		return nil, err
	}

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		defer d.cache.Delete(r.Name)
		return d.store.UpdateRepoByID(ctx, tx, r.ID, r.VCS, r.Root, r.AuthorizationMethod, data)
	}); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrRepoNotFound
		}
		return nil, db.WrapError(err)
	}

	r, err = d.Repository(ctx, r.Name)
	if err != nil {
		return nil, err
	}

	d.publish(ctx, notify.RepositoryEvent(notify.ActionUpdate, r))

	return r, nil
}

// DeleteRepository deletes a repository with its accounts, operations and
// webhooks. The delete event is broadcast before anything is removed.
func (d *Backend) DeleteRepository(ctx context.Context, name string) error {
	r, err := d.Repository(ctx, name)
	if err != nil {
		return err
	}

	d.publish(ctx, notify.RepositoryEvent(notify.ActionDelete, r))

	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		defer d.cache.Delete(r.Name)
		return d.store.DeleteRepoByID(ctx, tx, r.ID)
	}); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrRepoNotFound
		}
		return db.WrapError(err)
	}

	d.logger.Info("repository deleted", "repo", r.Name)

	return nil
}

// Repository returns a repository by name.
func (d *Backend) Repository(ctx context.Context, name string) (*proto.Repository, error) {
	name = utils.SanitizeRepo(name)
	if r, ok := d.cache.Get(name); ok {
		return r, nil
	}

	var m models.Repo
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetRepoByName(ctx, tx, name)
		return db.WrapError(err)
	}); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrRepoNotFound
		}
		return nil, db.WrapError(err)
	}

	r, err := repoFromModel(m)
	if err != nil {
		return nil, err
	}

	d.cache.Set(r)
	return r, nil
}

// RepositoryByID returns a repository by its ID.
func (d *Backend) RepositoryByID(ctx context.Context, id int64) (*proto.Repository, error) {
	var m models.Repo
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetRepoByID(ctx, tx, id)
		return db.WrapError(err)
	}); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrRepoNotFound
		}
		return nil, db.WrapError(err)
	}

	r, err := repoFromModel(m)
	if err != nil {
		return nil, err
	}

	d.cache.Set(r)
	return r, nil
}

// Repositories returns the decorated repository listing. The "vcs" filter
// restricts the listing to one backend kind; other filters are handled by
// the plugin list decorators.
func (d *Backend) Repositories(ctx context.Context, opts extension.ListOptions) (*extension.Listing[*proto.Repository], error) {
	var ms []models.Repo
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		if kind, ok := opts.Filter("vcs"); ok {
			ms, err = d.store.GetReposByVCS(ctx, tx, kind)
		} else {
			ms, err = d.store.GetAllRepos(ctx, tx)
		}
		return err
	}); err != nil {
		return nil, db.WrapError(err)
	}

	repos := make([]*proto.Repository, 0, len(ms))
	for _, m := range ms {
		r, err := repoFromModel(m)
		if err != nil {
			return nil, err
		}
		d.cache.Set(r)
		repos = append(repos, r)
	}

	return d.registry.DecorateRepositories(ctx, repos, opts)
}
