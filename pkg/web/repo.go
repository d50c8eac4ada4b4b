package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// RepositoryRequest is the body of repository create and update requests.
type RepositoryRequest struct {
	Name                string            `json:"name,omitempty"`
	VCS                 string            `json:"vcs,omitempty"`
	Root                string            `json:"root,omitempty"`
	AuthorizationMethod string            `json:"authorization_method,omitempty"`
	Fields              map[string]string `json:"fields,omitempty"`
}

func (req RepositoryRequest) options() proto.RepositoryOptions {
	return proto.RepositoryOptions{
		VCS:                 req.VCS,
		Root:                req.Root,
		AuthorizationMethod: req.AuthorizationMethod,
		Fields:              req.Fields,
	}
}

func getRepositories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	l, err := be.Repositories(ctx, listOptions(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, newListingResponse(l))
}

func getRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	repo, err := be.Repository(ctx, mux.Vars(r)["repo"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, repo)
}

func postRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	var req RepositoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	repo, err := be.CreateRepository(ctx, req.Name, req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, repo)
}

func patchRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	var req RepositoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	repo, err := be.UpdateRepository(ctx, mux.Vars(r)["repo"], req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, repo)
}

func deleteRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	if err := be.DeleteRepository(ctx, mux.Vars(r)["repo"]); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
