package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/jwk"
	"github.com/vcgate/vcgate/pkg/vcs"
)

// APIController registers the registry and ingestion API routes. Reads are
// public, mutations need the bearer token of an admin user.
func APIController(_ context.Context, r *mux.Router, pair jwk.Pair) {
	api := r.PathPrefix("/api/v1").Subrouter()
	admin := func(h http.HandlerFunc) http.Handler {
		return withAdmin(pair, h)
	}

	api.HandleFunc("/vcs", getVCS).Methods(http.MethodGet)
	api.HandleFunc("/authorization-methods", getAuthorizationMethods).Methods(http.MethodGet)

	// Repository names may contain slashes, sub-resources are matched
	// first.
	api.Handle("/repos/{repo:.+}/accounts/{username}", admin(patchAccount)).Methods(http.MethodPatch)
	api.Handle("/repos/{repo:.+}/accounts/{username}", admin(deleteAccount)).Methods(http.MethodDelete)
	api.HandleFunc("/repos/{repo:.+}/accounts/{username}", getAccount).Methods(http.MethodGet)
	api.Handle("/repos/{repo:.+}/accounts", admin(postAccount)).Methods(http.MethodPost)
	api.HandleFunc("/repos/{repo:.+}/accounts", getAccounts).Methods(http.MethodGet)

	api.Handle("/repos/{repo:.+}/operations/check", admin(postOperationCheck)).Methods(http.MethodPost)
	api.Handle("/repos/{repo:.+}/operations", admin(postOperation)).Methods(http.MethodPost)
	api.HandleFunc("/repos/{repo:.+}/operations", getOperations).Methods(http.MethodGet)

	api.Handle("/repos/{repo:.+}", admin(patchRepository)).Methods(http.MethodPatch)
	api.Handle("/repos/{repo:.+}", admin(deleteRepository)).Methods(http.MethodDelete)
	api.HandleFunc("/repos/{repo:.+}", getRepository).Methods(http.MethodGet)
	api.Handle("/repos", admin(postRepository)).Methods(http.MethodPost)
	api.HandleFunc("/repos", getRepositories).Methods(http.MethodGet)

	api.Handle("/operations/{id:[0-9]+}", admin(deleteOperation)).Methods(http.MethodDelete)
	api.HandleFunc("/operations/{id:[0-9]+}", getOperation).Methods(http.MethodGet)
}

// ListingResponse is a decorated listing.
type ListingResponse[T any] struct {
	Columns []string         `json:"columns"`
	Rows    []RowResponse[T] `json:"rows"`
}

// RowResponse is a listing row with the cells of the decorator columns.
type RowResponse[T any] struct {
	Item  T                 `json:"item"`
	Cells map[string]string `json:"cells,omitempty"`
}

func newListingResponse[T any](l *extension.Listing[T]) ListingResponse[T] {
	res := ListingResponse[T]{
		Columns: l.Columns,
		Rows:    make([]RowResponse[T], len(l.Rows)),
	}
	if res.Columns == nil {
		res.Columns = []string{}
	}
	for i, row := range l.Rows {
		res.Rows[i] = RowResponse[T]{Item: row.Item, Cells: row.Cells}
	}
	return res
}

// listOptions turns the query parameters into listing filters.
func listOptions(r *http.Request) extension.ListOptions {
	q := r.URL.Query()
	opts := extension.ListOptions{Filters: make(map[string]string, len(q))}
	for k := range q {
		opts.Filters[k] = q.Get(k)
	}
	return opts
}

func getVCS(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, vcs.List())
}

func getAuthorizationMethods(w http.ResponseWriter, r *http.Request) {
	be := backend.FromContext(r.Context())
	renderJSON(w, http.StatusOK, be.Registry().AuthorizationMethods())
}
