package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// AccountRequest is the body of account create and update requests.
type AccountRequest struct {
	// Username is the VCS username, only used on create.
	Username string `json:"username,omitempty"`
	// User is the registry user to bind the account to.
	User   string            `json:"user,omitempty"`
	Unbind bool              `json:"unbind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (req AccountRequest) options() proto.AccountOptions {
	return proto.AccountOptions{
		User:   req.User,
		Unbind: req.Unbind,
		Fields: req.Fields,
	}
}

func getAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	l, err := be.Accounts(ctx, mux.Vars(r)["repo"], listOptions(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, newListingResponse(l))
}

func getAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	vars := mux.Vars(r)

	acc, err := be.Account(ctx, vars["repo"], vars["username"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, acc)
}

func postAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	var req AccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acc, err := be.CreateAccount(ctx, mux.Vars(r)["repo"], req.Username, req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, acc)
}

func patchAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	vars := mux.Vars(r)

	var req AccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acc, err := be.UpdateAccount(ctx, vars["repo"], vars["username"], req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, acc)
}

func deleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	vars := mux.Vars(r)

	if err := be.DeleteAccount(ctx, vars["repo"], vars["username"]); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
