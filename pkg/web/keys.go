package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vcgate/vcgate/pkg/jwk"
)

// KeysController registers the route publishing the token verification
// keys.
func KeysController(_ context.Context, r *mux.Router, pair jwk.Pair) {
	r.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		renderJSON(w, http.StatusOK, pair.JWKS())
	}).Methods(http.MethodGet)
}
