package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/vcgate/vcgate/pkg/jwk"
)

// NewRouter returns a new HTTP router.
func NewRouter(ctx context.Context, pair jwk.Pair) http.Handler {
	logger := log.FromContext(ctx).WithPrefix("http")
	router := mux.NewRouter()

	HealthController(ctx, router)
	KeysController(ctx, router, pair)
	APIController(ctx, router, pair)

	router.MethodNotAllowedHandler = http.HandlerFunc(renderMethodNotAllowed)
	router.PathPrefix("/").HandlerFunc(renderNotFound)

	// Context handler
	// Adds context to the request
	h := NewLoggingMiddleware(router, logger)
	h = NewContextHandler(ctx)(h)
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler()(h)

	return h
}
