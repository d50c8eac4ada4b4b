package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/jwk"
	"github.com/vcgate/vcgate/pkg/proto"
)

// ErrInvalidToken is returned when the request carries a token that
// doesn't verify.
var ErrInvalidToken = jwk.ErrInvalidToken

func askCredentials(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="vcgate"`)
}

// authenticate returns the user of the request bearer token, nil when the
// request has no token.
func authenticate(r *http.Request, pair jwk.Pair) (*proto.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, ErrInvalidToken
	}

	ctx := r.Context()
	claims, err := jwk.ParseToken(config.FromContext(ctx), pair, strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	return backend.FromContext(ctx).User(ctx, claims.Subject)
}

// withAdmin only lets requests of admin users through.
func withAdmin(pair jwk.Pair, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.FromContext(ctx)

		user, err := authenticate(r, pair)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidToken):
			case errors.Is(err, proto.ErrUserNotFound):
			default:
				logger.Error("failed to authenticate", "err", err)
			}
			// return 403 when bad credentials are provided
			renderForbidden(w, r)
			return
		}

		if user == nil {
			askCredentials(w, r)
			renderUnauthorized(w, r)
			return
		}

		if !user.Admin {
			logger.Info("non-admin user denied", "username", user.Username)
			renderForbidden(w, r)
			return
		}

		logger.Debug("authenticated", "username", user.Username)
		ctx = proto.WithUserContext(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
