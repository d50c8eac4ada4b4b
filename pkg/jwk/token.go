package jwk

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vcgate/vcgate/pkg/config"
)

// ErrInvalidToken is returned for a token that doesn't verify.
var ErrInvalidToken = errors.New("invalid token")

// NewToken returns a token for username signed with the pair. A zero
// expiry uses the configured default; a negative one never expires.
func NewToken(cfg *config.Config, p Pair, username string, expiry time.Duration) (string, error) {
	if cfg == nil {
		return "", config.ErrNilConfig
	}
	if expiry == 0 {
		expiry = time.Duration(cfg.JWT.Expiry) * time.Second
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   username,
		Issuer:    cfg.HTTP.PublicURL,
		Audience:  jwt.ClaimStrings{cfg.Name},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	}

	token := jwt.NewWithClaims(SigningMethod, claims)
	token.Header["kid"] = p.JWK().KeyID

	return token.SignedString(p.PrivateKey())
}

// ParseToken verifies a token signed with the pair and returns its claims.
func ParseToken(cfg *config.Config, p Pair, raw string) (*jwt.RegisteredClaims, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return p.JWK().Key, nil
	},
		jwt.WithIssuer(cfg.HTTP.PublicURL),
		jwt.WithAudience(cfg.Name),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
