package config

import (
	"errors"

	"github.com/charmbracelet/keygen"
)

// ErrEmptyKeyPath is returned when the token signing key path is empty.
var ErrEmptyKeyPath = errors.New("empty key path")

// KeyPair returns the server's token signing key pair. The key is generated
// and written to disk on first use.
func KeyPair(cfg *Config) (*keygen.SSHKeyPair, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.JWT.KeyPath == "" {
		return nil, ErrEmptyKeyPath
	}

	return keygen.New(cfg.JWT.KeyPath, keygen.WithKeyType(keygen.Ed25519), keygen.WithWrite())
}
