// Package utils validates and normalizes names coming from users and VCS
// hooks.
package utils

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

var (
	// ErrEmptyName is returned for an empty username or repository name.
	ErrEmptyName = errors.New("name cannot be empty")
	// ErrInvalidUsername is returned for a malformed registry username.
	ErrInvalidUsername = errors.New("username must start with a letter and can only contain letters, numbers, and hyphens")
	// ErrInvalidAccountName is returned for a malformed VCS username.
	ErrInvalidAccountName = errors.New("vcs username cannot contain spaces or control characters")
	// ErrInvalidRepo is returned for a malformed repository name.
	ErrInvalidRepo = errors.New("repo can only contain letters, numbers, hyphens, underscores, periods, and slashes")
)

// SanitizeRepo returns a sanitized version of the given repository name.
func SanitizeRepo(repo string) string {
	// An absolute path cleans ".." away.
	repo = "/" + strings.TrimPrefix(repo, "/")
	repo = path.Clean(repo)
	repo = strings.TrimSuffix(repo, ".git")
	return repo[1:]
}

// ValidateUsername returns an error if the registry username is invalid.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrEmptyName
	}

	if !unicode.IsLetter(rune(username[0])) {
		return ErrInvalidUsername
	}

	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return ErrInvalidUsername
		}
	}

	return nil
}

// ValidateAccountName returns an error if the VCS username is invalid.
// VCS usernames are looser than registry ones, "jane.doe" or
// "jane@example.com" are fine.
func ValidateAccountName(username string) error {
	if username == "" {
		return ErrEmptyName
	}

	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidAccountName
		}
	}

	return nil
}

// ValidateRepo returns an error if the given repository name is invalid.
func ValidateRepo(repo string) error {
	if repo == "" {
		return ErrEmptyName
	}

	for _, r := range repo {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '.' && r != '/' {
			return ErrInvalidRepo
		}
	}

	return nil
}
