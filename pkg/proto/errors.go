package proto

import (
	"errors"
)

var (
	// ErrUnauthorized is returned when the user is not authorized to perform action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRepoNotFound is returned when a repository is not found.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrRepoExist is returned when a repository already exists.
	ErrRepoExist = errors.New("repository already exists")
	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExist is returned when an account already exists.
	ErrAccountExist = errors.New("account already exists")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExist is returned when a user already exists.
	ErrUserExist = errors.New("user already exists")
	// ErrOperationNotFound is returned when an operation is not found.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrMalformedOperation is returned when an operation violates the
	// operation model.
	ErrMalformedOperation = errors.New("malformed operation")
	// ErrInvalidLabelCount is returned when a branch or tag operation
	// carries more than one label.
	ErrInvalidLabelCount = errors.New("invalid label count")
	// ErrInvalidSourceItems is returned when an item's source items do not
	// agree with its action.
	ErrInvalidSourceItems = errors.New("invalid source items")
)
