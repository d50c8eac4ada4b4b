package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestWrapErrorBadNoRows(t *testing.T) {
	for _, e := range []error{
		fmt.Errorf("foo"),
		errors.New("bar"),
	} {
		if err := WrapError(e); err != e {
			t.Errorf("WrapError(%v) => %v, want %v", e, err, e)
		}
	}
}

func TestWrapErrorGoodNoRows(t *testing.T) {
	if err := WrapError(sql.ErrNoRows); err != ErrRecordNotFound {
		t.Errorf("WrapError(sql.ErrNoRows) => %v, want %v", err, ErrRecordNotFound)
	}
	wrapped := fmt.Errorf("get operation: %w", sql.ErrNoRows)
	if err := WrapError(wrapped); err != ErrRecordNotFound {
		t.Errorf("WrapError(%v) => %v, want %v", wrapped, err, ErrRecordNotFound)
	}
}

func TestWrapErrorPostgres(t *testing.T) {
	cases := map[string]error{
		"23505": ErrDuplicateKey,
		"23503": ErrForeignKey,
	}
	for code, want := range cases {
		err := &pq.Error{Code: pq.ErrorCode(code)}
		if got := WrapError(err); got != want {
			t.Errorf("WrapError(pq %s) => %v, want %v", code, got, want)
		}
	}

	other := &pq.Error{Code: "42P01"}
	if got := WrapError(other); got != other {
		t.Errorf("WrapError(pq 42P01) => %v, want %v", got, other)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if err := WrapError(nil); err != nil {
		t.Errorf("WrapError(nil) => %v, want nil", err)
	}
}
