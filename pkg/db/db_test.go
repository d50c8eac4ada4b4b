package db_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/internal/test"
)

func TestOpenUnknownDriver(t *testing.T) {
	_, err := db.Open(context.TODO(), "invalid", "")
	if err == nil {
		t.Fatal("Open(invalid) => nil, want error")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("Open(invalid) => %v, want error containing 'unknown driver'", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	dbx, err := test.OpenSqlite(ctx, t)
	is.NoErr(err)

	_, err = dbx.ExecContext(ctx, "CREATE TABLE things (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)")
	is.NoErr(err)

	errBoom := errors.New("boom")
	err = dbx.TransactionContext(ctx, func(tx *db.Tx) error {
		if _, err := db.InsertID(ctx, tx, "INSERT INTO things (name) VALUES (?)", "a"); err != nil {
			return err
		}
		return errBoom
	})
	is.True(errors.Is(err, errBoom))

	var count int
	is.NoErr(dbx.GetContext(ctx, &count, "SELECT COUNT(*) FROM things"))
	is.Equal(count, 0)
}

func TestInsertIDAndDuplicate(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	dbx, err := test.OpenSqlite(ctx, t)
	is.NoErr(err)

	_, err = dbx.ExecContext(ctx, "CREATE TABLE things (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)")
	is.NoErr(err)

	id1, err := db.InsertID(ctx, dbx, "INSERT INTO things (name) VALUES (?)", "a")
	is.NoErr(err)
	id2, err := db.InsertID(ctx, dbx, "INSERT INTO things (name) VALUES (?)", "b")
	is.NoErr(err)
	is.Equal(id2, id1+1)

	_, err = db.InsertID(ctx, dbx, "INSERT INTO things (name) VALUES (?)", "a")
	is.Equal(db.WrapError(err), db.ErrDuplicateKey)
}
