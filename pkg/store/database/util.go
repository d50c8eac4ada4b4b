package database

import (
	"database/sql"

	"github.com/vcgate/vcgate/pkg/db"
)

// affected returns db.ErrRecordNotFound when an update or delete didn't
// touch any row.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return db.WrapError(err)
	}
	if n == 0 {
		return db.ErrRecordNotFound
	}
	return nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
