package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// trace logs the query and its arguments. The returned func logs the time
// spent running it and must be deferred by the caller.
func trace(l *log.Logger, query string, args ...interface{}) func() {
	if l == nil {
		return func() {}
	}

	query = strings.Join(strings.Fields(query), " ")
	start := time.Now()
	return func() {
		l.Debug("trace", "query", query, "args", args, "elapsed", time.Since(start))
	}
}

// Select wraps sqlx.Select with query tracing.
func (d *DB) Select(dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.Select(dest, query, args...)
}

// Get wraps sqlx.Get with query tracing.
func (d *DB) Get(dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.Get(dest, query, args...)
}

// Queryx wraps sqlx.Queryx with query tracing.
func (d *DB) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.Queryx(query, args...)
}

// QueryRowx wraps sqlx.QueryRowx with query tracing.
func (d *DB) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	defer trace(d.logger, query, args...)()
	return d.DB.QueryRowx(query, args...)
}

// Exec wraps sqlx.Exec with query tracing.
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.Exec(query, args...)
}

// SelectContext wraps sqlx.SelectContext with query tracing.
func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.SelectContext(ctx, dest, query, args...)
}

// GetContext wraps sqlx.GetContext with query tracing.
func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.GetContext(ctx, dest, query, args...)
}

// QueryxContext wraps sqlx.QueryxContext with query tracing.
func (d *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.QueryxContext(ctx, query, args...)
}

// QueryRowxContext wraps sqlx.QueryRowxContext with query tracing.
func (d *DB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	defer trace(d.logger, query, args...)()
	return d.DB.QueryRowxContext(ctx, query, args...)
}

// ExecContext wraps sqlx.ExecContext with query tracing.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.ExecContext(ctx, query, args...)
}

// Select wraps sqlx.Select with query tracing.
func (t *Tx) Select(dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.Select(dest, query, args...)
}

// Get wraps sqlx.Get with query tracing.
func (t *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.Get(dest, query, args...)
}

// Queryx wraps sqlx.Queryx with query tracing.
func (t *Tx) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.Queryx(query, args...)
}

// QueryRowx wraps sqlx.QueryRowx with query tracing.
func (t *Tx) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	defer trace(t.logger, query, args...)()
	return t.Tx.QueryRowx(query, args...)
}

// Exec wraps sqlx.Exec with query tracing.
func (t *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.Exec(query, args...)
}

// SelectContext wraps sqlx.SelectContext with query tracing.
func (t *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.SelectContext(ctx, dest, query, args...)
}

// GetContext wraps sqlx.GetContext with query tracing.
func (t *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.GetContext(ctx, dest, query, args...)
}

// QueryxContext wraps sqlx.QueryxContext with query tracing.
func (t *Tx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.QueryxContext(ctx, query, args...)
}

// QueryRowxContext wraps sqlx.QueryRowxContext with query tracing.
func (t *Tx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	defer trace(t.logger, query, args...)()
	return t.Tx.QueryRowxContext(ctx, query, args...)
}

// ExecContext wraps sqlx.ExecContext with query tracing.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.ExecContext(ctx, query, args...)
}
