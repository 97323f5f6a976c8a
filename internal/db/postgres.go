// Package db opens the shared PostgreSQL pool. The migration runner
// and the Postgres user repository both receive this pool ready-made.
package db

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

// OpenPostgres opens a pool via the pgx stdlib driver. Migration
// bodies may hold several statements, so the DSN gets
// default_query_exec_mode=simple_protocol appended unless the caller
// already chose a mode.
func OpenPostgres(dsn string, maxOpenConns int) (*sql.DB, error) {
	pool, err := sql.Open("pgx", normalizeDSN(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "open postgres pool")
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxOpenConns)
	pool.SetConnMaxLifetime(30 * time.Minute)
	return pool, nil
}

// normalizeDSN forces simple protocol for both DSN forms pgx accepts:
// query parameter on URL DSNs, space-separated key=value on keyword
// DSNs. Left alone when the caller already set a mode.
func normalizeDSN(dsn string) string {
	if strings.Contains(dsn, "default_query_exec_mode=") {
		return dsn
	}
	if strings.Contains(dsn, "://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&default_query_exec_mode=simple_protocol"
		}
		return dsn + "?default_query_exec_mode=simple_protocol"
	}
	return strings.TrimSpace(dsn + " default_query_exec_mode=simple_protocol")
}
