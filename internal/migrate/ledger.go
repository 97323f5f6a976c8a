package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Entry is one ledger row: a migration that was applied successfully.
// Rows are inserted exactly once and never updated or deleted.
type Entry struct {
	Module          string
	Version         int
	Name            string
	Checksum        string
	AppliedAt       time.Time
	ExecutionTimeMS int64
}

// Ledger persists applied migrations in a dedicated tracking table in
// the same database the migrations act upon.
type Ledger struct {
	DB    *sql.DB
	Table string
}

// EnsureTable creates the ledger table and its supporting indexes.
// Every statement is IF NOT EXISTS, so repeated calls are safe.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id SERIAL PRIMARY KEY,
  module VARCHAR(100) NOT NULL,
  version INTEGER NOT NULL,
  name VARCHAR(255) NOT NULL,
  checksum VARCHAR(255) NOT NULL,
  applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
  execution_time_ms INTEGER,
  UNIQUE (module, version)
)`, l.Table)
	if _, err := l.DB.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "create migrations table")
	}

	base := strings.TrimLeft(l.Table, "_")
	for _, idx := range []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_module ON %s (module)", base, l.Table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_applied_at ON %s (applied_at)", base, l.Table),
	} {
		if _, err := l.DB.ExecContext(ctx, idx); err != nil {
			return errors.Wrap(err, "create migrations index")
		}
	}
	return nil
}

// GetAll loads the full ledger keyed by (module, version).
func (l *Ledger) GetAll(ctx context.Context) (map[string]Entry, error) {
	rows, err := l.DB.QueryContext(ctx, fmt.Sprintf(
		`SELECT module, version, name, checksum FROM %s ORDER BY module, version`, l.Table))
	if err != nil {
		return nil, errors.Wrap(err, "fetch applied migrations")
	}
	defer rows.Close()

	out := map[string]Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Module, &e.Version, &e.Name, &e.Checksum); err != nil {
			return nil, errors.Wrap(err, "scan applied migration")
		}
		out[ledgerKey(e.Module, e.Version)] = e
	}
	return out, errors.Wrap(rows.Err(), "iterate applied migrations")
}

// InsertTx records an applied migration inside the transaction that
// executed its SQL, so the schema change and its ledger row become
// visible together. applied_at is assigned by the server.
func (l *Ledger) InsertTx(ctx context.Context, tx *sql.Tx, m Migration, executionTimeMS int64) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (module, version, name, checksum, execution_time_ms)
VALUES ($1, $2, $3, $4, $5)`, l.Table),
		m.Module, m.Version, m.Name, m.Checksum(), executionTimeMS,
	)
	return errors.Wrapf(err, "record migration %s", m.ID())
}

// Status returns every ledger entry ordered by module then version.
func (l *Ledger) Status(ctx context.Context) ([]Entry, error) {
	rows, err := l.DB.QueryContext(ctx, fmt.Sprintf(
		`SELECT module, version, name, checksum, applied_at, execution_time_ms FROM %s ORDER BY module, version`,
		l.Table))
	if err != nil {
		return nil, errors.Wrap(err, "fetch migration status")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var execMS sql.NullInt64
		if err := rows.Scan(&e.Module, &e.Version, &e.Name, &e.Checksum, &e.AppliedAt, &execMS); err != nil {
			return nil, errors.Wrap(err, "scan migration status")
		}
		e.ExecutionTimeMS = execMS.Int64
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "iterate migration status")
}
