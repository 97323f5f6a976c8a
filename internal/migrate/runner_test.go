package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/mirajehossain/usersvc/internal/lock"
)

const testTable = "_schema_migrations"

func expectLock(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(true))
}

func expectUnlock(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("pg_advisory_unlock").
		WillReturnRows(sqlmock.NewRows([]string{"unlocked"}).AddRow(true))
}

func expectEnsure(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + testTable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_schema_migrations_module").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_schema_migrations_applied_at").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectLedgerLoad(mock sqlmock.Sqlmock, applied ...Migration) {
	rows := sqlmock.NewRows([]string{"module", "version", "name", "checksum"})
	for _, m := range applied {
		rows.AddRow(m.Module, m.Version, m.Name, m.Checksum())
	}
	mock.ExpectQuery("SELECT module, version, name, checksum FROM " + testTable).
		WillReturnRows(rows)
}

func expectApply(mock sqlmock.Sqlmock, m Migration, sqlPattern string) {
	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO "+testTable).
		WithArgs(m.Module, m.Version, m.Name, m.Checksum(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func usersMigrations() []Migration {
	return []Migration{
		New("users", 1, "create_users_table", "CREATE TABLE users_t1 LIKE t"),
		New("users", 2, "add_email_index", "CREATE INDEX users_email_idx ON users_t1"),
		New("users", 3, "add_age_column", "ALTER TABLE users_t1 ADD COLUMN age INTEGER"),
	}
}

func TestRunAppliesAllThenSkipsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ms := usersMigrations()

	// first run: everything pending
	expectLock(mock)
	expectEnsure(mock)
	expectLedgerLoad(mock)
	expectApply(mock, ms[0], "CREATE TABLE users_t1")
	expectApply(mock, ms[1], "CREATE INDEX users_email_idx")
	expectApply(mock, ms[2], "ALTER TABLE users_t1 ADD COLUMN age")
	expectUnlock(mock)

	// second run: ledger already holds all three
	expectLock(mock)
	expectEnsure(mock)
	expectLedgerLoad(mock, ms...)
	expectUnlock(mock)

	r := NewRunner(db, testTable, nil)

	sum, err := r.Run(context.Background(), ms)
	require.NoError(t, err)
	require.Equal(t, Summary{Applied: 3, Skipped: 0}, sum)

	sum, err = r.Run(context.Background(), ms)
	require.NoError(t, err)
	require.Equal(t, Summary{Applied: 0, Skipped: 3}, sum)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunExecutesVersionsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	v1 := New("users", 1, "first", "CREATE TABLE ordering_v1 LIKE t")
	v2 := New("users", 2, "second", "CREATE TABLE ordering_v2 LIKE t")

	expectLock(mock)
	expectEnsure(mock)
	expectLedgerLoad(mock)
	// ordered expectations: v1 must execute before v2
	expectApply(mock, v1, "CREATE TABLE ordering_v1")
	expectApply(mock, v2, "CREATE TABLE ordering_v2")
	expectUnlock(mock)

	r := NewRunner(db, testTable, nil)

	// supplied out of order on purpose
	sum, err := r.Run(context.Background(), []Migration{v2, v1})
	require.NoError(t, err)
	require.Equal(t, Summary{Applied: 2, Skipped: 0}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunModulesAreIndependent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orders := New("orders", 1, "create_orders", "CREATE TABLE orders_t LIKE t")
	users := New("users", 1, "create_users", "CREATE TABLE users_t LIKE t")

	expectLock(mock)
	expectEnsure(mock)
	expectLedgerLoad(mock)
	// modules run alphabetically
	expectApply(mock, orders, "CREATE TABLE orders_t")
	expectApply(mock, users, "CREATE TABLE users_t")
	expectUnlock(mock)

	r := NewRunner(db, testTable, nil)
	sum, err := r.Run(context.Background(), []Migration{users, orders})
	require.NoError(t, err)
	require.Equal(t, Summary{Applied: 2, Skipped: 0}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunChecksumMismatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New("users", 1, "create_users", "CREATE TABLE users_t LIKE t")

	expectLock(mock)
	expectEnsure(mock)
	rows := sqlmock.NewRows([]string{"module", "version", "name", "checksum"}).
		AddRow(m.Module, m.Version, m.Name, "stale-checksum")
	mock.ExpectQuery("SELECT module, version, name, checksum FROM " + testTable).
		WillReturnRows(rows)
	expectUnlock(mock)

	r := NewRunner(db, testTable, nil)
	_, err = r.Run(context.Background(), []Migration{m})
	require.ErrorIs(t, err, ErrChecksumMismatch)
	require.Contains(t, err.Error(), "users:version_1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunFailureAbortsAndResumes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ms := usersMigrations()

	// v1 applies, v2 fails, v3 must not be attempted
	expectLock(mock)
	expectEnsure(mock)
	expectLedgerLoad(mock)
	expectApply(mock, ms[0], "CREATE TABLE users_t1")
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX users_email_idx").
		WillReturnError(errSyntax)
	mock.ExpectRollback()
	expectUnlock(mock)

	r := NewRunner(db, testTable, nil)
	sum, err := r.Run(context.Background(), ms)
	require.Error(t, err)
	require.Contains(t, err.Error(), "users:version_2")
	require.Contains(t, err.Error(), "syntax error")
	require.Equal(t, 1, sum.Applied)

	// rerun: v1 skipped, v2 and v3 re-attempted
	expectLock(mock)
	expectEnsure(mock)
	expectLedgerLoad(mock, ms[0])
	expectApply(mock, ms[1], "CREATE INDEX users_email_idx")
	expectApply(mock, ms[2], "ALTER TABLE users_t1 ADD COLUMN age")
	expectUnlock(mock)

	sum, err = r.Run(context.Background(), ms)
	require.NoError(t, err)
	require.Equal(t, Summary{Applied: 2, Skipped: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLockTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(false))

	r := NewRunner(db, testTable, nil)
	r.LockTimeout = 0

	_, err = r.Run(context.Background(), usersMigrations())
	require.ErrorIs(t, err, lock.ErrTimeout)
}

func TestStatusFreshLedgerIsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectEnsure(mock)
	mock.ExpectQuery("SELECT module, version, name, checksum, applied_at, execution_time_ms FROM " + testTable).
		WillReturnRows(sqlmock.NewRows([]string{"module", "version", "name", "checksum", "applied_at", "execution_time_ms"}))

	r := NewRunner(db, testTable, nil)
	entries, err := r.Status(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusReturnsEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	appliedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	expectEnsure(mock)
	rows := sqlmock.NewRows([]string{"module", "version", "name", "checksum", "applied_at", "execution_time_ms"}).
		AddRow("users", 1, "create_users_table", "abc", appliedAt, int64(12)).
		AddRow("users", 2, "add_email_index", "def", appliedAt, int64(3))
	mock.ExpectQuery("SELECT module, version, name, checksum, applied_at, execution_time_ms FROM " + testTable).
		WillReturnRows(rows)

	r := NewRunner(db, testTable, nil)
	entries, err := r.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "users", entries[0].Module)
	require.Equal(t, 1, entries[0].Version)
	require.Equal(t, appliedAt, entries[0].AppliedAt)
	require.Equal(t, int64(12), entries[0].ExecutionTimeMS)
	require.NoError(t, mock.ExpectationsWereMet())
}

var errSyntax = &pgError{msg: "syntax error at or near \"INDEX\""}

type pgError struct{ msg string }

func (e *pgError) Error() string { return e.msg }
