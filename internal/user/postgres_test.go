package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, func() { db.Close() }
}

func userRows(users ...User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "username", "email", "full_name", "age", "created_at", "updated_at"})
	for _, u := range users {
		var age any
		if u.Age != nil {
			age = int64(*u.Age)
		}
		rows.AddRow(u.ID, u.Username, u.Email, u.FullName, age, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func TestPostgresCreate(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	u := validUser()
	u.CreatedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Username, u.Email, u.FullName, sql.NullInt64{Int64: 30, Valid: true}, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, u, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUniqueViolation(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	u := validUser()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), u)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.FieldErrors, "username")

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err = repo.Create(context.Background(), u)
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.FieldErrors, "email")
}

func TestPostgresGet(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	u := validUser()
	mock.ExpectQuery("SELECT id, username, email, full_name, age, created_at, updated_at FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnRows(userRows(u))

	got, err := repo.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)
	require.NotNil(t, got.Age)
	require.Equal(t, 30, *got.Age)
}

func TestPostgresGetNotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	u := validUser()
	mock.ExpectQuery("SELECT id, username, email, full_name, age, created_at, updated_at FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnRows(userRows())

	_, err := repo.Get(context.Background(), u.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUpdateNotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	u := validUser()
	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), u)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresDelete(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	u := validUser()
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), u.ID))

	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), u.ID), ErrNotFound)
}

func TestPostgresList(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	alice := validUser()
	carol := validUser()
	carol.Username = "carol"
	carol.Email = "carol@example.com"
	carol.Age = nil

	mock.ExpectQuery("SELECT id, username, email, full_name, age, created_at, updated_at FROM users ORDER BY username").
		WillReturnRows(userRows(alice, carol))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Nil(t, users[1].Age)
}

func TestPostgresFindByAgeRange(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	alice := validUser()
	mock.ExpectQuery("SELECT id, username, email, full_name, age, created_at, updated_at FROM users WHERE age BETWEEN").
		WithArgs(20, 40).
		WillReturnRows(userRows(alice))

	users, err := repo.FindByAgeRange(context.Background(), 20, 40)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestPostgresCount(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, n)
}
