package user

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const userColumns = "id, username, email, full_name, age, created_at, updated_at"

// PostgresRepository persists users in the table owned by this
// module's migrations.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, full_name, age, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.FullName, nullableAge(u.Age), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if conflict := mapUniqueViolation(err, u); conflict != nil {
			return User{}, conflict
		}
		return User{}, errors.Wrap(err, "insert user")
	}
	return u, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) Update(ctx context.Context, u User) (User, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET username = $2, email = $3, full_name = $4, age = $5, updated_at = $6
WHERE id = $1`,
		u.ID, u.Username, u.Email, u.FullName, nullableAge(u.Age), u.UpdatedAt,
	)
	if err != nil {
		if conflict := mapUniqueViolation(err, u); conflict != nil {
			return User{}, conflict
		}
		return User{}, errors.Wrap(err, "update user")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return User{}, errors.Wrap(err, "update user rows affected")
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete user rows affected")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *PostgresRepository) FindByAgeRange(ctx context.Context, minAge, maxAge int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE age BETWEEN $1 AND $2 ORDER BY username`,
		minAge, maxAge)
	if err != nil {
		return nil, errors.Wrap(err, "find users by age range")
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	if err := row.Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	var age sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &age, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, errors.Wrap(err, "scan user")
	}
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	return u, nil
}

func collectUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var age sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &age, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		if age.Valid {
			v := int(age.Int64)
			u.Age = &v
		}
		out = append(out, u)
	}
	return out, errors.Wrap(rows.Err(), "iterate users")
}

func nullableAge(age *int) sql.NullInt64 {
	if age == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*age), Valid: true}
}

// mapUniqueViolation turns a Postgres unique-constraint failure into
// the same validation error the in-memory repository produces.
func mapUniqueViolation(err error, u User) *ValidationError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return validationErrorf("email", "email %q is already registered", u.Email)
	default:
		return validationErrorf("username", "username %q is already taken", u.Username)
	}
}
