// Package lock guards the migration run sequence with a Postgres
// session-level advisory lock held on a dedicated connection.
package lock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"io"
	"time"

	"github.com/pkg/errors"
)

var ErrTimeout = errors.New("advisory lock wait timeout")

const pollInterval = 250 * time.Millisecond

// Advisory wraps pg_try_advisory_lock/pg_advisory_unlock. The lock is
// session scoped, so it lives on its own *sql.Conn for its whole
// lifetime.
type Advisory struct {
	conn *sql.Conn
	key  int64
	held bool
}

func New(key int64) *Advisory {
	return &Advisory{key: key}
}

// Acquire polls pg_try_advisory_lock until it succeeds or timeout
// elapses. Safe to call when already held.
func (a *Advisory) Acquire(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if a.held {
		return nil
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire lock connection")
	}
	deadline := time.Now().Add(timeout)
	for {
		var got bool
		row := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", a.key)
		if err := row.Scan(&got); err != nil {
			_ = conn.Close()
			return errors.Wrap(err, "try advisory lock")
		}
		if got {
			a.conn = conn
			a.held = true
			return nil
		}
		if time.Now().After(deadline) {
			_ = conn.Close()
			return ErrTimeout
		}
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Release unlocks and returns the connection to the pool. Release
// failures are swallowed; closing the session drops the lock anyway.
func (a *Advisory) Release(ctx context.Context) error {
	if !a.held || a.conn == nil {
		return nil
	}
	var unlocked bool
	row := a.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", a.key)
	_ = row.Scan(&unlocked)
	a.held = false
	return a.conn.Close()
}

func (a *Advisory) Key() int64 { return a.key }

// KeyFor derives the bigint lock key from a scope and the ledger
// table name; Postgres advisory locks are keyed by int64, not string.
func KeyFor(scope, table string) int64 {
	h := fnv.New64a()
	_, _ = io.WriteString(h, scope+":"+table)
	return int64(h.Sum64())
}
