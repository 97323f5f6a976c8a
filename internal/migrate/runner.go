package migrate

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mirajehossain/usersvc/internal/lock"
	"github.com/mirajehossain/usersvc/internal/logger"
)

const lockScope = "usersvc"

// Runner orchestrates migration execution: ensure the ledger exists,
// load applied entries, walk each module's migrations in version
// order, execute and record the pending ones.
type Runner struct {
	DB     *sql.DB
	Ledger *Ledger

	// LockTimeout bounds the wait for the advisory lock at the start
	// of Run.
	LockTimeout time.Duration

	log *logger.Logger
}

// Summary reports what a Run did.
type Summary struct {
	Applied int
	Skipped int
}

func NewRunner(database *sql.DB, table string, log *logger.Logger) *Runner {
	return &Runner{
		DB:          database,
		Ledger:      &Ledger{DB: database, Table: table},
		LockTimeout: 30 * time.Second,
		log:         log,
	}
}

// Ensure creates the ledger table if absent. Fatal for everything
// that follows when the store rejects the DDL.
func (r *Runner) Ensure(ctx context.Context) error {
	return r.Ledger.EnsureTable(ctx)
}

// Run applies every pending migration. Input order does not matter:
// migrations are grouped by module and each module's list is walked in
// ascending version order. The first execution failure aborts the
// whole call; rerunning after a failure resumes where the ledger left
// off. A single advisory lock covers the ensure/load/apply sequence
// so at most one runner mutates a given store at a time.
func (r *Runner) Run(ctx context.Context, migrations []Migration) (Summary, error) {
	var sum Summary

	adv := lock.New(lock.KeyFor(lockScope, r.Ledger.Table))
	if err := adv.Acquire(ctx, r.DB, r.LockTimeout); err != nil {
		return sum, errors.Wrap(err, "acquire migration lock")
	}
	defer func() { _ = adv.Release(ctx) }()

	if err := r.Ensure(ctx); err != nil {
		return sum, err
	}
	applied, err := r.Ledger.GetAll(ctx)
	if err != nil {
		return sum, err
	}

	r.info("starting migration check", map[string]any{
		"previously_applied": len(applied),
		"total":              len(migrations),
	})

	for _, module := range groupByModule(migrations) {
		r.info("module", map[string]any{"module": module.name})
		for _, m := range module.migrations {
			entry, ok := applied[m.key()]
			if ok {
				if entry.Checksum != m.Checksum() {
					return sum, checksumMismatch(m, entry.Checksum)
				}
				r.debug("skipping (already applied)", map[string]any{
					"id": m.ID(), "name": m.Name,
				})
				sum.Skipped++
				continue
			}
			elapsed, err := r.apply(ctx, m)
			if err != nil {
				return sum, err
			}
			r.info("applied", map[string]any{
				"id": m.ID(), "name": m.Name, "duration_ms": elapsed,
			})
			sum.Applied++
		}
	}

	r.info("migration run complete", map[string]any{
		"applied": sum.Applied, "skipped": sum.Skipped,
	})
	return sum, nil
}

// apply executes one migration's SQL and its ledger insert in a
// single transaction, returning the measured SQL execution time.
func (r *Runner) apply(ctx context.Context, m Migration) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "begin transaction for %s", m.ID())
	}

	start := time.Now()
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return 0, errors.Wrapf(err, "migration %s failed", m.ID())
	}
	elapsed := time.Since(start).Milliseconds()

	if err := r.Ledger.InsertTx(ctx, tx, m, elapsed); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(err, "commit migration %s", m.ID())
	}
	return elapsed, nil
}

// Status ensures the ledger exists and returns every applied entry,
// ordered by module then version. Read-only beyond table creation.
func (r *Runner) Status(ctx context.Context) ([]Entry, error) {
	if err := r.Ensure(ctx); err != nil {
		return nil, err
	}
	return r.Ledger.Status(ctx)
}

type moduleGroup struct {
	name       string
	migrations []Migration
}

// groupByModule buckets migrations per module, versions ascending.
// Module iteration order is alphabetical; modules are independent, so
// any deterministic order will do.
func groupByModule(migrations []Migration) []moduleGroup {
	byModule := map[string][]Migration{}
	for _, m := range migrations {
		byModule[m.Module] = append(byModule[m.Module], m)
	}

	names := make([]string, 0, len(byModule))
	for name := range byModule {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]moduleGroup, 0, len(names))
	for _, name := range names {
		ms := byModule[name]
		sort.Slice(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
		out = append(out, moduleGroup{name: name, migrations: ms})
	}
	return out
}

func (r *Runner) info(msg string, fields map[string]any) {
	if r.log != nil {
		r.log.Info(msg, fields)
	}
}

func (r *Runner) debug(msg string, fields map[string]any) {
	if r.log != nil {
		r.log.Debug(msg, fields)
	}
}
