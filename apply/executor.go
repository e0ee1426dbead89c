// Package apply executes a plan.MigrationPlan against a live database,
// implementing the Executor's transaction/lock/confirmation protocol
// (spec.md §4.5). Grounded on the teacher's database/database.go (RunDDLs,
// TransactionSupported) and database/dry_run.go (dry-run driver wrapper).
package apply

import (
	"context"
	"database/sql"
	"errors"

	"github.com/elitan/terra/dbcore"
	"github.com/elitan/terra/plan"
	"github.com/elitan/terra/provider"
)

// Confirm is the external yes/no prompt collaborator spec.md §4.5
// delegates to in non-auto-approve mode. Any answer other than true
// cancels the apply; no statements run.
type Confirm func(mp *plan.MigrationPlan) (bool, error)

// Result reports what Run actually did.
type Result struct {
	Plan      *plan.MigrationPlan
	DryRun    bool
	Cancelled bool
	Applied   bool
}

// Run implements spec.md §4.5's full protocol:
//  1. Dry-run short-circuits before any lock or statement.
//  2. Non-auto-approve mode asks Confirm; any non-yes cancels.
//  3. Optional advisory lock, acquired with backoff up to cfg.LockTimeout.
//  4. BEGIN; run Transactional then Deferred in one transaction; COMMIT or
//     ROLLBACK on first error.
//  5. Run Concurrent statements sequentially outside any transaction.
func Run(ctx context.Context, mp *plan.MigrationPlan, prov provider.Provider, cfg dbcore.Config, confirm Confirm) (*Result, error) {
	if cfg.DryRun {
		return &Result{Plan: mp, DryRun: true}, nil
	}
	if mp.Empty() {
		return &Result{Plan: mp, Applied: true}, nil
	}

	if !cfg.AutoApprove {
		ok, err := confirm(mp)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Result{Plan: mp, Cancelled: true}, nil
		}
	}

	if cfg.LockName != "" {
		release, err := prov.AcquireLock(ctx, cfg.LockName, cfg.LockTimeout)
		if err != nil {
			return nil, err
		}
		defer release(ctx)
	}

	if err := runTransactional(ctx, prov.Conn(), mp); err != nil {
		return nil, err
	}
	if err := runConcurrent(ctx, prov.Conn(), mp); err != nil {
		return nil, err
	}

	return &Result{Plan: mp, Applied: true}, nil
}

func runTransactional(ctx context.Context, db *sql.DB, mp *plan.MigrationPlan) error {
	if len(mp.Transactional) == 0 && len(mp.Deferred) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &dbcore.DriverError{Message: err.Error()}
	}

	run := func(stmt string) error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return &dbcore.MigrationError{Statement: stmt, Driver: driverErrorFrom(err)}
		}
		return nil
	}

	for _, stmt := range mp.Transactional {
		if err := run(stmt); err != nil {
			return err
		}
	}
	for _, stmt := range mp.Deferred {
		if err := run(stmt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &dbcore.DriverError{Message: err.Error()}
	}
	return nil
}

// runConcurrent executes statements that PostgreSQL forbids inside a
// transaction (CREATE INDEX CONCURRENTLY, ALTER TYPE ... ADD VALUE),
// sequentially, after the transactional bucket has already committed. A
// failure here leaves the database partially applied (spec.md §4.5 step
// 4), never rolled back.
func runConcurrent(ctx context.Context, db *sql.DB, mp *plan.MigrationPlan) error {
	for i, stmt := range mp.Concurrent {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return &dbcore.PartiallyAppliedError{
				Succeeded: append([]string{}, mp.Concurrent[:i]...),
				Failed:    stmt,
				Skipped:   append([]string{}, mp.Concurrent[i+1:]...),
				Driver:    driverErrorFrom(err),
			}
		}
	}
	return nil
}

func driverErrorFrom(err error) dbcore.DriverError {
	var de *dbcore.DriverError
	if errors.As(err, &de) {
		return *de
	}
	return dbcore.DriverError{Message: err.Error()}
}
