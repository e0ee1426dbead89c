package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// Conn returns the live *sql.DB (spec.md §5: "connection owned
// exclusively by Executor").
func (p *Provider) Conn() *sql.DB { return p.DB }

// AcquireLock is a no-op for SQLite, which has no server-side advisory
// lock concept; the file-level locking SQLite already does for every
// write transaction is sufficient for the single-process use this
// provider targets, so the returned release func does nothing.
func (p *Provider) AcquireLock(ctx context.Context, name string, timeout time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
