package postgres

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/elitan/terra/dbcore"
)

// Conn returns the live *sql.DB (spec.md §5: "connection owned
// exclusively by Executor").
func (p *Provider) Conn() *sql.DB { return p.DB }

// lockKey derives a stable int64 advisory lock key from a caller-supplied
// name (spec.md §4.5: "derived from a caller-supplied lock name via a
// stable hash").
func lockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// AcquireLock implements spec.md §4.5's advisory-lock protocol: poll
// pg_try_advisory_lock with exponential backoff (100ms initial, 5s cap)
// until it succeeds or timeout elapses.
func (p *Provider) AcquireLock(ctx context.Context, name string, timeout time.Duration) (func(context.Context) error, error) {
	key := lockKey(name)
	deadline := time.Now().Add(timeout)
	backoff := 100 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		var acquired bool
		if err := p.DB.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
			return nil, &dbcore.DriverError{Message: err.Error()}
		}
		if acquired {
			return func(ctx context.Context) error {
				_, err := p.DB.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, key)
				return err
			}, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return nil, &dbcore.LockTimeoutError{LockName: name, Timeout: timeout.String()}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
