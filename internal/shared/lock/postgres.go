package lock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"time"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

const (
	tryLockSQL        = `SELECT pg_try_advisory_lock(hashtext($1))`
	advisoryUnlockSQL = `SELECT pg_advisory_unlock(hashtext($1))`

	defaultRetryMin = 25 * time.Millisecond
	defaultRetryMax = 500 * time.Millisecond
)

// Postgres takes session-level advisory locks. A held lock pins one pooled
// connection until it is released; a waiter holds no connection between
// attempts, so contention on one key never starves the pool.
type Postgres struct {
	DB *sql.DB

	// RetryMin and RetryMax bound the backoff between try-lock attempts.
	RetryMin time.Duration
	RetryMax time.Duration
}

// NewPostgres returns an advisory locker over db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db, RetryMin: defaultRetryMin, RetryMax: defaultRetryMax}
}

func (p *Postgres) Lock(ctx context.Context, key string) (Unlock, error) {
	wait := p.RetryMin
	if wait <= 0 {
		wait = defaultRetryMin
	}
	maxWait := p.RetryMax
	if maxWait < wait {
		maxWait = wait
	}

	for {
		conn, ok, err := p.tryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return p.unlocker(conn, key), nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > maxWait {
			wait = maxWait
		}
	}
}

// tryLock makes one attempt. On success the returned connection carries the
// lock; otherwise the connection is already back in the pool.
func (p *Postgres) tryLock(ctx context.Context, key string) (*sql.Conn, bool, error) {
	conn, err := p.DB.Conn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, apperr.Storage("lock.conn", err)
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, tryLockSQL, key).Scan(&acquired); err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, apperr.Storage("lock.acquire", err)
	}
	if !acquired {
		conn.Close()
		return nil, false, nil
	}
	return conn, true, nil
}

func (p *Postgres) unlocker(conn *sql.Conn, key string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.ExecContext(releaseCtx, advisoryUnlockSQL, key); err != nil {
				telemetry.Error("lock.release_failed", map[string]any{
					"key":   key,
					"error": err,
				})
				// Discard the session so the server drops the lock with it.
				_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			}
			conn.Close()
		})
	}
}

var _ Locker = (*Postgres)(nil)
