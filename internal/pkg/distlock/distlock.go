// Package distlock keeps scheduled analysis runs from overlapping when
// several server replicas share a source.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a non-blocking mutual exclusion lock shared between processes.
// A Lock value is meant for one goroutine at a time.
type Lock interface {
	// TryLock reports whether the lock was taken.
	TryLock(ctx context.Context) (bool, error)
	// Unlock releases the lock if this holder still owns it.
	Unlock(ctx context.Context) error
}

// New picks Redis when a client is given, else a PostgreSQL advisory lock.
// It returns nil when neither backend is available.
func New(client *redis.Client, db *sql.DB, key string, ttl time.Duration) Lock {
	switch {
	case client != nil:
		return NewRedisLock(client, key, ttl)
	case db != nil:
		return NewPGLock(db, key)
	}
	return nil
}

// PGLock uses session-scoped pg_try_advisory_lock. A dropped connection
// releases it.
type PGLock struct {
	db *sql.DB
	id int64
}

// NewPGLock derives the advisory lock id from key.
func NewPGLock(db *sql.DB, key string) *PGLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGLock{db: db, id: int64(h.Sum64())}
}

// TryLock implements Lock.
func (l *PGLock) TryLock(ctx context.Context) (bool, error) {
	var ok bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.id).Scan(&ok)
	return ok, err
}

// Unlock implements Lock.
func (l *PGLock) Unlock(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.id)
	return err
}
