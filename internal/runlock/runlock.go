// Package runlock keeps two hosts from producing the same report at once.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Minute

var (
	ErrLocked  = errors.New("report run already in progress")
	ErrNotHeld = errors.New("run lock no longer held")
)

// release deletes the key only while it still carries our token
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out expiring run leases stored in Redis
type Locker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewLocker creates a locker. A non-positive ttl uses DefaultTTL.
func NewLocker(redisClient *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{redis: redisClient, ttl: ttl}
}

// Lease is a held run lock
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Key returns the Redis key guarding a named job
func Key(name string) string {
	return fmt.Sprintf("report_lock:%s", name)
}

// Acquire takes the lock for name, or returns ErrLocked when another
// holder has it.
func (l *Locker) Acquire(ctx context.Context, name string) (*Lease, error) {
	key := Key(name)
	token := uuid.New().String()

	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, name)
	}

	return &Lease{locker: l, key: key, token: token}, nil
}

// Release gives the lock back. ErrNotHeld means it expired and may now
// belong to someone else.
func (le *Lease) Release(ctx context.Context) error {
	n, err := release.Run(ctx, le.locker.redis, []string{le.key}, le.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
