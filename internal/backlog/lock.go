package backlog

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrSweepInProgress is returned when another sweep holds the lock
var ErrSweepInProgress = errors.New("backlog sweep already in progress")

// Locker provides mutual exclusion for sweeps across processes
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RedisLocker uses redislock so that only one replica sweeps at a time
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a locker on rdb
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

// Obtain implements Locker
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrSweepInProgress
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}
