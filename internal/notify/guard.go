package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// CompletionGuard decides whether a completion notice for a PO has already gone out
type CompletionGuard interface {
	// FirstCompletion marks po as announced and reports whether it was not already
	FirstCompletion(ctx context.Context, po string) bool
	// Reset forgets the mark once the PO is no longer complete
	Reset(ctx context.Context, po string)
}

// NoopGuard lets every completion through
type NoopGuard struct{}

// FirstCompletion implements CompletionGuard
func (NoopGuard) FirstCompletion(context.Context, string) bool { return true }

// Reset implements CompletionGuard
func (NoopGuard) Reset(context.Context, string) {}

// RedisGuard keeps one marker key per announced PO
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard creates a guard whose markers expire after ttl
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func completionKey(po string) string {
	return "receiving:completion-notified:" + po
}

// FirstCompletion implements CompletionGuard. Redis errors let the notice through.
func (g *RedisGuard) FirstCompletion(ctx context.Context, po string) bool {
	ok, err := g.client.SetNX(ctx, completionKey(po), 1, g.ttl).Result()
	if err != nil {
		log.Printf("⚠️  Completion guard unavailable for PO %s: %v", po, err)
		return true
	}
	return ok
}

// Reset implements CompletionGuard
func (g *RedisGuard) Reset(ctx context.Context, po string) {
	if err := g.client.Del(ctx, completionKey(po)).Err(); err != nil {
		log.Printf("⚠️  Failed to reset completion guard for PO %s: %v", po, err)
	}
}
