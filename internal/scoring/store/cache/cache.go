// Package cache puts a Redis read-through cache in front of the score store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"talaty/internal/scoring/metrics"
	"talaty/internal/scoring/models"
	id "talaty/pkg/domain"
)

const keyPrefix = "talaty:score:"

// Store is the persistent score store being cached.
type Store interface {
	FindByUser(ctx context.Context, userID id.UserID) (*models.Score, error)
	Upsert(ctx context.Context, score *models.Score) error
	Stats(ctx context.Context) (models.ScoreStats, error)
}

// CachedStore serves FindByUser from Redis and invalidates on Upsert.
// Redis failures are logged and fall through to the inner store.
//
// Upsert may run inside a transaction, so a reader can miss between the
// invalidation and the commit and load the previous row. Read-through fills
// therefore only populate an empty key, and the writer calls Prime once the
// transaction has committed to overwrite whatever a reader left behind.
type CachedStore struct {
	inner   Store
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*CachedStore)

func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *CachedStore) {
		c.metrics = m
	}
}

func New(inner Store, client redis.Cmdable, ttl time.Duration, opts ...Option) *CachedStore {
	c := &CachedStore{inner: inner, client: client, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(userID id.UserID) string {
	return keyPrefix + userID.String()
}

func (c *CachedStore) FindByUser(ctx context.Context, userID id.UserID) (*models.Score, error) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	switch {
	case err == nil:
		var score models.Score
		if jsonErr := json.Unmarshal(raw, &score); jsonErr == nil {
			c.record("hit")
			return &score, nil
		}
		c.logger.WarnContext(ctx, "discarding unreadable cached score", "user_id", userID.String())
		c.record("error")
	case errors.Is(err, redis.Nil):
		c.record("miss")
	default:
		c.logger.WarnContext(ctx, "score cache read failed", "user_id", userID.String(), "error", err)
		c.record("error")
	}

	score, err := c.inner.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(score); err == nil {
		if err := c.client.SetNX(ctx, key(userID), payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "score cache write failed", "user_id", userID.String(), "error", err)
		}
	}
	return score, nil
}

// Prime stores a committed score, replacing any cached entry.
func (c *CachedStore) Prime(ctx context.Context, score *models.Score) {
	payload, err := json.Marshal(score)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(score.UserID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "score cache prime failed", "user_id", score.UserID.String(), "error", err)
		// a stale entry must not outlive a failed prime
		_ = c.client.Del(ctx, key(score.UserID)).Err()
	}
}

// Upsert writes through and drops the cached entry.
func (c *CachedStore) Upsert(ctx context.Context, score *models.Score) error {
	if err := c.inner.Upsert(ctx, score); err != nil {
		return err
	}
	if err := c.client.Del(ctx, key(score.UserID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "score cache invalidation failed", "user_id", score.UserID.String(), "error", err)
	}
	return nil
}

func (c *CachedStore) Stats(ctx context.Context) (models.ScoreStats, error) {
	return c.inner.Stats(ctx)
}

func (c *CachedStore) record(result string) {
	if c.metrics != nil {
		c.metrics.IncrementCacheLookup(result)
	}
}
