package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ViewCounter decides whether a question view should increment the counter.
type ViewCounter interface {
	ShouldCount(ctx context.Context, questionID uint, viewer string) bool
}

type redisViewCounter struct {
	client *redis.Client
	prefix string
	window time.Duration
	logger zerolog.Logger
}

// NewRedisViewCounter counts one view per viewer per question within window.
func NewRedisViewCounter(client *redis.Client, prefix string, window time.Duration, logger zerolog.Logger) ViewCounter {
	if window <= 0 {
		window = time.Hour
	}
	return &redisViewCounter{
		client: client,
		prefix: prefix,
		window: window,
		logger: logger.With().Str("component", "view_counter").Logger(),
	}
}

// ShouldCount records the view and reports whether it is the first one in the
// window. Redis failures count the view.
func (c *redisViewCounter) ShouldCount(ctx context.Context, questionID uint, viewer string) bool {
	if viewer == "" {
		return true
	}
	key := fmt.Sprintf("%s:views:%d:%s", c.prefix, questionID, viewer)
	first, err := c.client.SetNX(ctx, key, 1, c.window).Result()
	if err != nil {
		c.logger.Warn().Err(err).Uint("question_id", questionID).Msg("view de-duplication unavailable")
		return true
	}
	return first
}
