package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/types"
)

// CollectionKey holds the JSON encoded result of the last fetch.
const CollectionKey = "stories:collection"

// CollectionCacheDuration keeps the feed hot for a short while; stories
// expire too quickly for anything longer.
const CollectionCacheDuration = 45 * time.Second

// Backend wraps another backend with a Redis read-through cache for
// FetchStories.
type Backend struct {
	next   backend.Backend
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewBackend creates a caching decorator around next.
func NewBackend(next backend.Backend, redisClient *redis.Client, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		next:   next,
		redis:  redisClient,
		ttl:    CollectionCacheDuration,
		logger: logger,
	}
}

// FetchStories returns the cached collection or fetches and caches it
func (c *Backend) FetchStories(ctx context.Context) (types.Collection, error) {
	// Try cache first
	cached, err := c.redis.Get(ctx, CollectionKey).Bytes()
	if err == nil {
		var stories types.Collection
		if err := json.Unmarshal(cached, &stories); err == nil {
			return stories, nil
		}
		c.logger.Warn("Discarding unreadable cached stories", "key", CollectionKey)
	} else if err != redis.Nil {
		c.logger.Warn("Stories cache unavailable", "error", err.Error())
	}

	// Cache miss
	stories, err := c.next.FetchStories(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(stories)
	if err == nil {
		if err := c.redis.Set(ctx, CollectionKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache stories", "error", err.Error())
		}
	}

	return stories, nil
}

// CreateStory passes through and invalidates the cached collection on success
func (c *Backend) CreateStory(ctx context.Context, req types.CreateStoryRequest) (types.Story, error) {
	story, err := c.next.CreateStory(ctx, req)
	if err != nil {
		return story, err
	}

	c.Invalidate(ctx)
	return story, nil
}

func (c *Backend) ViewStory(ctx context.Context, storyID string, req types.ViewStoryRequest) (types.ViewStoryResponse, error) {
	return c.next.ViewStory(ctx, storyID, req)
}

// Invalidate drops the cached collection
func (c *Backend) Invalidate(ctx context.Context) {
	if err := c.redis.Del(ctx, CollectionKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate stories cache", "error", err.Error())
	}
}

var _ backend.Backend = (*Backend)(nil)
