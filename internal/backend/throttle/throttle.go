// Package throttle limits how fast the client may create stories and report
// views, using Redis token buckets keyed by viewer.
package throttle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/ratelimit"
	"github.com/princekumarofficial/stories-client/internal/types"
)

const (
	ActionCreate = "create"
	ActionView   = "view"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter is satisfied by *ratelimit.TokenBucket.
type Limiter interface {
	Allow(ctx context.Context, userID, action string) (bool, error)
}

type Backend struct {
	next     backend.Backend
	viewerID string
	limiters map[string]Limiter
	logger   *slog.Logger
}

// New wraps next. Actions without a limiter pass through.
func New(next backend.Backend, viewerID string, limiters map[string]Limiter, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		next:     next,
		viewerID: viewerID,
		limiters: limiters,
		logger:   logger,
	}
}

// NewRedis limits creates and views with the given Redis buckets.
func NewRedis(next backend.Backend, viewerID string, create, view *ratelimit.TokenBucket, logger *slog.Logger) *Backend {
	return New(next, viewerID, map[string]Limiter{
		ActionCreate: create,
		ActionView:   view,
	}, logger)
}

// allow fails open when the limiter itself errors.
func (b *Backend) allow(ctx context.Context, action string) error {
	limiter, ok := b.limiters[action]
	if !ok || limiter == nil {
		return nil
	}

	allowed, err := limiter.Allow(ctx, b.viewerID, action)
	if err != nil {
		b.logger.Warn("Rate limiter unavailable, allowing request",
			"action", action,
			"error", err.Error())
		return nil
	}
	if !allowed {
		return backend.Fail(ErrRateLimited, ErrRateLimited.Error())
	}
	return nil
}

func (b *Backend) FetchStories(ctx context.Context) (types.Collection, error) {
	return b.next.FetchStories(ctx)
}

func (b *Backend) CreateStory(ctx context.Context, req types.CreateStoryRequest) (types.Story, error) {
	if err := b.allow(ctx, ActionCreate); err != nil {
		return types.Story{}, err
	}
	return b.next.CreateStory(ctx, req)
}

func (b *Backend) ViewStory(ctx context.Context, storyID string, req types.ViewStoryRequest) (types.ViewStoryResponse, error) {
	if err := b.allow(ctx, ActionView); err != nil {
		return types.ViewStoryResponse{}, err
	}
	return b.next.ViewStory(ctx, storyID, req)
}

var _ backend.Backend = (*Backend)(nil)
