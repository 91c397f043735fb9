// Package memory is an in-process stand-in for the stories API, used for
// offline development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/types"
)

var ErrStoryNotFound = errors.New("story not found")

// TimestampLayout matches the millisecond ISO-8601 form most clients emit.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Backend struct {
	mu      sync.Mutex
	ownerID string
	now     func() time.Time
	stories types.Collection
}

// New creates an empty backend whose created stories belong to ownerID.
func New(ownerID string) *Backend {
	return &Backend{
		ownerID: ownerID,
		now:     time.Now,
		stories: types.Collection{},
	}
}

// WithClock replaces the clock used to stamp created stories.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	b.now = now
	return b
}

// Seed stores story as if it had been created earlier.
func (b *Backend) Seed(story types.Story) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stories[story.UserID] = append(b.stories[story.UserID], story)
}

func (b *Backend) FetchStories(ctx context.Context) (types.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.Fail(err, "")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stories.Clone(), nil
}

func (b *Backend) CreateStory(ctx context.Context, req types.CreateStoryRequest) (types.Story, error) {
	if err := ctx.Err(); err != nil {
		return types.Story{}, backend.Fail(err, "")
	}

	story := types.Story{
		ID:        uuid.New().String(),
		UserID:    b.ownerID,
		Media:     req.Media,
		Type:      req.Type,
		Timestamp: b.now().UTC().Format(TimestampLayout),
		Views:     0,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.stories[story.UserID] = append(b.stories[story.UserID], story)

	return story, nil
}

func (b *Backend) ViewStory(ctx context.Context, storyID string, req types.ViewStoryRequest) (types.ViewStoryResponse, error) {
	if err := ctx.Err(); err != nil {
		return types.ViewStoryResponse{}, backend.Fail(err, "")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for userID, stories := range b.stories {
		for i := range stories {
			if stories[i].ID == storyID {
				b.stories[userID][i].Views++
				return types.ViewStoryResponse{StoryID: storyID}, nil
			}
		}
	}

	return types.ViewStoryResponse{}, backend.Fail(ErrStoryNotFound, "")
}
