package store

import (
	"context"

	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/types"
)

// DefaultFetchError is recorded when a fetch fails without a message.
const DefaultFetchError = "Failed to fetch stories"

// FetchStories loads every story from the backend and replaces the whole
// collection with the result. Stories added locally since the last fetch are
// lost. The outcome is reflected in IsLoading, Error and Status.
func (s *Store) FetchStories(ctx context.Context) error {
	s.fetchPending()
	_, err := s.fetchSettle(ctx)
	return err
}

func (s *Store) fetchPending() {
	s.commit(ActionFetchPending, func(st *State) bool {
		st.IsLoading = true
		st.Error = ""
		st.Status = StatusLoading
		return true
	})
}

func (s *Store) fetchSettle(ctx context.Context) (types.Collection, error) {
	stories, err := s.backend.FetchStories(ctx)
	if err != nil {
		msg := failureMessage(err, DefaultFetchError)
		s.commit(ActionFetchRejected, func(st *State) bool {
			st.IsLoading = false
			st.Error = msg
			st.Status = StatusFailed
			return true
		})
		s.logger.Error("Failed to fetch stories", "error", msg)
		return nil, err
	}

	s.commit(ActionFetchFulfilled, func(st *State) bool {
		st.IsLoading = false
		st.Stories = stories.Clone()
		st.Status = StatusSucceeded
		return true
	})
	s.logger.Debug("Fetched stories", "users", len(stories), "stories", stories.Len())

	return stories, nil
}

// CreateStory posts a new story and appends the server's copy to its
// owner's sequence. A failure leaves the state untouched; it is only
// returned and logged.
func (s *Store) CreateStory(ctx context.Context, media string, storyType types.StoryType) (types.Story, error) {
	story, err := s.backend.CreateStory(ctx, types.CreateStoryRequest{Media: media, Type: storyType})
	if err != nil {
		s.logger.Warn("Failed to create story", "error", err.Error())
		return types.Story{}, err
	}

	s.commit(ActionCreateFulfilled, func(st *State) bool {
		appendStory(st.Stories, story)
		return true
	})
	s.logger.Info("Story created", "story_id", story.ID, "user_id", story.UserID)

	return story, nil
}

// ViewStory reports a view of storyID by userID and marks the id the server
// confirmed as viewed. Like CreateStory, failures do not touch the state.
func (s *Store) ViewStory(ctx context.Context, storyID, userID string) (string, error) {
	resp, err := s.backend.ViewStory(ctx, storyID, types.ViewStoryRequest{UserID: userID})
	if err != nil {
		s.logger.Warn("Failed to record story view",
			"story_id", storyID,
			"error", err.Error())
		return "", err
	}

	s.commit(ActionViewFulfilled, func(st *State) bool {
		return st.Viewed.Add(resp.StoryID)
	})

	return resp.StoryID, nil
}

// FetchStoriesAsync runs FetchStories on its own goroutine. The pending
// transition is committed before it returns.
func (s *Store) FetchStoriesAsync(ctx context.Context) *Future[types.Collection] {
	f := newFuture[types.Collection]()
	s.fetchPending()

	go func() {
		f.resolve(settle[types.Collection](s.fetchSettle(ctx)))
	}()

	return f
}

// CreateStoryAsync runs CreateStory on its own goroutine.
func (s *Store) CreateStoryAsync(ctx context.Context, media string, storyType types.StoryType) *Future[types.Story] {
	f := newFuture[types.Story]()
	go func() {
		f.resolve(settle[types.Story](s.CreateStory(ctx, media, storyType)))
	}()
	return f
}

// ViewStoryAsync runs ViewStory on its own goroutine.
func (s *Store) ViewStoryAsync(ctx context.Context, storyID, userID string) *Future[string] {
	f := newFuture[string]()
	go func() {
		f.resolve(settle[string](s.ViewStory(ctx, storyID, userID)))
	}()
	return f
}

func failureMessage(err error, fallback string) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return fallback
}
