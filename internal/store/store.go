package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/types"
)

// StoryExpiry is how long a story stays visible after its timestamp.
const StoryExpiry = 24 * time.Hour

// Listener receives every committed action with the state it produced.
// Listeners run on the dispatching goroutine and must not dispatch.
type Listener func(action Action, state State)

// Store holds all story state of a client session.
type Store struct {
	backend backend.Backend
	logger  *slog.Logger

	// dispatchMu serializes mutations and listener delivery.
	dispatchMu sync.Mutex

	mu    sync.RWMutex
	state State

	listenersMu sync.Mutex
	nextID      int
	listeners   map[int]Listener
}

// New creates an empty store backed by b. A nil logger uses slog.Default().
func New(b backend.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		backend: b,
		logger:  logger,
		state: State{
			Stories: types.Collection{},
			Viewed:  types.ViewedSet{},
			Status:  StatusIdle,
		},
		listeners: make(map[int]Listener),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.clone()
}

// Subscribe registers l and returns a func that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

// commit applies mutate atomically and notifies listeners. mutate returns
// false when nothing changed, in which case listeners are not called.
func (s *Store) commit(action Action, mutate func(st *State) bool) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !mutate(&s.state) {
		s.mu.Unlock()
		return
	}
	s.state.Version++
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(action, snapshot)
	}
}

// MarkStoryAsViewed records storyID as seen. Repeated calls are no-ops.
func (s *Store) MarkStoryAsViewed(storyID string) {
	s.commit(ActionMarkStoryAsViewed, func(st *State) bool {
		return st.Viewed.Add(storyID)
	})
}

// AddStory appends story to its owner's sequence. Duplicate ids are not
// detected.
func (s *Store) AddStory(story types.Story) {
	s.commit(ActionAddStory, func(st *State) bool {
		appendStory(st.Stories, story)
		return true
	})
}

// RemoveStory deletes the first story of userID with id storyID.
func (s *Store) RemoveStory(userID, storyID string) {
	s.commit(ActionRemoveStory, func(st *State) bool {
		stories, ok := st.Stories[userID]
		if !ok {
			return false
		}
		for i, story := range stories {
			if story.ID == storyID {
				st.Stories[userID] = append(stories[:i:i], stories[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ClearExpiredStories drops every story whose age at now is StoryExpiry or
// more, and stories whose timestamp is not ISO-8601 at all. It returns how many were
// removed.
func (s *Store) ClearExpiredStories(now time.Time) int {
	removed := 0
	s.commit(ActionClearExpiredStories, func(st *State) bool {
		for userID, stories := range st.Stories {
			kept := make([]types.Story, 0, len(stories))
			for _, story := range stories {
				if Live(story, now) {
					kept = append(kept, story)
				}
			}
			removed += len(stories) - len(kept)
			st.Stories[userID] = kept
		}
		return removed > 0
	})
	return removed
}

// Live reports whether story is still inside the expiry window at now.
func Live(story types.Story, now time.Time) bool {
	ts, err := ParseTimestamp(story.Timestamp)
	if err != nil {
		return false
	}
	return now.Sub(ts) < StoryExpiry
}

// timestampLayouts are the ISO-8601 forms a story timestamp may take, most
// common first. Fractional seconds are accepted by every time-of-day layout.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 story timestamp. Values without an
// offset are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func appendStory(c types.Collection, story types.Story) {
	c[story.UserID] = append(c[story.UserID], story)
}
