package types

import (
	"encoding/json"
	"sort"
)

type StoryType string

const (
	StoryTypeImage StoryType = "image"
	StoryTypeVideo StoryType = "video"
)

// Story is immutable once created; only the backend bumps Views.
type Story struct {
	ID        string    `json:"id" validate:"required"`
	UserID    string    `json:"userId" validate:"required"`
	Media     string    `json:"media"`
	Type      StoryType `json:"type" validate:"oneof=image video"`
	Timestamp string    `json:"timestamp"`
	Views     int       `json:"views" validate:"min=0"`
	Duration  *float64  `json:"duration,omitempty"`
}

// Collection maps a user id to that user's stories in arrival order.
type Collection map[string][]Story

// Clone returns a deep copy of the collection. A nil collection clones to an
// empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for userID, stories := range c {
		cp := make([]Story, len(stories))
		copy(cp, stories)
		out[userID] = cp
	}
	return out
}

// Len returns the total number of stories across all users.
func (c Collection) Len() int {
	n := 0
	for _, stories := range c {
		n += len(stories)
	}
	return n
}

// ViewedSet holds the ids of stories the current viewer has opened.
type ViewedSet map[string]struct{}

func (v ViewedSet) Has(storyID string) bool {
	_, ok := v[storyID]
	return ok
}

// Add inserts storyID and reports whether it was new.
func (v ViewedSet) Add(storyID string) bool {
	if v.Has(storyID) {
		return false
	}
	v[storyID] = struct{}{}
	return true
}

func (v ViewedSet) Clone() ViewedSet {
	out := make(ViewedSet, len(v))
	for id := range v {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the members sorted.
func (v ViewedSet) IDs() []string {
	ids := make([]string, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (v ViewedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.IDs())
}

func (v *ViewedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*v = make(ViewedSet, len(ids))
	for _, id := range ids {
		(*v)[id] = struct{}{}
	}
	return nil
}

type CreateStoryRequest struct {
	Media string    `json:"media" validate:"required"`
	Type  StoryType `json:"type" validate:"required"`
}

type ViewStoryRequest struct {
	UserID string `json:"userId"`
}

type ViewStoryResponse struct {
	StoryID string `json:"storyId" validate:"required"`
}
