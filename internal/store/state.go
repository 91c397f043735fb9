package store

import (
	"encoding/json"

	"github.com/princekumarofficial/stories-client/internal/types"
)

// FetchStatus tracks the fetch lifecycle. Create and view are not tracked.
type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusLoading   FetchStatus = "loading"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)

// Action names the mutation that produced a state.
type Action string

const (
	ActionMarkStoryAsViewed   Action = "story/markStoryAsViewed"
	ActionAddStory            Action = "story/addStory"
	ActionRemoveStory         Action = "story/removeStory"
	ActionClearExpiredStories Action = "story/clearExpiredStories"
	ActionFetchPending        Action = "story/fetchStories/pending"
	ActionFetchFulfilled      Action = "story/fetchStories/fulfilled"
	ActionFetchRejected       Action = "story/fetchStories/rejected"
	ActionCreateFulfilled     Action = "story/createStory/fulfilled"
	ActionViewFulfilled       Action = "story/viewStory/fulfilled"
)

// State is a point-in-time copy of the store. Mutating it does not affect
// the store.
type State struct {
	Stories   types.Collection `json:"stories"`
	Viewed    types.ViewedSet  `json:"viewedStories"`
	IsLoading bool             `json:"isLoading"`
	Error     string           `json:"error"`
	Status    FetchStatus      `json:"status"`
	Version   uint64           `json:"version"`
}

// MarshalJSON writes an empty Error as null, so a snapshot always carries
// the "error" key.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	out := struct {
		plain
		Error *string `json:"error"`
	}{plain: plain(s)}
	if s.Error != "" {
		out.Error = &s.Error
	}
	return json.Marshal(out)
}

func (s State) clone() State {
	s.Stories = s.Stories.Clone()
	s.Viewed = s.Viewed.Clone()
	return s
}
