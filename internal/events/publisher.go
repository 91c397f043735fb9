package events

import (
	"github.com/princekumarofficial/stories-client/internal/store"
	"github.com/princekumarofficial/stories-client/internal/types"
)

// WebSocketHub is the part of the hub the publisher needs
type WebSocketHub interface {
	BroadcastAll(event *types.Event)
}

// Subscriber is implemented by *store.Store
type Subscriber interface {
	Subscribe(l store.Listener) func()
}

var eventTypes = map[store.Action]types.EventType{
	store.ActionMarkStoryAsViewed:   types.EventStoryViewed,
	store.ActionViewFulfilled:       types.EventStoryViewed,
	store.ActionAddStory:            types.EventStoryAdded,
	store.ActionCreateFulfilled:     types.EventStoryCreated,
	store.ActionRemoveStory:         types.EventStoryRemoved,
	store.ActionClearExpiredStories: types.EventStoriesExpired,
	store.ActionFetchPending:        types.EventStoriesLoading,
	store.ActionFetchFulfilled:      types.EventStoriesFetched,
	store.ActionFetchRejected:       types.EventStoriesFetchError,
}

// EventTypeFor maps a store action to the event pushed to UI clients.
// Unknown actions are reported as full snapshots.
func EventTypeFor(action store.Action) types.EventType {
	if t, ok := eventTypes[action]; ok {
		return t
	}
	return types.EventStateSnapshot
}

// StateEvent builds the event for action carrying the resulting state.
func StateEvent(action store.Action, state store.State) *types.Event {
	event := types.NewEvent(EventTypeFor(action), state)
	event.Action = string(action)
	return event
}

// SnapshotEvent builds the event a freshly connected client receives.
func SnapshotEvent(state store.State) *types.Event {
	return types.NewEvent(types.EventStateSnapshot, state)
}

// Publisher pushes every committed store action to connected UI clients
type Publisher struct {
	hub WebSocketHub
}

func NewPublisher(hub WebSocketHub) *Publisher {
	return &Publisher{hub: hub}
}

// Attach subscribes the publisher to s and returns the unsubscribe func.
func (p *Publisher) Attach(s Subscriber) func() {
	return s.Subscribe(p.Publish)
}

// Publish is a store.Listener.
func (p *Publisher) Publish(action store.Action, state store.State) {
	p.hub.BroadcastAll(StateEvent(action, state))
}
