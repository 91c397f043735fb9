package types

import "time"

// EventType represents the type of event pushed to UI clients
type EventType string

const (
	EventStateSnapshot     EventType = "state.snapshot"
	EventStoryViewed       EventType = "story.viewed"
	EventStoryAdded        EventType = "story.added"
	EventStoryRemoved      EventType = "story.removed"
	EventStoriesExpired    EventType = "stories.expired"
	EventStoriesLoading    EventType = "stories.loading"
	EventStoriesFetched    EventType = "stories.fetched"
	EventStoriesFetchError EventType = "stories.fetch_failed"
	EventStoryCreated      EventType = "story.created"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Action    string      `json:"action,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
