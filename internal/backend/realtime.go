package backend

import (
	"context"
	"encoding/json"
)

// Realtime event types on the row-change feed.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event is one row-change notification from the backend's publish/subscribe
// channel.
type Event struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Record  json.RawMessage `json:"record,omitempty"`
}

// Realtime is the publish/subscribe contract of the backend's change feed.
// Subscribe registers a handler for one channel and returns an unsubscribe
// function. Exactly one caller consumes this today: the message service uses
// insert events to refetch the unread count past the cache's freshness model.
type Realtime interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) (func(), error)
}
