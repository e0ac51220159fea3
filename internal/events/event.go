package events

import (
	platformevents "issuemap_backend/platform/events"
)

// Type aliases so internal modules can depend on a single events import.
type (
	// Event is the base interface all domain events implement.
	Event = platformevents.Event
	// Bus is the publish/subscribe interface.
	Bus = platformevents.Bus
	// Handler processes events of a specific type.
	Handler = platformevents.Handler
	// HandlerFunc adapts ordinary functions to the Handler interface.
	HandlerFunc = platformevents.HandlerFunc
	// BaseEvent provides common fields for all events.
	BaseEvent = platformevents.BaseEvent
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}
