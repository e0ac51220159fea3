package geocode

import (
	"context"
	"time"

	"issuemap_backend/internal/events"
	"issuemap_backend/platform/logger"
)

// Resolution outcomes carried on AddressResolved events.
const (
	// OutcomeResolved means the upstream provider answered the request.
	OutcomeResolved = "resolved"
	// OutcomeDegraded means a fallback strategy ran (wider search,
	// secondary endpoint) but still produced provider-backed data.
	OutcomeDegraded = "degraded"
	// OutcomeFallback means no provider data was available; the result is
	// synthetic (default locality candidate, bucket or coordinate label).
	OutcomeFallback = "fallback"
)

// AddressResolvedEvent is the event name for resolution outcomes.
const AddressResolvedEvent = "geocode.address_resolved"

// AddressResolved is emitted once per resolver operation, replacing
// per-call-site logging with a single structured emission consumed by the
// observability subscriber.
type AddressResolved struct {
	events.BaseEvent
	Operation string `json:"operation"`
	Outcome   string `json:"outcome"`
	Query     string `json:"query"`
	Endpoint  string `json:"endpoint,omitempty"`
	CacheHit  bool   `json:"cache_hit"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// EventName returns the event identifier.
func (AddressResolved) EventName() string {
	return AddressResolvedEvent
}

// SubscribeLogging attaches the standard logging observer for resolution
// events to the bus.
func SubscribeLogging(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(AddressResolvedEvent, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		resolved, ok := event.(AddressResolved)
		if !ok {
			return nil
		}
		log.Info("address_resolved",
			"operation", resolved.Operation,
			"outcome", resolved.Outcome,
			"query", resolved.Query,
			"endpoint", resolved.Endpoint,
			"cache_hit", resolved.CacheHit,
			"elapsed_ms", resolved.ElapsedMS,
		)
		return nil
	}))
}

func newAddressResolved(operation, outcome, query, endpoint string, cacheHit bool, elapsed time.Duration) AddressResolved {
	return AddressResolved{
		BaseEvent: events.NewBaseEvent(),
		Operation: operation,
		Outcome:   outcome,
		Query:     query,
		Endpoint:  endpoint,
		CacheHit:  cacheHit,
		ElapsedMS: elapsed.Milliseconds(),
	}
}
