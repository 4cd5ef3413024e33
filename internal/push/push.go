package push

import (
	"context"

	"github.com/KrPrince19/CareNest/internal/model"
)

// EventType names the notifications flowing over the push channel.
type EventType string

const (
	// EventRefreshData tells clients to re-fetch their medication snapshot.
	EventRefreshData EventType = "REFRESH_DATA"
	// EventNewSOSAlert carries a freshly raised emergency alert. Clients must
	// filter by the alert's owner email before acting on it.
	EventNewSOSAlert EventType = "NEW_SOS_ALERT"
)

// Event is one push notification. Alert is set only for NEW_SOS_ALERT.
type Event struct {
	Type  EventType             `json:"type"`
	Alert *model.EmergencyAlert `json:"alert,omitempty"`
}

// Publisher is the server-side half of the push channel.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Subscriber is the client-side half. The returned channel is closed when the
// context ends; slow consumers may have events dropped, since the push path is
// a latency optimization and polling remains the correctness fallback.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan Event
}

// Bus is a bidirectional push channel.
type Bus interface {
	Publisher
	Subscriber
}
