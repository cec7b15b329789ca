package ws

import (
	"encoding/json"
	"time"

	"raid-recruit/internal/domain/listing"

	"github.com/google/uuid"
)

const (
	EventListingUpdated = "listing_updated"
	EventListingDeleted = "listing_deleted"
)

type ListingEvent struct {
	Type      string    `json:"type"`
	ListingID uuid.UUID `json:"listing_id"`
	State     string    `json:"state,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// Notifier publishes listing changes on a hub. Callers only hand it public
// listings.
type Notifier struct {
	hub *Hub
	now func() time.Time
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: time.Now}
}

func (n *Notifier) ListingUpdated(id uuid.UUID, state listing.State) {
	n.publish(ListingEvent{Type: EventListingUpdated, ListingID: id, State: string(state)})
}

func (n *Notifier) ListingDeleted(id uuid.UUID) {
	n.publish(ListingEvent{Type: EventListingDeleted, ListingID: id})
}

func (n *Notifier) publish(evt ListingEvent) {
	if n == nil || n.hub == nil {
		return
	}
	evt.Timestamp = n.now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
