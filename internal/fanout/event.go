// Package fanout delivers committed change events. Each event is written to
// the durable notification log of every recipient, then pushed to live
// subscribers of its channel, then optionally exported to a change stream.
package fanout

import (
	"time"

	"github.com/google/uuid"
)

// BoardChannel carries container-wide events of one board.
func BoardChannel(boardID uuid.UUID) string {
	return "board." + boardID.String()
}

// UserChannel carries events addressed to one user.
func UserChannel(userID uuid.UUID) string {
	return "user." + userID.String()
}

// ChangeEvent describes one committed mutation. Recipients is the set of
// users that get a durable notification; it never leaves the process.
type ChangeEvent struct {
	ID         uuid.UUID
	Channel    string
	Name       string
	SenderID   uuid.UUID
	Payload    map[string]any
	OccurredAt time.Time
	Recipients []uuid.UUID
}

// Envelope is the wire form of a ChangeEvent. Clients drop envelopes whose
// sender_id is their own and deduplicate by id.
type Envelope struct {
	ID         uuid.UUID      `json:"id"`
	Channel    string         `json:"channel"`
	Event      string         `json:"event"`
	SenderID   uuid.UUID      `json:"sender_id"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (e ChangeEvent) Envelope() Envelope {
	return Envelope{
		ID:         e.ID,
		Channel:    e.Channel,
		Event:      e.Name,
		SenderID:   e.SenderID,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
	}
}

// Publisher accepts events after their transaction committed. Publish must
// not block on delivery.
type Publisher interface {
	Publish(ev ChangeEvent)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev ChangeEvent)

func (f PublisherFunc) Publish(ev ChangeEvent) { f(ev) }
