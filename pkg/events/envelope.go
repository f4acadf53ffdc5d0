// Package events defines the domain event envelope exchanged on the bus and
// the tolerant decoder consumers use to read it.
package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TopicUsers      = "users.events"
	TypeUserCreated = "UserCreated"
)

// Envelope is immutable once published.
type Envelope struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"userId"`
	EventID    uuid.UUID `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewUserCreated(userID int64, now time.Time) Envelope {
	return Envelope{
		Type:       TypeUserCreated,
		UserID:     userID,
		EventID:    uuid.New(),
		OccurredAt: now.UTC(),
	}
}

// Key is the partition key; events for one user stay ordered.
func (e Envelope) Key() string {
	return strconv.FormatInt(e.UserID, 10)
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
