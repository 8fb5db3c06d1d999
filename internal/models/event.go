package models

import "time"

// EventKind classifies a recorded product interaction.
type EventKind string

// Supported interaction kinds.
const (
	EventVisit    EventKind = "visit"
	EventWhatsApp EventKind = "whatsapp"
	EventCall     EventKind = "call"
)

// ValidEventKind reports whether kind is one of the supported interaction kinds.
func ValidEventKind(kind EventKind) bool {
	switch kind {
	case EventVisit, EventWhatsApp, EventCall:
		return true
	}
	return false
}

// ActivityEvent is a single product interaction. Rows are append-only:
// nothing in the system updates or deletes them.
type ActivityEvent struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Kind      EventKind `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
