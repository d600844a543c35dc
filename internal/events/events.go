package events

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingDeleted   = "booking.deleted"
	EventConflictResolved = "conflict.resolved"
)

type BookingCreatedEvent struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Conflicts  int       `json:"conflicts"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BookingDeletedEvent struct {
	BookingID        string    `json:"booking_id"`
	UserID           string    `json:"user_id"`
	RemovedConflicts int       `json:"removed_conflicts"`
	DeletedBy        string    `json:"deleted_by"`
	OccurredAt       time.Time `json:"occurred_at"`
}

type ConflictResolvedEvent struct {
	ConflictID string    `json:"conflict_id"`
	Booking1ID string    `json:"booking1_id"`
	Booking2ID string    `json:"booking2_id"`
	ResolvedBy string    `json:"resolved_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
