package model

import (
	"time"
)

// Conflict records one cross-user overlapping booking pair. The stored
// interval is the intersection of the two bookings.
type Conflict struct {
	ID            string    `json:"id" bson:"_id"`
	Booking1ID    string    `json:"booking1_id" bson:"booking1_id"`
	Booking2ID    string    `json:"booking2_id" bson:"booking2_id"`
	User1ID       string    `json:"user1_id" bson:"user1_id"`
	User2ID       string    `json:"user2_id" bson:"user2_id"`
	User1Name     string    `json:"user1_name" bson:"user1_name"`
	User2Name     string    `json:"user2_name" bson:"user2_name"`
	ConflictStart time.Time `json:"conflict_start" bson:"conflict_start"`
	ConflictEnd   time.Time `json:"conflict_end" bson:"conflict_end"`
	Resolved      bool      `json:"resolved" bson:"resolved"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// InvolvesUser reports whether the given user is one of the two participants.
func (c Conflict) InvolvesUser(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// InvolvesBooking reports whether the given booking is one of the pair.
func (c Conflict) InvolvesBooking(bookingID string) bool {
	return c.Booking1ID == bookingID || c.Booking2ID == bookingID
}
