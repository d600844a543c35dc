package model

import (
	"time"
)

type Booking struct {
	ID           string    `json:"id" bson:"_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	UserName     string    `json:"user_name" bson:"user_name"`
	Title        string    `json:"title" bson:"title" validate:"required,min=1,max=255"`
	StartTime    time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Notes        string    `json:"notes,omitempty" bson:"notes,omitempty"`
	UserTimezone string    `json:"user_timezone" bson:"user_timezone"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// BookingCreate carries start/end as RFC 3339 strings; the booking validator
// parses them and normalizes to UTC before anything touches storage.
type BookingCreate struct {
	Title        string `json:"title" validate:"required,min=1,max=255"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
	UserTimezone string `json:"user_timezone" validate:"required"`
}
