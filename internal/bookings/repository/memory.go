package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingserrors "slotboard/internal/bookings/errors"
	mongotx "slotboard/pkg/db/mongo"
	"slotboard/pkg/model"

	"github.com/google/uuid"
)

// memoryBookingRepository is a map-backed BookingRepository for tests and
// local runs without a database.
type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[string]*model.Booking),
	}
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}

	found := *booking
	return &found, nil
}

func (r *memoryBookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(*model.Booking) bool { return true }), nil
}

func (r *memoryBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (r *memoryBookingRepository) FindOverlapping(ctx context.Context, start, end time.Time) ([]*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(b *model.Booking) bool {
		return b.StartTime.Before(end) && b.EndTime.After(start)
	}), nil
}

// collect filters and sorts under the caller's lock.
func (r *memoryBookingRepository) collect(keep func(*model.Booking) bool) []*model.Booking {
	bookings := make([]*model.Booking, 0)
	for _, booking := range r.bookings {
		if keep(booking) {
			found := *booking
			bookings = append(bookings, &found)
		}
	}

	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].StartTime.Equal(bookings[j].StartTime) {
			return bookings[i].StartTime.Before(bookings[j].StartTime)
		}
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})

	return bookings
}

func (r *memoryBookingRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}

	delete(r.bookings, id)
	return nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}
