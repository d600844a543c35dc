package service

import (
	"context"
	"errors"
	"sort"
	"time"

	bookingrepo "slotboard/internal/bookings/repository"
	conflictserrors "slotboard/internal/conflicts/errors"
	"slotboard/internal/conflicts/repository"
	"slotboard/internal/events"
	"slotboard/pkg/config"
	apperrors "slotboard/pkg/errors"
	"slotboard/pkg/model"
)

type ConflictService interface {
	DetectForBooking(ctx context.Context, booking *model.Booking) ([]*model.Conflict, error)
	RemoveForBooking(ctx context.Context, bookingID string) (int64, error)
	Rescan(ctx context.Context) (int, error)
	ListForCaller(ctx context.Context, caller *model.Caller) ([]*model.Conflict, error)
	Resolve(ctx context.Context, caller *model.Caller, id string) (*model.Conflict, error)
}

type conflictService struct {
	repo     repository.ConflictRepository
	bookings bookingrepo.BookingRepository
	events   events.Publisher
	cfg      *config.Config
}

func NewConflictService(
	repo repository.ConflictRepository,
	bookings bookingrepo.BookingRepository,
	publisher events.Publisher,
	cfg *config.Config,
) ConflictService {
	return &conflictService{
		repo:     repo,
		bookings: bookings,
		events:   publisher,
		cfg:      cfg,
	}
}

// Overlaps reports whether [start1, end1) and [start2, end2) intersect.
// Bookings that merely touch at an endpoint do not overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// Intersection returns the shared sub-interval of two overlapping intervals:
// the later start and the earlier end.
func Intersection(start1, end1, start2, end2 time.Time) (time.Time, time.Time) {
	start := start1
	if start2.After(start) {
		start = start2
	}
	end := end1
	if end2.Before(end) {
		end = end2
	}
	return start, end
}

// DetectForBooking records one conflict per existing booking of another user
// that overlaps the new booking. Pairs keep the existing booking first, so
// every pair appears exactly once across an insertion sequence. Runs inside
// the caller's transaction context.
func (s *conflictService) DetectForBooking(ctx context.Context, booking *model.Booking) ([]*model.Conflict, error) {
	existing, err := s.bookings.FindOverlapping(ctx, booking.StartTime, booking.EndTime)
	if err != nil {
		return nil, apperrors.Internal("Failed to scan for overlapping bookings", err)
	}

	created := make([]*model.Conflict, 0)
	for _, other := range existing {
		if other.ID == booking.ID {
			continue
		}
		// A user never conflicts with their own bookings.
		if other.UserID == booking.UserID {
			continue
		}

		conflict := newConflict(other, booking)
		if err := s.repo.Create(ctx, conflict); err != nil {
			return nil, apperrors.Internal("Failed to record conflict", err)
		}
		created = append(created, conflict)
	}

	return created, nil
}

// RemoveForBooking drops every conflict referencing the booking and returns
// how many were removed.
func (s *conflictService) RemoveForBooking(ctx context.Context, bookingID string) (int64, error) {
	removed, err := s.repo.DeleteByBooking(ctx, bookingID)
	if err != nil {
		return 0, apperrors.Internal("Failed to remove conflicts for booking", err)
	}
	return removed, nil
}

// Rescan rebuilds the conflict set from scratch by comparing every booking
// pair. For any sequence of creates and deletes the result equals what the
// incremental path produced, so it doubles as a repair tool for stores
// written before conflict tracking existed.
func (s *conflictService) Rescan(ctx context.Context) (int, error) {
	bookings, err := s.bookings.FindAll(ctx)
	if err != nil {
		return 0, apperrors.Internal("Failed to load bookings", err)
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return 0, apperrors.Internal("Failed to clear conflicts", err)
	}

	// Insertion order orients each pair the way incremental detection did.
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID < bookings[j].ID
	})

	count := 0
	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings); j++ {
			a, b := bookings[i], bookings[j]
			if a.UserID == b.UserID {
				continue
			}
			if !Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				continue
			}

			if err := s.repo.Create(ctx, newConflict(a, b)); err != nil {
				return count, apperrors.Internal("Failed to record conflict", err)
			}
			count++
		}
	}

	s.cfg.Log.Info("Conflict rescan completed", "bookings", len(bookings), "conflicts", count)
	return count, nil
}

func (s *conflictService) ListForCaller(ctx context.Context, caller *model.Caller) ([]*model.Conflict, error) {
	var (
		conflicts []*model.Conflict
		err       error
	)
	if caller.IsAdmin() {
		conflicts, err = s.repo.FindAll(ctx)
	} else {
		conflicts, err = s.repo.FindByUser(ctx, caller.UserID)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list conflicts", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve conflicts", err)
	}

	return conflicts, nil
}

func (s *conflictService) Resolve(ctx context.Context, caller *model.Caller, id string) (*model.Conflict, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Conflict ID cannot be empty")
	}

	conflict, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, conflictserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Conflict", id)
		}
		return nil, apperrors.Internal("Failed to retrieve conflict", err)
	}

	if !caller.IsAdmin() && !conflict.InvolvesUser(caller.UserID) {
		return nil, apperrors.Forbidden("Only a participant or an admin can resolve a conflict")
	}

	if err := s.repo.Resolve(ctx, id); err != nil {
		if errors.Is(err, conflictserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Conflict", id)
		}
		return nil, apperrors.Internal("Failed to resolve conflict", err)
	}
	conflict.Resolved = true

	s.events.ConflictResolved(conflict, caller.UserID)

	s.cfg.Log.Info("Conflict resolved", "id", id, "resolved_by", caller.UserID)
	return conflict, nil
}

// newConflict builds the record for an overlapping cross-user pair. The
// earlier booking goes first; the stored interval is the intersection.
func newConflict(first, second *model.Booking) *model.Conflict {
	start, end := Intersection(first.StartTime, first.EndTime, second.StartTime, second.EndTime)

	return &model.Conflict{
		Booking1ID:    first.ID,
		Booking2ID:    second.ID,
		User1ID:       first.UserID,
		User2ID:       second.UserID,
		User1Name:     first.UserName,
		User2Name:     second.UserName,
		ConflictStart: start,
		ConflictEnd:   end,
		Resolved:      false,
	}
}
