package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "slotboard/internal/bookings/errors"
	"slotboard/internal/bookings/repository"
	"slotboard/internal/bookings/validator"
	conflictservice "slotboard/internal/conflicts/service"
	"slotboard/internal/events"
	"slotboard/pkg/config"
	apperrors "slotboard/pkg/errors"
	"slotboard/pkg/model"
	"slotboard/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, caller *model.Caller, req *model.BookingCreate) (*model.Booking, []*model.Conflict, error)
	List(ctx context.Context, caller *model.Caller) ([]*model.Booking, error)
	Delete(ctx context.Context, caller *model.Caller, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	conflicts conflictservice.ConflictService
	validator *validator.BookingValidator
	events    events.Publisher
	cfg       *config.Config

	// mu serializes writes so conflict detection always sees a settled
	// store. Reads stay lock-free; the transaction keeps them consistent.
	mu sync.Mutex
}

func NewBookingService(
	repo repository.BookingRepository,
	conflicts conflictservice.ConflictService,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		conflicts: conflicts,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

// Create inserts the booking and its cross-user conflicts in one transaction.
// Owner identity is denormalized from the verified caller; the request body
// cannot name another user.
func (s *bookingService) Create(ctx context.Context, caller *model.Caller, req *model.BookingCreate) (*model.Booking, []*model.Conflict, error) {
	req.Title = sanitizer.TrimAndNormalize(req.Title)

	start, end, err := s.validator.ValidateCreate(req)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", caller.UserID, "error", err)
		return nil, nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}

	booking := &model.Booking{
		UserID:       caller.UserID,
		UserName:     caller.Username,
		Title:        req.Title,
		StartTime:    start,
		EndTime:      end,
		Notes:        req.Notes,
		UserTimezone: req.UserTimezone,
	}

	var created []*model.Conflict
	err = s.withWriteLock(func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
			if err := s.repo.Create(sessCtx, booking); err != nil {
				return apperrors.Internal("Failed to create booking", err)
			}

			conflicts, err := s.conflicts.DetectForBooking(sessCtx, booking)
			if err != nil {
				return err
			}
			created = conflicts
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "user_id", caller.UserID, "error", err)
		return nil, nil, err
	}

	s.events.BookingCreated(booking, len(created))

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"user_id", booking.UserID,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
		"conflicts", len(created),
	)
	return booking, created, nil
}

// List returns all bookings for admins and the caller's own for members.
func (s *bookingService) List(ctx context.Context, caller *model.Caller) ([]*model.Booking, error) {
	var (
		bookings []*model.Booking
		err      error
	)
	if caller.IsAdmin() {
		bookings, err = s.repo.FindAll(ctx)
	} else {
		bookings, err = s.repo.FindByUser(ctx, caller.UserID)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, nil
}

// Delete removes the booking and every conflict referencing it in one
// transaction. Only the owner or an admin may delete.
func (s *bookingService) Delete(ctx context.Context, caller *model.Caller, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var (
		booking *model.Booking
		removed int64
	)
	err := s.withWriteLock(func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
			found, err := s.repo.FindByID(sessCtx, id)
			if err != nil {
				if errors.Is(err, bookingserrors.ErrNotFound) {
					return apperrors.NotFoundWithID("Booking", id)
				}
				return apperrors.Internal("Failed to retrieve booking", err)
			}

			if !caller.IsAdmin() && found.UserID != caller.UserID {
				return apperrors.Forbidden("Only the owner or an admin can delete a booking")
			}
			booking = found

			if err := s.repo.Delete(sessCtx, id); err != nil {
				return apperrors.Internal("Failed to delete booking", err)
			}

			n, err := s.conflicts.RemoveForBooking(sessCtx, id)
			if err != nil {
				return err
			}
			removed = n
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.events.BookingDeleted(booking, int(removed), caller.UserID)

	s.cfg.Log.Info("Booking deleted",
		"id", id,
		"owner_id", booking.UserID,
		"deleted_by", caller.UserID,
		"removed_conflicts", removed,
	)
	return nil
}

func (s *bookingService) withWriteLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
