package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"slotboard/internal/bookings/repository"
	"slotboard/internal/bookings/validator"
	conflictrepo "slotboard/internal/conflicts/repository"
	conflictservice "slotboard/internal/conflicts/service"
	"slotboard/internal/events"
	"slotboard/pkg/config"
	apperrors "slotboard/pkg/errors"
	"slotboard/pkg/logger"
	"slotboard/pkg/model"
)

// recordingPublisher captures emitted events so tests can assert on them.
type recordingPublisher struct {
	mu      sync.Mutex
	created []int
	deleted []struct {
		removed   int
		deletedBy string
	}
}

func (p *recordingPublisher) BookingCreated(_ *model.Booking, conflictCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, conflictCount)
}

func (p *recordingPublisher) BookingDeleted(_ *model.Booking, removedConflicts int, deletedBy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, struct {
		removed   int
		deletedBy string
	}{removedConflicts, deletedBy})
}

func (p *recordingPublisher) ConflictResolved(*model.Conflict, string) {}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       BookingService
	bookings  repository.BookingRepository
	conflicts conflictrepo.ConflictRepository
	events    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{Log: log}

	bookings := repository.NewMemoryBookingRepository()
	conflicts := conflictrepo.NewMemoryConflictRepository()
	conflictSvc := conflictservice.NewConflictService(conflicts, bookings, events.NewNoopPublisher(), cfg)
	publisher := &recordingPublisher{}

	return &fixture{
		svc:       NewBookingService(bookings, conflictSvc, validator.NewBookingValidator(), publisher, cfg),
		bookings:  bookings,
		conflicts: conflicts,
		events:    publisher,
	}
}

func caller(id, name string, role model.Role) *model.Caller {
	return &model.Caller{UserID: id, Username: name, Role: role}
}

func request(title, start, end string) *model.BookingCreate {
	return &model.BookingCreate{
		Title:        title,
		StartTime:    start,
		EndTime:      end,
		UserTimezone: "UTC",
	}
}

func TestCreateDenormalizesOwnerFromCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	booking, conflicts, err := f.svc.Create(ctx, alice, request("Standup", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if booking.UserID != "u-alice" || booking.UserName != "alice" {
		t.Errorf("owner not taken from caller: got (%s, %s)", booking.UserID, booking.UserName)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %d", len(conflicts))
	}
	if booking.StartTime.Location() != time.UTC {
		t.Error("stored start time not UTC")
	}

	stored, err := f.bookings.FindByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if stored.Title != "Standup" {
		t.Errorf("expected title %q, got %q", "Standup", stored.Title)
	}
}

func TestCreateHonorsOffsetThenStoresUTC(t *testing.T) {
	f := newFixture(t)

	alice := caller("u-alice", "alice", model.RoleMember)
	booking, _, err := f.svc.Create(context.Background(), alice,
		request("Call", "2030-01-02T15:00:00+05:30", "2030-01-02T16:00:00+05:30"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := time.Date(2030, 1, 2, 9, 30, 0, 0, time.UTC)
	if !booking.StartTime.Equal(want) {
		t.Errorf("expected start %v, got %v", want, booking.StartTime)
	}
}

func TestCreateCrossUserConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	bob := caller("u-bob", "bob", model.RoleMember)

	first, conflicts, err := f.svc.Create(ctx, alice, request("Standup", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z"))
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("first booking produced %d conflicts", len(conflicts))
	}

	second, conflicts, err := f.svc.Create(ctx, bob, request("Review", "2030-01-02T10:30:00Z", "2030-01-02T11:30:00Z"))
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}

	c := conflicts[0]
	if c.Booking1ID != first.ID || c.Booking2ID != second.ID {
		t.Errorf("expected pair (%s, %s), got (%s, %s)", first.ID, second.ID, c.Booking1ID, c.Booking2ID)
	}
	wantStart := time.Date(2030, 1, 2, 10, 30, 0, 0, time.UTC)
	wantEnd := time.Date(2030, 1, 2, 11, 0, 0, 0, time.UTC)
	if !c.ConflictStart.Equal(wantStart) || !c.ConflictEnd.Equal(wantEnd) {
		t.Errorf("expected interval [%v, %v), got [%v, %v)", wantStart, wantEnd, c.ConflictStart, c.ConflictEnd)
	}

	if len(f.events.created) != 2 || f.events.created[1] != 1 {
		t.Errorf("expected created events [0 1], got %v", f.events.created)
	}
}

func TestCreateSameUserOverlapIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	if _, _, err := f.svc.Create(ctx, alice, request("One", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, conflicts, err := f.svc.Create(ctx, alice, request("Two", "2030-01-02T10:30:00Z", "2030-01-02T11:30:00Z"))
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("same-user overlap produced %d conflicts", len(conflicts))
	}
}

func TestCreateTouchingBookingsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	bob := caller("u-bob", "bob", model.RoleMember)

	if _, _, err := f.svc.Create(ctx, alice, request("One", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, conflicts, err := f.svc.Create(ctx, bob, request("Two", "2030-01-02T11:00:00Z", "2030-01-02T12:00:00Z"))
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("touching bookings produced %d conflicts", len(conflicts))
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := caller("u-alice", "alice", model.RoleMember)

	tests := []struct {
		name string
		req  *model.BookingCreate
	}{
		{"end before start", request("Meeting", "2030-01-02T11:00:00Z", "2030-01-02T10:00:00Z")},
		{"start in the past", request("Meeting", "2020-01-02T10:00:00Z", "2020-01-02T11:00:00Z")},
		{"missing title", request("", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z")},
		{"garbled start", request("Meeting", "tomorrow", "2030-01-02T11:00:00Z")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Create(ctx, alice, tt.req)
			if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected %s, got %s", apperrors.CodeValidation, appErr.Code)
			}
		})
	}

	all, err := f.bookings.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("rejected requests persisted %d bookings", len(all))
	}
}

func TestListScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	bob := caller("u-bob", "bob", model.RoleMember)

	mustCreate := func(c *model.Caller, title, start, end string) {
		t.Helper()
		if _, _, err := f.svc.Create(ctx, c, request(title, start, end)); err != nil {
			t.Fatalf("create %s failed: %v", title, err)
		}
	}
	mustCreate(alice, "One", "2030-01-02T08:00:00Z", "2030-01-02T09:00:00Z")
	mustCreate(alice, "Two", "2030-01-02T12:00:00Z", "2030-01-02T13:00:00Z")
	mustCreate(bob, "Three", "2030-01-02T14:00:00Z", "2030-01-02T15:00:00Z")

	tests := []struct {
		name   string
		caller *model.Caller
		want   int
	}{
		{"member sees own", alice, 2},
		{"other member sees own", bob, 1},
		{"admin sees all", caller("u-admin", "root", model.RoleAdmin), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings, err := f.svc.List(ctx, tt.caller)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(bookings) != tt.want {
				t.Errorf("expected %d bookings, got %d", tt.want, len(bookings))
			}
		})
	}
}

func TestDeleteAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	bob := caller("u-bob", "bob", model.RoleMember)
	admin := caller("u-admin", "root", model.RoleAdmin)

	booking, _, err := f.svc.Create(ctx, alice, request("Mine", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Another member cannot delete it.
	err = f.svc.Delete(ctx, bob, booking.ID)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
	if _, err := f.bookings.FindByID(ctx, booking.ID); err != nil {
		t.Fatal("booking removed by forbidden delete")
	}

	// The owner can.
	if err := f.svc.Delete(ctx, alice, booking.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}

	// So can an admin, for someone else's booking.
	other, _, err := f.svc.Create(ctx, bob, request("Bob's", "2030-01-02T14:00:00Z", "2030-01-02T15:00:00Z"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := f.svc.Delete(ctx, admin, other.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}

	// Unknown IDs are a clean not-found.
	err = f.svc.Delete(ctx, alice, "no-such-booking")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestStartedBookingsStillListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := caller("u-alice", "alice", model.RoleMember)

	// The past check applies at creation only. Seed a booking that has since
	// started, the way an older create would have left it.
	old := &model.Booking{
		ID:        "b-old",
		UserID:    "u-alice",
		UserName:  "alice",
		Title:     "Yesterday",
		StartTime: time.Now().UTC().Add(-24 * time.Hour),
		EndTime:   time.Now().UTC().Add(-23 * time.Hour),
	}
	if err := f.bookings.Create(ctx, old); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	bookings, err := f.svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected started booking to list, got %d", len(bookings))
	}

	if err := f.svc.Delete(ctx, alice, "b-old"); err != nil {
		t.Errorf("expected started booking to delete, got %v", err)
	}
}

func TestDeleteCascadesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := caller("u-alice", "alice", model.RoleMember)
	bob := caller("u-bob", "bob", model.RoleMember)

	booking, _, err := f.svc.Create(ctx, alice, request("One", "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := f.svc.Create(ctx, bob, request("Two", "2030-01-02T10:30:00Z", "2030-01-02T11:30:00Z")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.svc.Delete(ctx, alice, booking.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	remaining, err := f.conflicts.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected cascade to remove conflicts, %d left", len(remaining))
	}

	if len(f.events.deleted) != 1 {
		t.Fatalf("expected 1 deleted event, got %d", len(f.events.deleted))
	}
	if got := f.events.deleted[0]; got.removed != 1 || got.deletedBy != "u-alice" {
		t.Errorf("expected deleted event (1, u-alice), got (%d, %s)", got.removed, got.deletedBy)
	}
}
