package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	bookingrepo "slotboard/internal/bookings/repository"
	"slotboard/internal/conflicts/repository"
	"slotboard/internal/events"
	"slotboard/pkg/config"
	apperrors "slotboard/pkg/errors"
	"slotboard/pkg/logger"
	"slotboard/pkg/model"
)

type fixture struct {
	svc      ConflictService
	bookings bookingrepo.BookingRepository
	repo     repository.ConflictRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{Log: log}

	bookings := bookingrepo.NewMemoryBookingRepository()
	repo := repository.NewMemoryConflictRepository()

	return &fixture{
		svc:      NewConflictService(repo, bookings, events.NewNoopPublisher(), cfg),
		bookings: bookings,
		repo:     repo,
	}
}

// at builds a UTC timestamp on a fixed day.
func at(hour, min int) time.Time {
	return time.Date(2030, 1, 2, hour, min, 0, 0, time.UTC)
}

func booking(id, userID string, start, end time.Time) *model.Booking {
	return &model.Booking{
		ID:        id,
		UserID:    userID,
		UserName:  userID,
		Title:     "booking " + id,
		StartTime: start,
		EndTime:   end,
	}
}

// add inserts a booking and runs incremental detection, the same sequence the
// booking service performs inside its transaction.
func (f *fixture) add(t *testing.T, b *model.Booking) []*model.Conflict {
	t.Helper()

	ctx := context.Background()
	if err := f.bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking %s: %v", b.ID, err)
	}
	created, err := f.svc.DetectForBooking(ctx, b)
	if err != nil {
		t.Fatalf("detect for booking %s: %v", b.ID, err)
	}
	return created
}

func (f *fixture) remove(t *testing.T, bookingID string) {
	t.Helper()

	ctx := context.Background()
	if err := f.bookings.Delete(ctx, bookingID); err != nil {
		t.Fatalf("delete booking %s: %v", bookingID, err)
	}
	if _, err := f.svc.RemoveForBooking(ctx, bookingID); err != nil {
		t.Fatalf("remove conflicts for %s: %v", bookingID, err)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		start1, end1, start2, end2 time.Time
		want                       bool
	}{
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"containment", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"touching end to start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start to end", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(10, 0), at(11, 0), at(14, 0), at(15, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.start1, tt.end1, tt.start2, tt.end2)
			if got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if rev := Overlaps(tt.start2, tt.end2, tt.start1, tt.end1); rev != got {
				t.Errorf("Overlaps() not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestIntersection(t *testing.T) {
	start, end := Intersection(at(10, 0), at(11, 0), at(10, 30), at(11, 30))
	if !start.Equal(at(10, 30)) || !end.Equal(at(11, 0)) {
		t.Errorf("expected [10:30, 11:00), got [%v, %v)", start, end)
	}
}

func TestDetectForBookingCrossUserOverlap(t *testing.T) {
	f := newFixture(t)

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	created := f.add(t, booking("b1", "bob", at(10, 30), at(11, 30)))

	if len(created) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(created))
	}

	c := created[0]
	if c.Booking1ID != "a1" || c.Booking2ID != "b1" {
		t.Errorf("expected pair (a1, b1), got (%s, %s)", c.Booking1ID, c.Booking2ID)
	}
	if c.User1Name != "alice" || c.User2Name != "bob" {
		t.Errorf("expected names (alice, bob), got (%s, %s)", c.User1Name, c.User2Name)
	}
	if !c.ConflictStart.Equal(at(10, 30)) || !c.ConflictEnd.Equal(at(11, 0)) {
		t.Errorf("expected interval [10:30, 11:00), got [%v, %v)", c.ConflictStart, c.ConflictEnd)
	}
	if c.Resolved {
		t.Error("new conflict must start unresolved")
	}
}

func TestDetectForBookingSameUserNeverConflicts(t *testing.T) {
	f := newFixture(t)

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	created := f.add(t, booking("a2", "alice", at(10, 30), at(11, 30)))

	if len(created) != 0 {
		t.Errorf("same-user overlap produced %d conflicts", len(created))
	}
}

func TestDetectForBookingTouchingEndpoints(t *testing.T) {
	f := newFixture(t)

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	created := f.add(t, booking("b1", "bob", at(11, 0), at(12, 0)))

	if len(created) != 0 {
		t.Errorf("touching bookings produced %d conflicts", len(created))
	}
}

func TestDetectForBookingMultipleOverlaps(t *testing.T) {
	f := newFixture(t)

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	f.add(t, booking("b1", "bob", at(10, 0), at(12, 0)))
	created := f.add(t, booking("c1", "carol", at(9, 0), at(13, 0)))

	if len(created) != 2 {
		t.Fatalf("expected 2 conflicts for carol, got %d", len(created))
	}

	all, err := f.repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	// alice-bob, alice-carol, bob-carol.
	if len(all) != 3 {
		t.Errorf("expected 3 stored conflicts, got %d", len(all))
	}
}

// pairKey identifies a conflict regardless of pair orientation.
func pairKey(c *model.Conflict) string {
	b1, b2 := c.Booking1ID, c.Booking2ID
	if b2 < b1 {
		b1, b2 = b2, b1
	}
	return fmt.Sprintf("%s|%s|%d|%d", b1, b2, c.ConflictStart.Unix(), c.ConflictEnd.Unix())
}

func conflictSet(t *testing.T, repo repository.ConflictRepository) []string {
	t.Helper()

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	keys := make([]string, 0, len(all))
	for _, c := range all {
		keys = append(keys, pairKey(c))
	}
	sort.Strings(keys)
	return keys
}

func TestRescanMatchesIncremental(t *testing.T) {
	f := newFixture(t)

	// A sequence of creates and deletes exercising overlap, containment,
	// same-user skips and cascade removal.
	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	f.add(t, booking("b1", "bob", at(10, 30), at(11, 30)))
	f.add(t, booking("c1", "carol", at(9, 0), at(10, 30)))
	f.add(t, booking("a2", "alice", at(10, 45), at(12, 0)))
	f.remove(t, "b1")
	f.add(t, booking("b2", "bob", at(10, 45), at(12, 30)))

	incremental := conflictSet(t, f.repo)
	if len(incremental) == 0 {
		t.Fatal("sequence produced no conflicts; test is vacuous")
	}

	count, err := f.svc.Rescan(context.Background())
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}

	rescanned := conflictSet(t, f.repo)
	if count != len(rescanned) {
		t.Errorf("Rescan reported %d conflicts, stored %d", count, len(rescanned))
	}

	if len(incremental) != len(rescanned) {
		t.Fatalf("incremental produced %d conflicts, rescan %d:\n%v\nvs\n%v",
			len(incremental), len(rescanned), incremental, rescanned)
	}
	for i := range incremental {
		if incremental[i] != rescanned[i] {
			t.Errorf("conflict sets differ at %d: %s vs %s", i, incremental[i], rescanned[i])
		}
	}
}

func TestListForCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	f.add(t, booking("b1", "bob", at(10, 30), at(11, 30)))
	f.add(t, booking("c1", "carol", at(11, 15), at(12, 0)))

	// alice-bob and bob-carol exist; alice-carol do not overlap.
	tests := []struct {
		name   string
		caller *model.Caller
		want   int
	}{
		{"member sees own only", &model.Caller{UserID: "alice", Role: model.RoleMember}, 1},
		{"participant of two", &model.Caller{UserID: "bob", Role: model.RoleMember}, 2},
		{"uninvolved member sees none", &model.Caller{UserID: "dave", Role: model.RoleMember}, 0},
		{"admin sees all", &model.Caller{UserID: "dave", Role: model.RoleAdmin}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts, err := f.svc.ListForCaller(ctx, tt.caller)
			if err != nil {
				t.Fatalf("ListForCaller failed: %v", err)
			}
			if len(conflicts) != tt.want {
				t.Errorf("expected %d conflicts, got %d", tt.want, len(conflicts))
			}
		})
	}
}

func TestListForCallerIncludesResolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	created := f.add(t, booking("b1", "bob", at(10, 30), at(11, 30)))

	alice := &model.Caller{UserID: "alice", Role: model.RoleMember}
	if _, err := f.svc.Resolve(ctx, alice, created[0].ID); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	conflicts, err := f.svc.ListForCaller(ctx, alice)
	if err != nil {
		t.Fatalf("ListForCaller failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("resolved conflict dropped from listing, got %d", len(conflicts))
	}
	if !conflicts[0].Resolved {
		t.Error("resolved flag not surfaced")
	}
}

func TestResolveAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, booking("a1", "alice", at(10, 0), at(11, 0)))
	created := f.add(t, booking("b1", "bob", at(10, 30), at(11, 30)))
	id := created[0].ID

	// A member who is not a participant cannot resolve.
	carol := &model.Caller{UserID: "carol", Role: model.RoleMember}
	_, err := f.svc.Resolve(ctx, carol, id)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s for non-participant, got %s", apperrors.CodeForbidden, appErr.Code)
	}

	// A participant can.
	bob := &model.Caller{UserID: "bob", Role: model.RoleMember}
	resolved, err := f.svc.Resolve(ctx, bob, id)
	if err != nil {
		t.Fatalf("participant resolve failed: %v", err)
	}
	if !resolved.Resolved {
		t.Error("returned conflict not marked resolved")
	}

	stored, err := f.repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if !stored.Resolved {
		t.Error("resolved flag not persisted")
	}

	// An admin can resolve conflicts they are not part of.
	f.add(t, booking("c1", "carol", at(10, 15), at(10, 45)))
	all, _ := f.repo.FindAll(ctx)
	var other *model.Conflict
	for _, c := range all {
		if c.ID != id {
			other = c
			break
		}
	}
	if other == nil {
		t.Fatal("expected a second conflict")
	}

	admin := &model.Caller{UserID: "dave", Role: model.RoleAdmin}
	if _, err := f.svc.Resolve(ctx, admin, other.ID); err != nil {
		t.Errorf("admin resolve failed: %v", err)
	}

	// Unknown IDs are a clean not-found.
	_, err = f.svc.Resolve(ctx, bob, "no-such-conflict")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s for unknown ID, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}
