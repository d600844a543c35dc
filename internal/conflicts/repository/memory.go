package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	conflictserrors "slotboard/internal/conflicts/errors"
	"slotboard/pkg/model"

	"github.com/google/uuid"
)

// memoryConflictRepository is a map-backed ConflictRepository for tests and
// local runs without a database.
type memoryConflictRepository struct {
	mu        sync.RWMutex
	conflicts map[string]*model.Conflict
}

func NewMemoryConflictRepository() ConflictRepository {
	return &memoryConflictRepository{
		conflicts: make(map[string]*model.Conflict),
	}
}

func (r *memoryConflictRepository) Create(ctx context.Context, conflict *model.Conflict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conflict.ID == "" {
		conflict.ID = uuid.New().String()
	}
	conflict.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	stored := *conflict
	r.conflicts[conflict.ID] = &stored
	return nil
}

func (r *memoryConflictRepository) FindByID(ctx context.Context, id string) (*model.Conflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conflict, ok := r.conflicts[id]
	if !ok {
		return nil, conflictserrors.ErrNotFound
	}

	found := *conflict
	return &found, nil
}

func (r *memoryConflictRepository) FindAll(ctx context.Context) ([]*model.Conflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(*model.Conflict) bool { return true }), nil
}

func (r *memoryConflictRepository) FindByUser(ctx context.Context, userID string) ([]*model.Conflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(c *model.Conflict) bool { return c.InvolvesUser(userID) }), nil
}

func (r *memoryConflictRepository) FindByBooking(ctx context.Context, bookingID string) ([]*model.Conflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(c *model.Conflict) bool { return c.InvolvesBooking(bookingID) }), nil
}

// collect filters and sorts under the caller's lock.
func (r *memoryConflictRepository) collect(keep func(*model.Conflict) bool) []*model.Conflict {
	conflicts := make([]*model.Conflict, 0)
	for _, conflict := range r.conflicts {
		if keep(conflict) {
			found := *conflict
			conflicts = append(conflicts, &found)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if !conflicts[i].ConflictStart.Equal(conflicts[j].ConflictStart) {
			return conflicts[i].ConflictStart.Before(conflicts[j].ConflictStart)
		}
		return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
	})

	return conflicts
}

func (r *memoryConflictRepository) DeleteByBooking(ctx context.Context, bookingID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, conflict := range r.conflicts {
		if conflict.InvolvesBooking(bookingID) {
			delete(r.conflicts, id)
			removed++
		}
	}

	return removed, nil
}

func (r *memoryConflictRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conflicts = make(map[string]*model.Conflict)
	return nil
}

func (r *memoryConflictRepository) Resolve(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conflict, ok := r.conflicts[id]
	if !ok {
		return conflictserrors.ErrNotFound
	}

	conflict.Resolved = true
	return nil
}
