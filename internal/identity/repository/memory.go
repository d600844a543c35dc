package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	identityerrors "slotboard/internal/identity/errors"
	mongotx "slotboard/pkg/db/mongo"
	"slotboard/pkg/model"

	"github.com/google/uuid"
)

// memoryUserRepository is a map-backed UserRepository for tests and local
// runs without a database. Methods return copies so callers cannot mutate
// stored state behind the lock.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users: make(map[string]*model.User),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.NameLower == user.NameLower {
			return identityerrors.ErrDuplicateUsername
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, identityerrors.ErrNotFound
	}

	found := *user
	return &found, nil
}

func (r *memoryUserRepository) FindByNameKey(ctx context.Context, nameKey string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.NameLower == nameKey {
			found := *user
			return &found, nil
		}
	}

	return nil, identityerrors.ErrNotFound
}

func (r *memoryUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		found := *user
		users = append(users, &found)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].NameLower < users[j].NameLower
	})

	return users, nil
}

func (r *memoryUserRepository) UpdateTimezone(ctx context.Context, id string, timezone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return identityerrors.ErrNotFound
	}

	user.Timezone = timezone
	return nil
}

func (r *memoryUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}
