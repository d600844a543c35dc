package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	conflictserrors "slotboard/internal/conflicts/errors"
	"slotboard/pkg/config"
	"slotboard/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Conflicts"
)

type mongoConflictRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type ConflictRepository interface {
	Create(ctx context.Context, conflict *model.Conflict) error
	FindByID(ctx context.Context, id string) (*model.Conflict, error)
	FindAll(ctx context.Context) ([]*model.Conflict, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Conflict, error)
	FindByBooking(ctx context.Context, bookingID string) ([]*model.Conflict, error)
	DeleteByBooking(ctx context.Context, bookingID string) (int64, error)
	DeleteAll(ctx context.Context) error
	Resolve(ctx context.Context, id string) error
}

func NewMongoConflictRepository(cfg *config.Config) ConflictRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoConflictRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoConflictRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoConflictRepository) Create(ctx context.Context, conflict *model.Conflict) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if conflict.ID == "" {
		conflict.ID = uuid.New().String()
	}
	conflict.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := r.collection.InsertOne(ctx, conflict)
	if err != nil {
		return fmt.Errorf("failed to create conflict: %w", err)
	}

	return nil
}

func (r *mongoConflictRepository) FindByID(ctx context.Context, id string) (*model.Conflict, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"_id": id}

	var conflict model.Conflict
	err := r.collection.FindOne(ctx, filter).Decode(&conflict)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, conflictserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find conflict: %w", err)
	}

	return &conflict, nil
}

func (r *mongoConflictRepository) FindAll(ctx context.Context) ([]*model.Conflict, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{})
}

func (r *mongoConflictRepository) FindByUser(ctx context.Context, userID string) ([]*model.Conflict, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"user1_id": userID},
		{"user2_id": userID},
	}}

	return r.find(ctx, filter)
}

func (r *mongoConflictRepository) FindByBooking(ctx context.Context, bookingID string) ([]*model.Conflict, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bookingFilter(bookingID))
}

func (r *mongoConflictRepository) find(ctx context.Context, filter bson.M) ([]*model.Conflict, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "conflict_start", Value: 1},
		{Key: "created_at", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicts: %w", err)
	}
	defer cursor.Close(ctx)

	var conflicts []*model.Conflict
	if err = cursor.All(ctx, &conflicts); err != nil {
		return nil, fmt.Errorf("failed to decode conflicts: %w", err)
	}

	return conflicts, nil
}

// DeleteByBooking removes every conflict referencing the booking on either
// side of the pair and returns how many were removed.
func (r *mongoConflictRepository) DeleteByBooking(ctx context.Context, bookingID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bookingFilter(bookingID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete conflicts for booking: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *mongoConflictRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to delete conflicts: %w", err)
	}

	return nil
}

func (r *mongoConflictRepository) Resolve(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"resolved": true}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	if result.MatchedCount == 0 {
		return conflictserrors.ErrNotFound
	}

	return nil
}

func bookingFilter(bookingID string) bson.M {
	return bson.M{"$or": []bson.M{
		{"booking1_id": bookingID},
		{"booking2_id": bookingID},
	}}
}
