package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	bookingrepo "slotboard/internal/bookings/repository"
	conflictrepo "slotboard/internal/conflicts/repository"
	conflictservice "slotboard/internal/conflicts/service"
	"slotboard/internal/events"
	mongoMigration "slotboard/internal/migrations/mongo"
	"slotboard/pkg/config"
)

const JobName = "mongo-migration"

// EnvRebuildConflicts makes the job rebuild the conflict collection from the
// stored bookings after the schema migration.
const EnvRebuildConflicts = "REBUILD_CONFLICTS"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	defer cfg.GracefulShutdown()

	migrateMongo(ctx, cfg)

	if rebuild, _ := strconv.ParseBool(os.Getenv(EnvRebuildConflicts)); rebuild {
		rebuildConflicts(ctx, cfg)
	}

	fmt.Println("Migration completed successfully.")
}

func migrateMongo(ctx context.Context, cfg *config.Config) {
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

func rebuildConflicts(ctx context.Context, cfg *config.Config) {
	svc := conflictservice.NewConflictService(
		conflictrepo.NewMongoConflictRepository(cfg),
		bookingrepo.NewMongoBookingRepository(cfg),
		events.NewNoopPublisher(),
		cfg,
	)

	count, err := svc.Rescan(ctx)
	if err != nil {
		log.Fatalf("Conflict rebuild failed: %v", err)
	}
	cfg.Log.Info("Conflict collection rebuilt", "conflicts", count)
}
