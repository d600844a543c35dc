package main

import (
	bookinghandler "slotboard/internal/bookings/handler"
	bookingrepo "slotboard/internal/bookings/repository"
	bookingservice "slotboard/internal/bookings/service"
	bookingvalidator "slotboard/internal/bookings/validator"
	conflicthandler "slotboard/internal/conflicts/handler"
	conflictrepo "slotboard/internal/conflicts/repository"
	conflictservice "slotboard/internal/conflicts/service"
	"slotboard/internal/events"
	identityhandler "slotboard/internal/identity/handler"
	"slotboard/internal/identity/limiter"
	identityrepo "slotboard/internal/identity/repository"
	identityservice "slotboard/internal/identity/service"
	"slotboard/internal/identity/token"
	identityvalidator "slotboard/internal/identity/validator"
	"slotboard/pkg/app"
	"slotboard/pkg/config"
	"slotboard/pkg/contracts"
	"slotboard/pkg/kafka"
	kafka_config "slotboard/pkg/kafka/config"
	kafka_middleware "slotboard/pkg/kafka/middleware"
)

const ServiceName = "calendar"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	publisher := initPublisher(cfg)

	loginLimiter := limiter.NewLoginLimiter(
		cfg.LoginMaxFailures,
		cfg.LoginFailureWindow,
		cfg.LoginLockout,
	)

	identitySvc := identityservice.NewIdentityService(
		identityrepo.NewMongoUserRepository(cfg),
		identityvalidator.NewUserValidator(cfg.PasswordMinLength, cfg.PasswordRequireMixed),
		token.NewManager(cfg.TokenSecret, cfg.TokenTTL),
		loginLimiter,
		cfg,
	)

	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	conflictSvc := conflictservice.NewConflictService(
		conflictrepo.NewMongoConflictRepository(cfg),
		bookingRepo,
		publisher,
		cfg,
	)
	bookingSvc := bookingservice.NewBookingService(
		bookingRepo,
		conflictSvc,
		bookingvalidator.NewBookingValidator(),
		publisher,
		cfg,
	)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, app.Routes{
		Health: identityhandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		Public: []contracts.Handler{
			identityhandler.NewAuthHandler(identitySvc, cfg.Log),
		},
		Protected: []contracts.Handler{
			identityhandler.NewUserHandler(identitySvc, cfg.Log),
			bookinghandler.NewBookingHandler(bookingSvc, cfg.Log),
			conflicthandler.NewConflictHandler(conflictSvc, cfg.Log),
		},
	}, identitySvc)

	serverApp.OnShutdown(loginLimiter.Stop)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.OnShutdown(cfg.GracefulShutdown)

	cfg.Log.Info("Starting calendar service")
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.EventsEnabled() {
		cfg.Log.Info("Event publishing disabled; no brokers configured")
		return events.NewNoopPublisher()
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.Brokers = cfg.EventsBrokers

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsTopic+".dlq")
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Event publishing enabled",
		"topic", cfg.EventsTopic,
		"brokers", len(cfg.EventsBrokers),
	)
	return events.NewKafkaPublisher(producer, cfg.EventsTopic, ServiceName, cfg.Log)
}
