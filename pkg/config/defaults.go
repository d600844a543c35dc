package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotboard"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel = "info"

	// Tokens are long-lived so a lost page refresh does not log users out.
	DefaultTokenTTL = 7 * 24 * time.Hour

	DefaultPasswordMinLength = 8

	DefaultAdminUsernames = "rutvik"

	DefaultLoginMaxFailures   = 5
	DefaultLoginFailureWindow = 15 * time.Minute
	DefaultLoginLockout       = 15 * time.Minute

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultEventsTopic = "calendar.events"
)
