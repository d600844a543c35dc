package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvTokenSecret = "ACCESS_TOKEN_SECRET"
	EnvTokenTTL    = "ACCESS_TOKEN_TTL"

	EnvPasswordMinLength    = "PASSWORD_MIN_LENGTH"
	EnvPasswordRequireMixed = "PASSWORD_REQUIRE_MIXED"

	EnvAdminUsernames = "ADMIN_USERNAMES"

	EnvLoginMaxFailures   = "LOGIN_MAX_FAILURES"
	EnvLoginFailureWindow = "LOGIN_FAILURE_WINDOW"
	EnvLoginLockout       = "LOGIN_LOCKOUT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvEventsBrokers = "EVENTS_BROKERS"
	EnvEventsTopic   = "EVENTS_TOPIC"
)
