package config

import "time"

// PublisherConfig holds runtime configuration for the publisher service.
type PublisherConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	ArchiveDir         string
	ProcessorAuthToken string
	HostingBaseURL     string
	HostingToken       string
	HostingTeamID      string
	HostingCallsPerMin float64
	HostingBurstTokens float64
	HostingMinReserve  float64
	LogLevel           string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
	ShutdownTimeout    time.Duration
}

// LoadPublisherConfig constructs a PublisherConfig from environment variables.
func LoadPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("PUBLISHER_ADDR", ":4000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://pagecraft:pagecraft@db:5432/pagecraft?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		ArchiveDir:         GetString("ARCHIVE_DIR", "/var/lib/pagecraft/archives"),
		ProcessorAuthToken: GetString("PROCESSOR_AUTH_TOKEN", ""),
		HostingBaseURL:     GetString("HOSTING_API_URL", "https://api.hosting.example.com"),
		HostingToken:       GetString("HOSTING_API_TOKEN", ""),
		HostingTeamID:      GetString("HOSTING_TEAM_ID", ""),
		HostingCallsPerMin: GetFloat("HOSTING_CALLS_PER_MINUTE", 60),
		HostingBurstTokens: GetFloat("HOSTING_BURST_TOKENS", 60),
		HostingMinReserve:  GetFloat("HOSTING_MIN_RESERVE", 5),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
		ShutdownTimeout:    time.Duration(GetInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}
