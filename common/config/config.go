package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/apiprobe/apiprobe/common/env"
)

var (
	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)
	// DebugSQLEnabled toggles per-query SQL logging when DEBUG_SQL=true.
	DebugSQLEnabled = env.Bool("DEBUG_SQL", false)

	// OnlyOneLogFile merges all rotated logs into a single file when true.
	OnlyOneLogFile = env.Bool("ONLY_ONE_LOG_FILE", false)
	// LogRetentionDays determines how many days logs are kept before the retention worker purges them (0 disables cleanup).
	LogRetentionDays = func() int {
		v := env.Int("LOG_RETENTION_DAYS", 0)
		if v < 0 {
			return 0
		}
		return v
	}()

	// ShutdownTimeoutSec specifies the graceful shutdown timeout (seconds) for the HTTP server.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 30)

	// SQLDSN provides the primary database DSN; empty indicates that SQLite should be used.
	SQLDSN = strings.TrimSpace(env.String("SQL_DSN", ""))
	// SQLitePath specifies the SQLite database file path when SQL_DSN is absent.
	SQLitePath = env.String("SQLITE_PATH", "apiprobe.db")
	// SQLiteBusyTimeout configures SQLite busy timeout in milliseconds to mitigate locking errors.
	SQLiteBusyTimeout = env.Int("SQLITE_BUSY_TIMEOUT", 3000)
	// SQLMaxIdleConns controls the database pool's idle connection count.
	SQLMaxIdleConns = env.Int("SQL_MAX_IDLE_CONNS", 100)
	// SQLMaxOpenConns controls the database pool's maximum open connections.
	SQLMaxOpenConns = env.Int("SQL_MAX_OPEN_CONNS", 1000)
	// SQLMaxLifetimeSeconds sets how long database connections live before being recycled (seconds).
	SQLMaxLifetimeSeconds = env.Int("SQL_MAX_LIFETIME", 300)

	// RedisConnString defines the Redis connection string; leaving it empty disables Redis features.
	RedisConnString = strings.TrimSpace(env.String("REDIS_CONN_STRING", ""))
	// RedisMasterName enables Redis sentinel/cluster discovery when provided.
	RedisMasterName = strings.TrimSpace(env.String("REDIS_MASTER_NAME", ""))
	// RedisPassword supplies the Redis authentication password when required.
	RedisPassword = env.String("REDIS_PASSWORD", "")
	// MemoryCacheEnabled keeps stored request definitions in an in-process cache.
	MemoryCacheEnabled = env.Bool("MEMORY_CACHE_ENABLED", false)
	// RequestCacheTTL bounds how long a cached stored request definition stays valid.
	RequestCacheTTL = time.Duration(env.Int("REQUEST_CACHE_TTL", 60)) * time.Second

	// JWTSecretEnvValue keeps the raw JWT_SECRET input so startup can warn when it is missing.
	JWTSecretEnvValue = strings.TrimSpace(env.String("JWT_SECRET", ""))
	// JWTSecret is the effective HMAC secret used to verify bearer tokens.
	JWTSecret = JWTSecretEnvValue
	// JWTExpiresHours controls the lifetime of tokens minted by cmd/token.
	JWTExpiresHours = env.Int("JWT_EXPIRES_HOURS", 24)

	// DefaultRequestTimeout applies to executions that do not carry their own timeout (seconds, 0 disables).
	DefaultRequestTimeout = env.Float64("DEFAULT_REQUEST_TIMEOUT", 30)
	// HTTPMaxIdleConns caps idle connections kept by the shared outbound client.
	HTTPMaxIdleConns = env.Int("HTTP_MAX_IDLE_CONNS", 200)
	// HTTPMaxIdleConnsPerHost caps idle connections per upstream host.
	HTTPMaxIdleConnsPerHost = env.Int("HTTP_MAX_IDLE_CONNS_PER_HOST", 20)
	// HTTPIdleConnTimeout controls how long idle upstream connections are kept (seconds).
	HTTPIdleConnTimeout = time.Duration(env.Int("HTTP_IDLE_CONN_TIMEOUT", 90)) * time.Second
	// OutboundProxy routes all executed requests through an HTTP proxy when set.
	OutboundProxy = strings.TrimSpace(env.String("OUTBOUND_PROXY", ""))
	// TLSInsecureSkipVerify disables upstream certificate verification. Useful against self-signed test servers.
	TLSInsecureSkipVerify = env.Bool("TLS_INSECURE_SKIP_VERIFY", false)
	// BlockedTargetSubnets lists comma-separated CIDRs that executed requests may not dial.
	// Proxied requests are checked against the target's resolved addresses before reaching the proxy.
	BlockedTargetSubnets = strings.TrimSpace(env.String("BLOCKED_TARGET_SUBNETS", ""))

	// CorsOrigins lists allowed origins, comma separated. "*" allows all.
	CorsOrigins = strings.TrimSpace(env.String("CORS_ORIGINS", "*"))
	// EnableGzip compresses API responses.
	EnableGzip = env.Bool("ENABLE_GZIP", false)
	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// SmokeTestAPIBase configures the base URL used by the cmd/smoke tester.
	SmokeTestAPIBase = strings.TrimSpace(env.String("API_BASE", "http://localhost:3000"))
	// SmokeTestTargets lists comma-separated URLs fetched by the cmd/smoke tester.
	SmokeTestTargets = strings.TrimSpace(env.String("SMOKE_TARGETS", ""))
	// SmokeTestToken is the bearer token cmd/smoke uses for stored request replays.
	SmokeTestToken = strings.TrimSpace(env.String("API_TOKEN", ""))
	// SmokeTestStoredRequests lists comma-separated stored request ids replayed by cmd/smoke.
	SmokeTestStoredRequests = strings.TrimSpace(env.String("SMOKE_STORED_REQUESTS", ""))
)

func init() {
	if JWTSecretEnvValue == "" {
		fmt.Println("JWT_SECRET not set, using random secret")
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate random secret: %v", err))
		}

		JWTSecret = base64.StdEncoding.EncodeToString(key)
	}
}
