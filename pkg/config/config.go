package config

import "time"

// Config is the root configuration structure for AgentGuard.
type Config struct {
	// Server contains HTTP listener configuration for the API and proxy.
	Server ServerConfig `yaml:"server"`

	// Proxy contains upstream provider configuration for the recording proxy.
	Proxy ProxyConfig `yaml:"proxy"`

	// Storage selects and configures the audit store backend.
	Storage StorageConfig `yaml:"storage"`

	// Recorder configures how intercepted interactions are written.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention configures pruning of expired audit records.
	Retention RetentionConfig `yaml:"retention"`

	// Compliance configures the compliance engine and its scheduler.
	Compliance ComplianceConfig `yaml:"compliance"`

	// Reports configures report generation and where documents are kept.
	Reports ReportsConfig `yaml:"reports"`

	// Cache configures the optional Redis cache for dashboard reads.
	Cache CacheConfig `yaml:"cache"`

	// Auth configures bearer token authentication on /api.
	Auth AuthConfig `yaml:"auth"`

	// Telemetry contains configuration for logging, metrics, health and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "0.0.0.0:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must exceed the proxy upstream timeout, otherwise long
	// completions are cut off.
	// Default: 150s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout is the deadline applied to /api handlers.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	// Default: ["*"]
	CORSOrigins []string `yaml:"cors_origins"`
}

// ProxyConfig contains upstream provider configuration.
type ProxyConfig struct {
	// Timeout bounds each upstream call.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// BaseURLs overrides the upstream base URL per provider name.
	BaseURLs map[string]string `yaml:"base_urls"`

	// APIKeys holds the upstream credential per provider name. The
	// OPENAI_API_KEY, ANTHROPIC_API_KEY and GROQ_API_KEY environment
	// variables take precedence.
	APIKeys map[string]string `yaml:"api_keys"`
}

// StorageConfig selects the audit store backend.
type StorageConfig struct {
	// Backend is one of "sqlite", "postgres" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite backend settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/agentguard.db"
	Path string `yaml:"path"`

	// Driver is "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// PostgresConfig contains PostgreSQL backend settings.
type PostgresConfig struct {
	// DSN is a lib/pq connection string.
	DSN string `yaml:"dsn"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// RecorderConfig configures the interaction recorder.
type RecorderConfig struct {
	// Async queues proxied interactions instead of writing them inline.
	// Default: false
	Async bool `yaml:"async"`

	// AsyncBuffer is the queue size used when Async is set.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds each storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig configures audit record pruning.
type RetentionConfig struct {
	Enabled bool `yaml:"enabled"`

	// Days is the retention period. Disable retention to keep records
	// forever.
	// Default: 2555 (seven years)
	Days int `yaml:"days"`

	// Schedule is a cron expression.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// Archive exports expiring records to ArchivePath before deletion.
	Archive     bool   `yaml:"archive"`
	ArchivePath string `yaml:"archive_path"`

	// MaxDeleteBatch bounds rows removed per delete statement.
	// Default: 1000
	MaxDeleteBatch int `yaml:"max_delete_batch"`
}

// ComplianceConfig configures compliance evaluation.
type ComplianceConfig struct {
	// ReadTimeout bounds each store read made during an evaluation.
	// Default: 5s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// Schedule is a cron expression for the periodic sweep over active
	// agents. Empty disables the sweep.
	Schedule string `yaml:"schedule"`

	// DaysBack is the lookback window of scheduled evaluations.
	// Default: 30
	DaysBack int `yaml:"days_back"`
}

// ReportsConfig configures report generation.
type ReportsConfig struct {
	// Sink is "local" or "s3".
	// Default: "local"
	Sink string `yaml:"sink"`

	// OutputDir is the local sink directory.
	// Default: "reports"
	OutputDir string `yaml:"output_dir"`

	S3 S3Config `yaml:"s3"`

	// JobTimeout bounds one generation job.
	// Default: 2m
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// S3Config configures the S3 report sink.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`

	// Endpoint points the client at an S3-compatible service.
	Endpoint string `yaml:"endpoint"`
}

// CacheConfig configures the Redis read-through cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// RedisURL is a redis:// URL.
	// Default: "redis://localhost:6379/0"
	RedisURL string `yaml:"redis_url"`

	// TTL is how long cached dashboard reads live.
	// Default: 15s
	TTL time.Duration `yaml:"ttl"`
}

// AuthConfig configures bearer authentication on /api.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`

	// JWTSecret is the HS256 signing secret, at least 32 bytes.
	JWTSecret string `yaml:"jwt_secret"`

	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Health  HealthConfig  `yaml:"health"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is json or text.
	// Default: "json"
	Format string `yaml:"format"`

	AddSource bool `yaml:"add_source"`

	// Redact masks secrets and personal data in log attributes.
	// Default: true
	Redact *bool `yaml:"redact"`

	// RedactPatterns are applied after the built-in patterns.
	RedactPatterns []RedactPatternConfig `yaml:"redact_patterns"`
}

// RedactPatternConfig is a custom log redaction rule.
type RedactPatternConfig struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Default: "/metrics"
	Path string `yaml:"path"`

	// Default: "agentguard"
	Namespace string `yaml:"namespace"`
}

// HealthConfig configures the liveness and readiness probes.
type HealthConfig struct {
	// Default: "/health/live"
	LivenessPath string `yaml:"liveness_path"`

	// Default: "/health/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the ratio sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName is reported as the OTel resource service.name.
	// Default: "agentguard"
	ServiceName string `yaml:"service_name"`
}

// RedactEnabled reports whether log redaction is on.
func (c LoggingConfig) RedactEnabled() bool {
	return c.Redact == nil || *c.Redact
}

// MetricsEnabled reports whether the metrics endpoint is served.
func (c MetricsConfig) MetricsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
