package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 150 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 30 * time.Second

	// Proxy defaults
	DefaultProxyTimeout = 120 * time.Second

	// Storage defaults
	DefaultStorageBackend         = "sqlite"
	DefaultSQLitePath             = "data/agentguard.db"
	DefaultSQLiteDriver           = "sqlite3"
	DefaultSQLiteMaxOpenConns     = 10
	DefaultSQLiteMaxIdleConns     = 5
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultPostgresMaxOpenConns   = 20
	DefaultPostgresMaxIdleConns   = 5
	DefaultPostgresConnMaxLife    = 30 * time.Minute
	DefaultPostgresConnectTimeout = 10 * time.Second

	// Recorder defaults
	DefaultRecorderAsyncBuffer  = 1000
	DefaultRecorderWriteTimeout = 5 * time.Second

	// Retention defaults
	DefaultRetentionDays           = 2555
	DefaultRetentionSchedule       = "0 3 * * *"
	DefaultRetentionArchivePath    = "data/archives/"
	DefaultRetentionMaxDeleteBatch = 1000

	// Compliance defaults
	DefaultComplianceReadTimeout = 5 * time.Second
	DefaultComplianceDaysBack    = 30

	// Reports defaults
	DefaultReportsSink       = "local"
	DefaultReportsOutputDir  = "reports"
	DefaultReportsJobTimeout = 2 * time.Minute

	// Cache defaults
	DefaultCacheRedisURL = "redis://localhost:6379/0"
	DefaultCacheTTL      = 15 * time.Second

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "agentguard"
	DefaultLivenessPath       = "/health/live"
	DefaultReadinessPath      = "/health/ready"
	DefaultHealthCheckTimeout = 2 * time.Second
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultServiceName        = "agentguard"
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{
		Storage:   StorageConfig{SQLite: SQLiteConfig{WALMode: true}},
		Retention: RetentionConfig{Enabled: true, Archive: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Boolean
// fields are left untouched since false is a meaningful value; DefaultConfig
// sets the ones that default to true.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyProxyDefaults(&cfg.Proxy)
	applyStorageDefaults(&cfg.Storage)
	applyRecorderDefaults(&cfg.Recorder)
	applyRetentionDefaults(&cfg.Retention)
	applyComplianceDefaults(&cfg.Compliance)
	applyReportsDefaults(&cfg.Reports)
	applyCacheDefaults(&cfg.Cache)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
}

func applyProxyDefaults(cfg *ProxyConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultProxyTimeout
	}
	if cfg.BaseURLs == nil {
		cfg.BaseURLs = make(map[string]string)
	}
	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultStorageBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.Driver == "" {
		cfg.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.SQLite.MaxOpenConns == 0 {
		cfg.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.SQLite.MaxIdleConns == 0 {
		cfg.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if cfg.Postgres.ConnMaxLifetime == 0 {
		cfg.Postgres.ConnMaxLifetime = DefaultPostgresConnMaxLife
	}
	if cfg.Postgres.ConnectTimeout == 0 {
		cfg.Postgres.ConnectTimeout = DefaultPostgresConnectTimeout
	}
}

func applyRecorderDefaults(cfg *RecorderConfig) {
	if cfg.AsyncBuffer == 0 {
		cfg.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultRecorderWriteTimeout
	}
}

func applyRetentionDefaults(cfg *RetentionConfig) {
	if cfg.Days == 0 {
		cfg.Days = DefaultRetentionDays
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRetentionSchedule
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = DefaultRetentionArchivePath
	}
	if cfg.MaxDeleteBatch == 0 {
		cfg.MaxDeleteBatch = DefaultRetentionMaxDeleteBatch
	}
}

func applyComplianceDefaults(cfg *ComplianceConfig) {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultComplianceReadTimeout
	}
	if cfg.DaysBack == 0 {
		cfg.DaysBack = DefaultComplianceDaysBack
	}
}

func applyReportsDefaults(cfg *ReportsConfig) {
	if cfg.Sink == "" {
		cfg.Sink = DefaultReportsSink
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultReportsOutputDir
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = DefaultReportsJobTimeout
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.RedisURL == "" {
		cfg.RedisURL = DefaultCacheRedisURL
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultCacheTTL
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}
}
