package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "storage.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRecorder(&cfg.Recorder)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateCompliance(&cfg.Compliance)...)
	errs = append(errs, validateReports(&cfg.Reports)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must be positive"})
	}
	return errs
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "proxy.timeout", Message: "must be positive"})
	}
	for name, raw := range cfg.BaseURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "proxy.base_urls." + name,
				Message: fmt.Sprintf("invalid URL %q", raw),
			})
		}
	}
	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "storage.sqlite.path", Message: "is required"})
		}
		if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("must be sqlite3 or sqlite, got %q", cfg.SQLite.Driver),
			})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{Field: "storage.postgres.dsn", Message: "is required for the postgres backend"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be sqlite, postgres or memory, got %q", cfg.Backend),
		})
	}
	return errs
}

func validateRecorder(cfg *RecorderConfig) []FieldError {
	var errs []FieldError
	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{Field: "recorder.async_buffer", Message: "must be at least 1"})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{Field: "recorder.write_timeout", Message: "must be positive"})
	}
	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.Days < 1 {
		errs = append(errs, FieldError{Field: "retention.days", Message: "must be at least 1"})
	}
	if err := validateCron(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{Field: "retention.schedule", Message: err.Error()})
	}
	if cfg.Archive && cfg.ArchivePath == "" {
		errs = append(errs, FieldError{Field: "retention.archive_path", Message: "is required when archive is enabled"})
	}
	if cfg.MaxDeleteBatch < 0 {
		errs = append(errs, FieldError{Field: "retention.max_delete_batch", Message: "must not be negative"})
	}
	return errs
}

func validateCompliance(cfg *ComplianceConfig) []FieldError {
	var errs []FieldError
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, FieldError{Field: "compliance.read_timeout", Message: "must be positive"})
	}
	if cfg.Schedule != "" {
		if err := validateCron(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{Field: "compliance.schedule", Message: err.Error()})
		}
	}
	if cfg.DaysBack < 1 || cfg.DaysBack > 365 {
		errs = append(errs, FieldError{Field: "compliance.days_back", Message: "must be between 1 and 365"})
	}
	return errs
}

func validateReports(cfg *ReportsConfig) []FieldError {
	var errs []FieldError
	switch cfg.Sink {
	case "local":
		if cfg.OutputDir == "" {
			errs = append(errs, FieldError{Field: "reports.output_dir", Message: "is required for the local sink"})
		}
	case "s3":
		if cfg.S3.Bucket == "" {
			errs = append(errs, FieldError{Field: "reports.s3.bucket", Message: "is required for the s3 sink"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "reports.sink",
			Message: fmt.Sprintf("must be local or s3, got %q", cfg.Sink),
		})
	}
	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	u, err := url.Parse(cfg.RedisURL)
	if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
		errs = append(errs, FieldError{Field: "cache.redis_url", Message: fmt.Sprintf("invalid redis URL %q", cfg.RedisURL)})
	}
	if cfg.TTL <= 0 {
		errs = append(errs, FieldError{Field: "cache.ttl", Message: "must be positive"})
	}
	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	if len(cfg.JWTSecret) < 32 {
		return []FieldError{{Field: "auth.jwt_secret", Message: "must be at least 32 bytes when auth is enabled"}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", cfg.Logging.Format),
		})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "is required",
			})
		}
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("must be always, never or ratio, got %q", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
		}
	}
	return errs
}

func validateCron(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}
