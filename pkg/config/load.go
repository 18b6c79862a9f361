package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "AGENTGUARD_"

// ProviderKeyEnv maps provider names to the environment variable holding
// their upstream API key.
var ProviderKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"groq":      "GROQ_API_KEY",
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates it. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig, so omitted fields keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment overrides. An empty path starts from DefaultConfig.
//
// The loading sequence is:
//  1. Defaults
//  2. YAML file
//  3. AGENTGUARD_* and provider key environment variables
//  4. Validation
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Malformed
// numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	if val := os.Getenv(EnvPrefix + "SERVER_CORS_ORIGINS"); val != "" {
		cfg.Server.CORSOrigins = splitList(val)
	}

	// Proxy
	envDuration("PROXY_TIMEOUT", &cfg.Proxy.Timeout)
	for provider, name := range ProviderKeyEnv {
		if val := os.Getenv(name); val != "" {
			cfg.Proxy.APIKeys[provider] = val
		}
		key := EnvPrefix + "PROXY_" + strings.ToUpper(provider) + "_BASE_URL"
		if val := os.Getenv(key); val != "" {
			cfg.Proxy.BaseURLs[provider] = val
		}
	}

	// Storage
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envString("STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)
	envBool("STORAGE_SQLITE_WAL_MODE", &cfg.Storage.SQLite.WALMode)
	envString("STORAGE_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	envInt("STORAGE_POSTGRES_MAX_OPEN_CONNS", &cfg.Storage.Postgres.MaxOpenConns)

	// Recorder
	envBool("RECORDER_ASYNC", &cfg.Recorder.Async)
	envInt("RECORDER_ASYNC_BUFFER", &cfg.Recorder.AsyncBuffer)
	envDuration("RECORDER_WRITE_TIMEOUT", &cfg.Recorder.WriteTimeout)

	// Retention
	envBool("RETENTION_ENABLED", &cfg.Retention.Enabled)
	envInt("RETENTION_DAYS", &cfg.Retention.Days)
	envString("RETENTION_SCHEDULE", &cfg.Retention.Schedule)
	envBool("RETENTION_ARCHIVE", &cfg.Retention.Archive)
	envString("RETENTION_ARCHIVE_PATH", &cfg.Retention.ArchivePath)

	// Compliance
	envDuration("COMPLIANCE_READ_TIMEOUT", &cfg.Compliance.ReadTimeout)
	envString("COMPLIANCE_SCHEDULE", &cfg.Compliance.Schedule)
	envInt("COMPLIANCE_DAYS_BACK", &cfg.Compliance.DaysBack)

	// Reports
	envString("REPORTS_SINK", &cfg.Reports.Sink)
	envString("REPORTS_OUTPUT_DIR", &cfg.Reports.OutputDir)
	envString("REPORTS_S3_BUCKET", &cfg.Reports.S3.Bucket)
	envString("REPORTS_S3_PREFIX", &cfg.Reports.S3.Prefix)
	envString("REPORTS_S3_REGION", &cfg.Reports.S3.Region)
	envString("REPORTS_S3_ENDPOINT", &cfg.Reports.S3.Endpoint)

	// Cache
	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("CACHE_REDIS_URL", &cfg.Cache.RedisURL)
	envDuration("CACHE_TTL", &cfg.Cache.TTL)

	// Auth
	envBool("AUTH_ENABLED", &cfg.Auth.Enabled)
	envString("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	envString("AUTH_ISSUER", &cfg.Auth.Issuer)

	// Telemetry
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
