package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{
			name:   "bad listen address",
			modify: func(c *Config) { c.Server.ListenAddress = "no-port" },
			field:  "server.listen_address",
		},
		{
			name:   "postgres without dsn",
			modify: func(c *Config) { c.Storage.Backend = "postgres" },
			field:  "storage.postgres.dsn",
		},
		{
			name:   "unknown sqlite driver",
			modify: func(c *Config) { c.Storage.SQLite.Driver = "sqlcipher" },
			field:  "storage.sqlite.driver",
		},
		{
			name:   "bad retention schedule",
			modify: func(c *Config) { c.Retention.Schedule = "every day" },
			field:  "retention.schedule",
		},
		{
			name:   "bad compliance schedule",
			modify: func(c *Config) { c.Compliance.Schedule = "* *" },
			field:  "compliance.schedule",
		},
		{
			name:   "days back out of range",
			modify: func(c *Config) { c.Compliance.DaysBack = 400 },
			field:  "compliance.days_back",
		},
		{
			name:   "s3 sink without bucket",
			modify: func(c *Config) { c.Reports.Sink = "s3" },
			field:  "reports.s3.bucket",
		},
		{
			name: "cache with bad url",
			modify: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.RedisURL = "http://localhost"
			},
			field: "cache.redis_url",
		},
		{
			name: "auth with short secret",
			modify: func(c *Config) {
				c.Auth.Enabled = true
				c.Auth.JWTSecret = "short"
			},
			field: "auth.jwt_secret",
		},
		{
			name:   "bad log level",
			modify: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name: "bad sample ratio",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.SampleRatio = 2
			},
			field: "telemetry.tracing.sample_ratio",
		},
		{
			name:   "bad base url",
			modify: func(c *Config) { c.Proxy.BaseURLs["openai"] = "ftp://x" },
			field:  "proxy.base_urls.openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidateDisabledSectionsSkipped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retention.Enabled = false
	cfg.Retention.Schedule = "garbage"
	cfg.Cache.RedisURL = "garbage"
	cfg.Auth.JWTSecret = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled sections should not be validated: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("single = %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "2 errors") || !strings.Contains(multi.Error(), "b: worse") {
		t.Errorf("multi = %q", multi.Error())
	}
}
