package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg.Writer = &buf
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "text debug", cfg: Config{Level: "debug", Format: "text"}},
		{name: "console alias", cfg: Config{Format: "console"}},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, Config{Level: "warn"})

	l.Slog().Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	if err := l.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	l.Slog().Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug not logged after SetLevel(debug)")
	}
	if l.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v", l.Level())
	}
	if err := l.SetLevel("nope"); err == nil {
		t.Error("SetLevel() accepted invalid level")
	}
}

func TestLogger_ContextFields(t *testing.T) {
	l, buf := newBufferLogger(t, Config{})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithAgentID(ctx, "agent-7")
	ctx = WithSession(ctx, "sess-2")
	ctx = WithProvider(ctx, "openai")
	l.Slog().InfoContext(ctx, "proxied", "status", 200)

	m := decodeLine(t, buf)
	want := map[string]string{
		"request_id": "req-1",
		"agent_id":   "agent-7",
		"session_id": "sess-2",
		"provider":   "openai",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %s", k, m[k], v)
		}
	}
	if m["status"] != float64(200) {
		t.Errorf("status = %v", m["status"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	l, buf := newBufferLogger(t, Config{Redact: true})

	l.Slog().With("api_key", "sk-abcdef1234567890").Info("upstream call",
		"authorization", "Bearer abc.def.ghi",
		"detail", "contact jane@example.com with key sk-live12345678",
		"agent_id", "123-45-6789",
		"prompt_tokens", 12,
	)

	out := buf.String()
	for _, leaked := range []string{"sk-abcdef1234567890", "abc.def.ghi", "jane@example.com", "sk-live12345678"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log leaked %q: %s", leaked, out)
		}
	}

	m := decodeLine(t, buf)
	if m["agent_id"] != "123-45-6789" {
		t.Errorf("identifier rewritten: %v", m["agent_id"])
	}
	if m["prompt_tokens"] != float64(12) {
		t.Errorf("token count masked: %v", m["prompt_tokens"])
	}
	if m["api_key"] != "sk-a***" {
		t.Errorf("api_key = %v, want sk-a***", m["api_key"])
	}
}

func TestLogger_NoRedactionByDefault(t *testing.T) {
	l, buf := newBufferLogger(t, Config{})
	l.Slog().Info("x", "email", "jane@example.com")
	if !strings.Contains(buf.String(), "jane@example.com") {
		t.Error("value rewritten with redaction disabled")
	}
}

func TestLogger_Install(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	l, buf := newBufferLogger(t, Config{})
	l.Install()
	slog.Default().With("component", "test").Info("hello")

	m := decodeLine(t, buf)
	if m["component"] != "test" || m["msg"] != "hello" {
		t.Errorf("unexpected line %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
