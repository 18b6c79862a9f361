package proxy

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/recorder"
	"agentguard-hq/agentguard/pkg/telemetry/logging"
)

// DefaultTimeout bounds one upstream round trip.
const DefaultTimeout = 120 * time.Second

// AnthropicVersion is sent with every Anthropic request.
const AnthropicVersion = "2023-06-01"

// DefaultBaseURLs maps provider names to upstream API roots.
var DefaultBaseURLs = map[string]string{
	recorder.ProviderOpenAI:    "https://api.openai.com",
	recorder.ProviderAnthropic: "https://api.anthropic.com",
	recorder.ProviderGroq:      "https://api.groq.com/openai",
}

// Config configures the proxy.
type Config struct {
	Timeout  time.Duration
	BaseURLs map[string]string // provider -> base URL; defaults fill gaps
	APIKeys  map[string]string // provider -> key

	// AsyncRecording queues records instead of writing them inline.
	AsyncRecording bool
}

// Recorder persists intercepted interactions.
type Recorder interface {
	Record(ctx context.Context, in recorder.Interaction) (*evidence.InteractionRecord, error)
	RecordAsync(in recorder.Interaction) (*evidence.InteractionRecord, error)
}

// Observer is told about every upstream round trip. Status is 0 when the
// upstream could not be reached.
type Observer interface {
	ObserveUpstream(provider string, status int, duration time.Duration)
}

// Proxy forwards agent calls to LLM providers and records each exchange.
// Bodies are relayed byte for byte; only Content-Type is taken from the
// client and credentials are substituted per provider.
type Proxy struct {
	baseURLs map[string]string
	apiKeys  map[string]string
	async    bool
	client   *http.Client
	recorder Recorder
	observer Observer
	tracer   trace.Tracer
	logger   *slog.Logger
}

// New creates a proxy that records through rec.
func New(cfg Config, rec Recorder) *Proxy {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseURLs := make(map[string]string, len(DefaultBaseURLs))
	for name, url := range DefaultBaseURLs {
		baseURLs[name] = url
	}
	for name, url := range cfg.BaseURLs {
		if url != "" {
			baseURLs[name] = strings.TrimRight(url, "/")
		}
	}

	keys := make(map[string]string, len(cfg.APIKeys))
	for name, key := range cfg.APIKeys {
		keys[name] = key
	}

	return &Proxy{
		baseURLs: baseURLs,
		apiKeys:  keys,
		async:    cfg.AsyncRecording,
		client:   &http.Client{Timeout: timeout},
		recorder: rec,
		tracer:   otel.Tracer("agentguard/proxy"),
		logger:   slog.Default().With("component", "proxy"),
	}
}

// SetObserver installs an observer. Call before serving.
func (p *Proxy) SetObserver(o Observer) {
	p.observer = o
}

// Providers returns the configured provider names.
func (p *Proxy) Providers() []string {
	names := make([]string, 0, len(p.baseURLs))
	for name := range p.baseURLs {
		names = append(names, name)
	}
	return names
}

// ServeHTTP handles /proxy/{provider}/{path}. The route must define the
// provider and path variables.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	provider, path := vars["provider"], vars["path"]

	agentID := r.Header.Get(AgentIDHeader)
	if agentID == "" {
		agentID = "unknown"
	}
	sessionID := r.Header.Get(SessionIDHeader)

	ctx := logging.WithProvider(r.Context(), provider)
	ctx = logging.WithAgentID(ctx, agentID)
	if sessionID != "" {
		ctx = logging.WithSession(ctx, sessionID)
	}
	ctx, span := p.tracer.Start(ctx, "proxy.forward",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("agentguard.provider", provider),
			attribute.String("agentguard.agent_id", agentID),
			attribute.String("http.request.method", r.Method),
		))
	defer span.End()

	baseURL, ok := p.baseURLs[provider]
	if !ok {
		writeError(w, errUnknownProvider(provider))
		return
	}
	apiKey := p.apiKeys[provider]
	if apiKey == "" {
		p.logger.ErrorContext(ctx, "provider key missing")
		writeError(w, errMissingKey(provider))
		return
	}

	// Stage 1: read the request and extract prompt-side fields.
	reqBody, err := readLimited(r.Body, MaxRequestBodySize)
	if err != nil {
		writeError(w, &Error{Status: http.StatusRequestEntityTooLarge, Detail: "Request body too large", Cause: err})
		return
	}
	reqPayload := recorder.ParsePayload(reqBody)

	// Stage 2: forward.
	target := baseURL + "/" + strings.TrimLeft(path, "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	out, err := http.NewRequestWithContext(ctx, r.Method, target, bytes.NewReader(reqBody))
	if err != nil {
		writeError(w, errUpstream(provider, err))
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		out.Header.Set("Content-Type", ct)
	}
	setCredentials(out.Header, provider, apiKey)

	start := time.Now()
	resp, err := p.client.Do(out)
	if err != nil {
		p.observe(provider, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream unreachable")
		pe := errUpstream(provider, err)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			pe = errUpstreamTimeout(provider, err)
		}
		p.logger.WarnContext(ctx, "upstream request failed", "target", target, "error", err)
		writeError(w, pe)
		return
	}
	defer resp.Body.Close()

	respBody, err := readLimited(resp.Body, MaxResponseBodySize)
	p.observe(provider, resp.StatusCode, time.Since(start))
	if err != nil {
		span.RecordError(err)
		writeError(w, errUpstream(provider, err))
		return
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	for k, vs := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(respBody); err != nil {
		p.logger.DebugContext(ctx, "client went away", "error", err)
	}

	// Stages 3 and 4: extract response-side fields and record. Calls whose
	// request body is not a JSON object are relayed without a record.
	if reqPayload == nil {
		return
	}
	var respPayload recorder.Payload
	if isJSON(resp.Header.Get("Content-Type")) {
		respPayload = recorder.ParsePayload(respBody)
	}

	promptTokens := respPayload.InputTokens()
	if promptTokens == 0 {
		promptTokens = reqPayload.InputTokens()
	}

	in := recorder.Interaction{
		AgentID:        agentID,
		SessionID:      sessionID,
		Prompt:         reqPayload.Prompt(),
		Response:       respPayload.Response(),
		Model:          reqPayload.Model(),
		Provider:       provider,
		PromptTokens:   promptTokens,
		ResponseTokens: respPayload.OutputTokens(),
		ToolCalls:      respPayload.ToolCalls(),
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	}
	p.record(ctx, in)
}

func (p *Proxy) record(ctx context.Context, in recorder.Interaction) {
	var (
		rec *evidence.InteractionRecord
		err error
	)
	if p.async {
		rec, err = p.recorder.RecordAsync(in)
	} else {
		rec, err = p.recorder.Record(context.WithoutCancel(ctx), in)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to record interaction", "error", err)
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("agentguard.record_id", rec.ID),
		attribute.Float64("agentguard.risk_score", rec.RiskScore),
		attribute.Bool("agentguard.pii_detected", rec.PIIDetected),
	)
}

func (p *Proxy) observe(provider string, status int, d time.Duration) {
	if p.observer != nil {
		p.observer.ObserveUpstream(provider, status, d)
	}
}

func setCredentials(h http.Header, provider, apiKey string) {
	switch provider {
	case recorder.ProviderAnthropic:
		h.Set("x-api-key", apiKey)
		h.Set("anthropic-version", AnthropicVersion)
	default:
		h.Set("Authorization", "Bearer "+apiKey)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
