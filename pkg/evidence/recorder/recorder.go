package recorder

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/evidence"
)

// ErrRecorderClosed is returned by RecordAsync after Close.
var ErrRecorderClosed = errors.New("recorder closed")

// Config contains configuration for the interaction recorder.
type Config struct {
	// AsyncBuffer is the size of the RecordAsync queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Interaction is one intercepted prompt/response exchange. Raw text is only
// held in memory long enough to classify and hash it.
type Interaction struct {
	// ID is optional; a UUID is generated when empty. Supplying the same ID
	// twice stores one record.
	ID string

	AgentID   string
	SessionID string
	Timestamp time.Time

	Prompt   string
	Response string

	Model          string
	Provider       string
	PromptTokens   int
	ResponseTokens int
	ToolCalls      []evidence.ToolCall

	IPAddress string
	UserAgent string
}

// Observer is notified of every stored record. The metrics collector
// implements it.
type Observer interface {
	ObserveInteraction(record *evidence.InteractionRecord)
}

// Recorder classifies intercepted interactions and appends one immutable
// audit record per interaction.
type Recorder struct {
	store    evidence.InteractionStore
	config   *Config
	pii      *classify.PIIDetector
	risk     *classify.RiskClassifier
	flagger  *classify.ComplianceFlagger
	observer Observer
	logger   *slog.Logger

	recordChan chan *evidence.InteractionRecord
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
	closed     bool
}

// NewRecorder creates a recorder writing to store and starts its async
// worker. Close must be called to drain the queue.
func NewRecorder(store evidence.InteractionStore, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		store:      store,
		config:     config,
		pii:        classify.NewPIIDetector(),
		risk:       classify.NewRiskClassifier(),
		flagger:    classify.NewComplianceFlagger(),
		logger:     slog.Default().With("component", "evidence.recorder"),
		recordChan: make(chan *evidence.InteractionRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("interaction recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// SetObserver registers an observer for stored records.
func (r *Recorder) SetObserver(o Observer) {
	r.observer = o
}

// Classify builds the audit record for an interaction without storing it.
// It is pure apart from ID and timestamp generation.
func (r *Recorder) Classify(in Interaction) *evidence.InteractionRecord {
	_, piiTypes, piiRisk := r.pii.Scan(in.Prompt + " " + in.Response)
	tier := r.risk.Classify(in.Prompt, in.Response)
	flags := r.flagger.Check(in.Prompt, in.Response, piiTypes)

	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	agentID := in.AgentID
	if agentID == "" {
		agentID = "unknown"
	}

	return &evidence.InteractionRecord{
		ID:              id,
		AgentID:         agentID,
		SessionID:       in.SessionID,
		Timestamp:       ts.UTC(),
		EventType:       evidence.EventTypeLLMCall,
		PromptHash:      HashString(in.Prompt),
		ResponseHash:    HashString(in.Response),
		PromptTokens:    in.PromptTokens,
		ResponseTokens:  in.ResponseTokens,
		Model:           in.Model,
		Provider:        in.Provider,
		RiskScore:       math.Max(tier.Score, piiRisk),
		PIIDetected:     len(piiTypes) > 0,
		PIITypes:        piiTypes,
		ToolCalls:       in.ToolCalls,
		ComplianceFlags: flags,
		Metadata: map[string]string{
			"risk_level": string(tier.Level),
			"eu_article": tier.Article,
		},
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	}
}

// Record classifies the interaction and writes its record synchronously.
// A duplicate ID is not an error. A storage failure is returned as a
// RecorderError and the record is discarded.
func (r *Recorder) Record(ctx context.Context, in Interaction) (*evidence.InteractionRecord, error) {
	record := r.Classify(in)
	if err := r.write(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RecordAsync classifies the interaction and queues its record for the
// background worker. It never blocks; a full queue drops the record.
func (r *Recorder) RecordAsync(in Interaction) (*evidence.InteractionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRecorderClosed
	}

	record := r.Classify(in)
	select {
	case r.recordChan <- record:
		return record, nil
	default:
		r.logger.Error("record queue full, dropping interaction",
			"record_id", record.ID,
			"agent_id", record.AgentID,
			"queue_capacity", r.config.AsyncBuffer,
		)
		return nil, evidence.NewRecorderError(record.ID, record.AgentID, errors.New("queue full"))
	}
}

// Close stops accepting async records, drains the queue and waits for
// pending writes.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down interaction recorder")

		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		close(r.done)
		r.wg.Wait()

		r.logger.Info("interaction recorder shut down")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeLogged(record)

		case <-r.done:
			r.logger.Info("draining record queue", "pending_count", len(r.recordChan))
			for {
				select {
				case record := <-r.recordChan:
					r.writeLogged(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeLogged(record *evidence.InteractionRecord) {
	if err := r.write(context.Background(), record); err != nil {
		r.logger.Error("failed to store interaction", "record_id", record.ID, "error", err)
	}
}

// write performs the insert-if-absent with a bounded timeout.
func (r *Recorder) write(ctx context.Context, record *evidence.InteractionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	inserted, err := r.store.InsertIfAbsent(ctx, record)
	if err != nil {
		return evidence.NewRecorderError(record.ID, record.AgentID, err)
	}
	duration := time.Since(start)

	if !inserted {
		r.logger.Debug("duplicate interaction ignored", "record_id", record.ID)
		return nil
	}

	r.logger.Debug("interaction recorded",
		"record_id", record.ID,
		"agent_id", record.AgentID,
		"risk_score", record.RiskScore,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow interaction write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}

	if record.IsHighRisk() {
		r.logger.Warn("HIGH RISK interaction detected",
			"record_id", record.ID,
			"agent_id", record.AgentID,
			"risk_score", record.RiskScore,
			"flags", len(record.ComplianceFlags),
		)
	}

	if r.observer != nil {
		r.observer.ObserveInteraction(record)
	}

	return nil
}
