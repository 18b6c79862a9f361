package compliance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agentguard-hq/agentguard/pkg/evidence"
)

// Evaluation window bounds, in days.
const (
	MinDaysBack     = 1
	MaxDaysBack     = 365
	DefaultDaysBack = 30
)

// DefaultReadTimeout bounds each storage read made during an evaluation.
const DefaultReadTimeout = 5 * time.Second

// CheckStatusCompleted is the status stored with every persisted check.
const CheckStatusCompleted = "completed"

// Store is the storage the engine reads from and appends to.
// evidence.Store satisfies it.
type Store interface {
	Stats(ctx context.Context, agentID string, start, end time.Time) (*evidence.AggregatedStats, error)
	GetAgent(ctx context.Context, id string) (*evidence.Agent, error)
	CountReports(ctx context.Context, agentID, reportType string) (int, error)
	AppendComplianceCheck(ctx context.Context, check *evidence.ComplianceCheck) error
}

// Observer is notified of every persisted report.
type Observer interface {
	ObserveEvaluation(report *Report, duration time.Duration)
}

// Engine evaluates agents against regulation rule catalogs.
// Evaluations are independent and safe to run concurrently.
type Engine struct {
	store       Store
	readTimeout time.Duration
	observer    Observer
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine creates an engine. A non-positive readTimeout selects
// DefaultReadTimeout.
func NewEngine(store Store, readTimeout time.Duration) *Engine {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Engine{
		store:       store,
		readTimeout: readTimeout,
		tracer:      otel.Tracer("agentguard/compliance"),
		logger:      slog.Default().With("component", "compliance.engine"),
		now:         time.Now,
	}
}

// SetObserver registers an observer for completed evaluations.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// Evaluate scores an agent against a regulation over the last daysBack days
// and appends the result to compliance history.
//
// Read failures never abort an evaluation: missing data evaluates as zero
// and surfaces as findings. Cancellation before the final write returns
// ctx.Err() and persists nothing. A failed write is returned and the
// report discarded.
func (e *Engine) Evaluate(ctx context.Context, agentID string, reg Regulation, daysBack int) (*Report, error) {
	if err := validate(agentID, reg, daysBack); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "compliance.evaluate", trace.WithAttributes(
		attribute.String("agent.id", agentID),
		attribute.String("compliance.regulation", string(reg)),
		attribute.Int("compliance.days_back", daysBack),
	))
	defer span.End()

	start := e.now()
	periodEnd := start.UTC()
	periodStart := periodEnd.AddDate(0, 0, -daysBack)

	in := e.gather(ctx, agentID, periodStart, periodEnd)

	rules := Rules(reg)
	findings := []Finding{}
	var running float64
	for _, rule := range rules {
		if f := EvaluateRule(rule, in); f != nil {
			findings = append(findings, *f)
			running -= rule.Weight * f.ScoreImpact
		} else {
			running += rule.Weight
		}
	}

	score := normalize(running, TotalWeight(reg))

	report := &Report{
		ID:                  uuid.New().String(),
		AgentID:             agentID,
		Regulation:          reg,
		CheckDate:           periodEnd,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		OverallScore:        score,
		Grade:               Grade(score),
		Findings:            findings,
		Recommendations:     Recommendations(findings, in.Stats),
		Summary:             Summary(score, findings, in.Stats, reg),
		TotalInteractions:   in.Stats.Total,
		FlaggedInteractions: in.Stats.FlaggedCount,
		PIIExposures:        in.Stats.PIICount,
		HighRisk:            in.Stats.HighRiskCount,
		Stats:               in.Stats,
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	if err := e.store.AppendComplianceCheck(ctx, toCheck(report)); err != nil {
		var storageErr *evidence.StorageError
		if !errors.As(err, &storageErr) {
			err = evidence.NewStorageError("compliance", "append_check", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		e.logger.Error("failed to persist compliance check",
			"agent_id", agentID,
			"regulation", reg,
			"error", err,
		)
		return nil, err
	}

	duration := e.now().Sub(start)
	span.SetAttributes(
		attribute.Float64("compliance.score", report.OverallScore),
		attribute.String("compliance.grade", report.Grade),
		attribute.Int("compliance.findings", len(findings)),
	)

	e.logger.Info("compliance check completed",
		"agent_id", agentID,
		"regulation", reg,
		"score", report.OverallScore,
		"grade", report.Grade,
		"findings", len(findings),
		"duration_ms", duration.Milliseconds(),
	)

	if e.observer != nil {
		e.observer.ObserveEvaluation(report, duration)
	}

	return report, nil
}

func validate(agentID string, reg Regulation, daysBack int) error {
	if agentID == "" {
		return NewValidationError("agent_id", "must not be empty")
	}
	if !reg.IsValid() {
		return NewValidationError("regulation", "unknown regulation "+string(reg))
	}
	if daysBack < MinDaysBack || daysBack > MaxDaysBack {
		return NewValidationError("days_back", "must be between 1 and 365")
	}
	return nil
}

// gather performs the reads, each under its own timeout. Any failure leaves
// the corresponding input at its zero value.
func (e *Engine) gather(ctx context.Context, agentID string, start, end time.Time) *Inputs {
	in := &Inputs{}

	readCtx, cancel := context.WithTimeout(ctx, e.readTimeout)
	stats, err := e.store.Stats(readCtx, agentID, start, end)
	cancel()
	if err != nil {
		e.logger.Warn("failed to read audit stats, evaluating with no data",
			"agent_id", agentID, "error", err)
	} else if stats != nil {
		in.Stats = *stats
	}

	readCtx, cancel = context.WithTimeout(ctx, e.readTimeout)
	agent, err := e.store.GetAgent(readCtx, agentID)
	cancel()
	switch {
	case errors.Is(err, evidence.ErrNotFound):
		e.logger.Warn("agent not registered, evaluating with no attestations", "agent_id", agentID)
	case err != nil:
		e.logger.Warn("failed to read agent attestation, evaluating with none",
			"agent_id", agentID, "error", err)
	case agent != nil:
		in.Attestation = agent.Attestation
	}

	readCtx, cancel = context.WithTimeout(ctx, e.readTimeout)
	in.TechnicalDocReports, err = e.store.CountReports(readCtx, agentID, ReportTypeTechnicalDocs)
	cancel()
	if err != nil {
		in.TechnicalDocReports = 0
		e.logger.Warn("failed to count documentation reports", "agent_id", agentID, "error", err)
	}

	readCtx, cancel = context.WithTimeout(ctx, e.readTimeout)
	in.Reports, err = e.store.CountReports(readCtx, agentID, "")
	cancel()
	if err != nil {
		in.Reports = 0
		e.logger.Warn("failed to count reports", "agent_id", agentID, "error", err)
	}

	return in
}

// normalize converts the running weight into a 0-100 score rounded to one
// decimal. An empty catalog scores 0.
func normalize(running, total float64) float64 {
	if total <= 0 {
		return 0
	}
	score := running / total * 100
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10
}

func toCheck(r *Report) *evidence.ComplianceCheck {
	findings := make([]evidence.FindingRecord, 0, len(r.Findings))
	for _, f := range r.Findings {
		findings = append(findings, evidence.FindingRecord{
			Code:        f.Code,
			Title:       f.Title,
			Severity:    string(f.Severity),
			Description: f.Description,
			Article:     f.Article,
			Remediation: f.Remediation,
		})
	}
	return &evidence.ComplianceCheck{
		ID:              r.ID,
		AgentID:         r.AgentID,
		CheckDate:       r.CheckDate,
		Regulation:      string(r.Regulation),
		OverallScore:    r.OverallScore,
		Findings:        findings,
		Recommendations: r.Recommendations,
		Status:          CheckStatusCompleted,
	}
}
