package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentguard-hq/agentguard/pkg/evidence"
)

// Store is the persistence the generator reads from and writes to.
type Store interface {
	evidence.ReportStore
	GetAgent(ctx context.Context, id string) (*evidence.Agent, error)
	LatestComplianceCheck(ctx context.Context, agentID string) (*evidence.ComplianceCheck, error)
	Stats(ctx context.Context, agentID string, start, end time.Time) (*evidence.AggregatedStats, error)
}

// Observer is notified when a generation job finishes.
type Observer interface {
	ObserveReport(reportType, status string, duration time.Duration)
}

// Generator runs report jobs in the background. Each job moves its record
// from generating to completed or failed exactly once.
type Generator struct {
	store    Store
	sink     Sink
	logger   *slog.Logger
	observer Observer
	timeout  time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

// DefaultJobTimeout bounds a single generation job.
const DefaultJobTimeout = 2 * time.Minute

// NewGenerator creates a generator writing documents to sink.
func NewGenerator(store Store, sink Sink) *Generator {
	return &Generator{
		store:   store,
		sink:    sink,
		logger:  slog.Default().With("component", "reports.generator"),
		timeout: DefaultJobTimeout,
		now:     time.Now,
	}
}

// SetJobTimeout overrides DefaultJobTimeout. Non-positive values are
// ignored. Call before Start.
func (g *Generator) SetJobTimeout(d time.Duration) {
	if d > 0 {
		g.timeout = d
	}
}

// SetObserver installs an observer. Call before Start.
func (g *Generator) SetObserver(o Observer) {
	g.observer = o
}

// Start validates req, records a generating job and renders it in the
// background. The returned record is the job as first persisted.
func (g *Generator) Start(ctx context.Context, req Request) (*evidence.ReportRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := g.now().UTC()
	start := now.AddDate(0, 0, -req.PeriodDays)
	rec := &evidence.ReportRecord{
		ID:          uuid.New().String(),
		AgentID:     req.AgentID,
		ReportType:  req.Type,
		CreatedAt:   now,
		PeriodStart: &start,
		PeriodEnd:   &now,
		Status:      evidence.ReportGenerating,
		Metadata:    map[string]string{"period_days": fmt.Sprint(req.PeriodDays)},
	}
	if err := g.store.CreateReport(ctx, rec); err != nil {
		return nil, err
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.run(rec)
	}()

	return rec, nil
}

// Wait blocks until every started job has finished.
func (g *Generator) Wait() {
	g.wg.Wait()
}

func (g *Generator) run(rec *evidence.ReportRecord) {
	began := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	status := evidence.ReportCompleted
	location, err := g.generate(ctx, rec)
	if err != nil {
		status = evidence.ReportFailed
		location = ""
		g.logger.Error("report generation failed",
			"report_id", rec.ID,
			"agent_id", rec.AgentID,
			"report_type", rec.ReportType,
			"error", err)
	}

	if err := g.store.UpdateReportStatus(ctx, rec.ID, status, location); err != nil {
		g.logger.Error("failed to update report status",
			"report_id", rec.ID,
			"status", status,
			"error", err)
	} else if status == evidence.ReportCompleted {
		g.logger.Info("report generated",
			"report_id", rec.ID,
			"report_type", rec.ReportType,
			"location", location,
			"duration", time.Since(began))
	}

	if g.observer != nil {
		g.observer.ObserveReport(rec.ReportType, status, time.Since(began))
	}
}

func (g *Generator) generate(ctx context.Context, rec *evidence.ReportRecord) (string, error) {
	d := &Data{
		Type:        rec.ReportType,
		AgentID:     rec.AgentID,
		GeneratedAt: g.now().UTC(),
		PeriodStart: *rec.PeriodStart,
		PeriodEnd:   *rec.PeriodEnd,
	}

	agent, err := g.store.GetAgent(ctx, rec.AgentID)
	switch {
	case err == nil:
		d.Agent = agent
	case !errors.Is(err, evidence.ErrNotFound):
		return "", fmt.Errorf("load agent: %w", err)
	}

	if rec.ReportType == TypeAnnexIV {
		check, err := g.store.LatestComplianceCheck(ctx, rec.AgentID)
		switch {
		case err == nil:
			d.Check = check
		case !errors.Is(err, evidence.ErrNotFound):
			return "", fmt.Errorf("load compliance check: %w", err)
		}
	}

	stats, err := g.store.Stats(ctx, rec.AgentID, d.PeriodStart, d.PeriodEnd)
	if err != nil {
		return "", fmt.Errorf("load stats: %w", err)
	}
	d.Stats = *stats

	if d.Reports, err = g.store.CountReports(ctx, rec.AgentID, ""); err != nil {
		return "", fmt.Errorf("count reports: %w", err)
	}

	body, err := Render(d)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s.md", rec.ReportType, strings.ReplaceAll(rec.AgentID, "/", "_"), rec.ID)
	return g.sink.Put(ctx, name, body)
}

// Open returns the document of a completed report. It fails with a
// NotFoundError for unknown IDs, ErrNotReady while the job is not completed
// and ErrFileMissing when the document is gone.
func (g *Generator) Open(ctx context.Context, id string) (*evidence.ReportRecord, io.ReadCloser, error) {
	rec, err := g.store.GetReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != evidence.ReportCompleted {
		return rec, nil, ErrNotReady
	}
	if rec.FilePath == "" {
		return rec, nil, ErrFileMissing
	}
	body, err := g.sink.Open(ctx, rec.FilePath)
	if err != nil {
		return rec, nil, err
	}
	return rec, body, nil
}
