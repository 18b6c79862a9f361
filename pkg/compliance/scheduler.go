package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"agentguard-hq/agentguard/pkg/evidence"
)

// AgentLister lists the agents a scheduled sweep evaluates.
type AgentLister interface {
	ListActiveAgents(ctx context.Context) ([]*evidence.Agent, error)
}

// Scheduler periodically evaluates every active agent against each
// regulation in its scope.
type Scheduler struct {
	engine   *Engine
	agents   AgentLister
	schedule string
	daysBack int
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler running on a standard cron expression.
func NewScheduler(engine *Engine, agents AgentLister, schedule string, daysBack int) *Scheduler {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	return &Scheduler{
		engine:   engine,
		agents:   agents,
		schedule: schedule,
		daysBack: daysBack,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "compliance.scheduler"),
	}
}

// Start registers the sweep and starts the cron runner. An empty schedule
// is a no-op. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("compliance schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid compliance schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("compliance scheduler started", "schedule", s.schedule, "days_back", s.daysBack)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron runner and waits for a running sweep.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("compliance scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Sweep evaluates every active agent once per regulation in scope and
// returns the number of successful evaluations. Failures are logged and
// do not stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) int {
	agents, err := s.agents.ListActiveAgents(ctx)
	if err != nil {
		s.logger.Error("failed to list agents for compliance sweep", "error", err)
		return 0
	}

	completed := 0
	for _, agent := range agents {
		for _, scope := range agent.RegulationScope {
			if ctx.Err() != nil {
				return completed
			}
			reg := Regulation(scope)
			if !reg.IsValid() {
				s.logger.Warn("skipping unknown regulation in agent scope",
					"agent_id", agent.ID, "regulation", scope)
				continue
			}
			if _, err := s.engine.Evaluate(ctx, agent.ID, reg, s.daysBack); err != nil {
				s.logger.Error("scheduled compliance check failed",
					"agent_id", agent.ID, "regulation", reg, "error", err)
				continue
			}
			completed++
		}
	}

	s.logger.Info("compliance sweep completed", "agents", len(agents), "evaluations", completed)
	return completed
}
