package storage

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
)

// MemoryStorage implements evidence.Store in memory.
// It is intended for tests and dry runs; nothing survives a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*evidence.InteractionRecord
	agents  map[string]*evidence.Agent
	checks  []*evidence.ComplianceCheck
	reports map[string]*evidence.ReportRecord
	closed  bool
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.InteractionRecord),
		agents:  make(map[string]*evidence.Agent),
		reports: make(map[string]*evidence.ReportRecord),
	}
}

func copyRecord(r *evidence.InteractionRecord) *evidence.InteractionRecord {
	c := *r
	c.PIITypes = slices.Clone(r.PIITypes)
	c.ToolCalls = slices.Clone(r.ToolCalls)
	c.ComplianceFlags = slices.Clone(r.ComplianceFlags)
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

// InsertIfAbsent stores a copy of the record unless its ID exists.
func (s *MemoryStorage) InsertIfAbsent(ctx context.Context, record *evidence.InteractionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return false, nil
	}
	s.records[record.ID] = copyRecord(record)
	return true, nil
}

// filtered returns matching records sorted per the query, before pagination.
// Callers must hold the read lock.
func (s *MemoryStorage) filtered(query *evidence.Query) []*evidence.InteractionRecord {
	var results []*evidence.InteractionRecord
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}

	asc := strings.EqualFold(query.SortOrder, "asc")
	byRisk := query.SortBy == "risk_score"
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if byRisk && a.RiskScore != b.RiskScore {
			if asc {
				return a.RiskScore < b.RiskScore
			}
			return a.RiskScore > b.RiskScore
		}
		if asc {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Timestamp.After(b.Timestamp)
	})

	return results
}

func paginate(results []*evidence.InteractionRecord, query *evidence.Query) []*evidence.InteractionRecord {
	return window(results, query, defaultQueryLimit)
}

// window applies offset and limit, falling back to defaultLimit when the
// query sets none. A defaultLimit of 0 means unbounded.
func window(results []*evidence.InteractionRecord, query *evidence.Query, defaultLimit int) []*evidence.InteractionRecord {
	limit := defaultLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	if limit == 0 {
		limit = len(results)
	}
	start := query.Offset
	if start >= len(results) {
		return []*evidence.InteractionRecord{}
	}
	end := min(start+limit, len(results))
	return results[start:end]
}

// Query retrieves records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return paginate(s.filtered(query), query), nil
}

// QueryStream streams matching records over a buffered channel.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.InteractionRecord, <-chan error, error) {
	recordsCh := make(chan *evidence.InteractionRecord, 100)
	errCh := make(chan error, 1)

	s.mu.RLock()
	results := window(s.filtered(query), query, 0)
	s.mu.RUnlock()

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, record := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Stats aggregates an agent's records with timestamps in [start, end].
func (s *MemoryStorage) Stats(ctx context.Context, agentID string, start, end time.Time) (*evidence.AggregatedStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &evidence.AggregatedStats{}
	days := make(map[string]struct{})
	var riskSum float64

	for _, r := range s.records {
		if r.AgentID != agentID || r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		stats.Total++
		riskSum += r.RiskScore
		if r.PIIDetected {
			stats.PIICount++
		}
		if r.IsHighRisk() {
			stats.HighRiskCount++
		}
		if len(r.ComplianceFlags) > 0 {
			stats.FlaggedCount++
		}
		days[r.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
	}

	if stats.Total > 0 {
		stats.AvgRiskScore = riskSum / float64(stats.Total)
		stats.HasLogs = true
	}
	stats.ActiveDays = len(days)
	return stats, nil
}

// Activity summarizes all of an agent's records.
func (s *MemoryStorage) Activity(ctx context.Context, agentID string) (*evidence.AgentActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity := &evidence.AgentActivity{}
	var riskSum float64
	for _, r := range s.records {
		if r.AgentID != agentID {
			continue
		}
		activity.Total++
		riskSum += r.RiskScore
		if r.PIIDetected {
			activity.PIICount++
		}
		if r.IsHighRisk() {
			activity.HighRisk++
		}
		if activity.LastSeen == nil || r.Timestamp.After(*activity.LastSeen) {
			t := r.Timestamp
			activity.LastSeen = &t
		}
	}
	if activity.Total > 0 {
		activity.AvgRisk = riskSum / float64(activity.Total)
	}
	return activity, nil
}

// Overview summarizes records across all agents.
func (s *MemoryStorage) Overview(ctx context.Context) (*evidence.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := &evidence.Overview{}
	var riskSum float64
	for _, r := range s.records {
		o.TotalInteractions++
		riskSum += r.RiskScore
		if r.PIIDetected {
			o.PIIExposures++
		}
		if r.IsHighRisk() {
			o.HighRiskCount++
		}
	}
	if o.TotalInteractions > 0 {
		o.AvgRiskScore = riskSum / float64(o.TotalInteractions)
	}
	return o, nil
}

// DeleteBefore removes records older than cutoff, oldest first.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old []*evidence.InteractionRecord
	for _, r := range s.records {
		if r.Timestamp.Before(cutoff) {
			old = append(old, r)
		}
	}
	sort.Slice(old, func(i, j int) bool { return old[i].Timestamp.Before(old[j].Timestamp) })
	if limit > 0 && len(old) > limit {
		old = old[:limit]
	}
	for _, r := range old {
		delete(s.records, r.ID)
	}
	return int64(len(old)), nil
}

// CreateAgent stores a copy of the agent.
func (s *MemoryStorage) CreateAgent(ctx context.Context, agent *evidence.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.ID]; exists {
		return evidence.NewStorageError("memory", "create_agent", errDuplicateID(agent.ID))
	}
	c := *agent
	c.RegulationScope = slices.Clone(agent.RegulationScope)
	s.agents[agent.ID] = &c
	return nil
}

// GetAgent returns a copy of the agent.
func (s *MemoryStorage) GetAgent(ctx context.Context, id string) (*evidence.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return nil, evidence.NewNotFoundError("agent", id)
	}
	c := *a
	c.RegulationScope = slices.Clone(a.RegulationScope)
	return &c, nil
}

// ListActiveAgents returns active agents, newest first.
func (s *MemoryStorage) ListActiveAgents(ctx context.Context) ([]*evidence.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := []*evidence.Agent{}
	for _, a := range s.agents {
		if a.IsActive {
			c := *a
			c.RegulationScope = slices.Clone(a.RegulationScope)
			agents = append(agents, &c)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].CreatedAt.After(agents[j].CreatedAt) })
	return agents, nil
}

// DeactivateAgent marks an agent inactive.
func (s *MemoryStorage) DeactivateAgent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return evidence.NewNotFoundError("agent", id)
	}
	a.IsActive = false
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// CountActiveAgents returns the number of active agents.
func (s *MemoryStorage) CountActiveAgents(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.agents {
		if a.IsActive {
			n++
		}
	}
	return n, nil
}

// AppendComplianceCheck appends a copy of the check to the history.
func (s *MemoryStorage) AppendComplianceCheck(ctx context.Context, check *evidence.ComplianceCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *check
	c.Findings = slices.Clone(check.Findings)
	c.Recommendations = slices.Clone(check.Recommendations)
	s.checks = append(s.checks, &c)
	return nil
}

// ComplianceHistory returns an agent's checks, newest first.
func (s *MemoryStorage) ComplianceHistory(ctx context.Context, agentID string, limit int) ([]*evidence.ComplianceCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	history := []*evidence.ComplianceCheck{}
	for _, c := range s.checks {
		if c.AgentID == agentID {
			cp := *c
			history = append(history, &cp)
		}
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].CheckDate.After(history[j].CheckDate) })
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// LatestComplianceCheck returns the agent's most recent check.
func (s *MemoryStorage) LatestComplianceCheck(ctx context.Context, agentID string) (*evidence.ComplianceCheck, error) {
	history, _ := s.ComplianceHistory(ctx, agentID, 1)
	if len(history) == 0 {
		return nil, evidence.NewNotFoundError("compliance_check", agentID)
	}
	return history[0], nil
}

// AverageComplianceScore averages overall_score across all checks.
func (s *MemoryStorage) AverageComplianceScore(ctx context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.checks) == 0 {
		return 0, nil
	}
	var sum float64
	for _, c := range s.checks {
		sum += c.OverallScore
	}
	return sum / float64(len(s.checks)), nil
}

// CreateReport stores a copy of the report job.
func (s *MemoryStorage) CreateReport(ctx context.Context, report *evidence.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return evidence.NewStorageError("memory", "create_report", errDuplicateID(report.ID))
	}
	c := *report
	c.Metadata = maps.Clone(report.Metadata)
	s.reports[report.ID] = &c
	return nil
}

// UpdateReportStatus sets a report's status and file location.
func (s *MemoryStorage) UpdateReportStatus(ctx context.Context, id, status, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return evidence.NewNotFoundError("report", id)
	}
	r.Status = status
	r.FilePath = filePath
	return nil
}

// GetReport returns a copy of the report job.
func (s *MemoryStorage) GetReport(ctx context.Context, id string) (*evidence.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, evidence.NewNotFoundError("report", id)
	}
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	return &c, nil
}

// CountReports counts an agent's reports, optionally of one type.
func (s *MemoryStorage) CountReports(ctx context.Context, agentID, reportType string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.reports {
		if r.AgentID == agentID && (reportType == "" || r.ReportType == reportType) {
			n++
		}
	}
	return n, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func matchesQuery(r *evidence.InteractionRecord, q *evidence.Query) bool {
	if q.StartTime != nil && r.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.AgentID != "" && r.AgentID != q.AgentID {
		return false
	}
	if q.SessionID != "" && r.SessionID != q.SessionID {
		return false
	}
	if q.Provider != "" && r.Provider != q.Provider {
		return false
	}
	if q.Model != "" && r.Model != q.Model {
		return false
	}
	if q.MinRisk != nil && r.RiskScore < *q.MinRisk {
		return false
	}
	if q.PIIOnly && !r.PIIDetected {
		return false
	}
	return true
}

// GetByID returns a copy of a record by ID (for testing).
func (s *MemoryStorage) GetByID(id string) *evidence.InteractionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil
	}
	return copyRecord(r)
}

// Size returns the number of interaction records (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Clear removes all interaction records (for testing).
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.InteractionRecord)
}

var _ evidence.Store = (*MemoryStorage)(nil)
