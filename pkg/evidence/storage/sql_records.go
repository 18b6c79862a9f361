package storage

import (
	"context"
	"database/sql"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
)

const agentColumns = `id, name, description, provider, model, risk_level, regulation_scope,
	has_human_oversight, has_qms, has_access_controls, has_encryption, has_policy_docs,
	has_baa, has_internal_controls, has_retention_policy, has_change_management,
	created_at, updated_at, is_active`

// CreateAgent inserts a new agent registration.
func (s *sqlStore) CreateAgent(ctx context.Context, a *evidence.Agent) error {
	scope, err := marshalJSON(a.RegulationScope, "[]")
	if err != nil {
		return s.storageErr("create_agent", err)
	}

	at := a.Attestation
	_, err = s.exec(ctx, `INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Description, a.Provider, a.Model, a.RiskLevel, scope,
		at.HumanOversight, at.QMS, at.AccessControls, at.Encryption, at.PolicyDocs,
		at.BAA, at.InternalControls, at.RetentionPolicy, at.ChangeManagement,
		s.dialect.encodeTime(a.CreatedAt), s.dialect.encodeTime(a.UpdatedAt), a.IsActive,
	)
	if err != nil {
		return s.storageErr("create_agent", err)
	}
	return nil
}

// GetAgent returns the agent with the given ID, active or not.
func (s *sqlStore) GetAgent(ctx context.Context, id string) (*evidence.Agent, error) {
	row := s.queryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	agent, err := scanAgent(row)
	if err != nil {
		if nf := notFound(err, "agent", id); nf != err {
			return nil, nf
		}
		return nil, s.storageErr("get_agent", err)
	}
	return agent, nil
}

// ListActiveAgents returns active agents, newest first.
func (s *sqlStore) ListActiveAgents(ctx context.Context) ([]*evidence.Agent, error) {
	rows, err := s.queryRows(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE is_active = ? ORDER BY created_at DESC", true)
	if err != nil {
		return nil, s.storageErr("list_agents", err)
	}
	defer rows.Close()

	agents := []*evidence.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, s.storageErr("scan", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageErr("list_agents", err)
	}
	return agents, nil
}

// DeactivateAgent marks an agent inactive. Its records are kept.
func (s *sqlStore) DeactivateAgent(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "UPDATE agents SET is_active = ?, updated_at = ? WHERE id = ?",
		false, s.dialect.encodeTime(time.Now()), id)
	if err != nil {
		return s.storageErr("deactivate_agent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.storageErr("deactivate_agent", err)
	}
	if n == 0 {
		return evidence.NewNotFoundError("agent", id)
	}
	return nil
}

// CountActiveAgents returns the number of active agents.
func (s *sqlStore) CountActiveAgents(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM agents WHERE is_active = ?", true).Scan(&n); err != nil {
		return 0, s.storageErr("count_agents", err)
	}
	return n, nil
}

func scanAgent(row rowScanner) (*evidence.Agent, error) {
	var (
		a                    evidence.Agent
		description, scope   sql.NullString
		createdAt, updatedAt dbTime
	)

	err := row.Scan(
		&a.ID, &a.Name, &description, &a.Provider, &a.Model, &a.RiskLevel, &scope,
		&a.Attestation.HumanOversight, &a.Attestation.QMS, &a.Attestation.AccessControls,
		&a.Attestation.Encryption, &a.Attestation.PolicyDocs, &a.Attestation.BAA,
		&a.Attestation.InternalControls, &a.Attestation.RetentionPolicy, &a.Attestation.ChangeManagement,
		&createdAt, &updatedAt, &a.IsActive,
	)
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	if err := unmarshalJSON(scope, &a.RegulationScope); err != nil {
		return nil, err
	}
	return &a, nil
}

// AppendComplianceCheck inserts a new compliance history entry.
func (s *sqlStore) AppendComplianceCheck(ctx context.Context, c *evidence.ComplianceCheck) error {
	findings, err := marshalJSON(c.Findings, "[]")
	if err != nil {
		return s.storageErr("append_compliance_check", err)
	}
	recs, err := marshalJSON(c.Recommendations, "[]")
	if err != nil {
		return s.storageErr("append_compliance_check", err)
	}

	_, err = s.exec(ctx, `INSERT INTO compliance_checks
		(id, agent_id, check_date, regulation, overall_score, findings, recommendations, status, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AgentID, s.dialect.encodeTime(c.CheckDate), c.Regulation, c.OverallScore,
		findings, recs, c.Status, c.ReportPath,
	)
	if err != nil {
		return s.storageErr("append_compliance_check", err)
	}
	return nil
}

// ComplianceHistory returns an agent's checks, newest first.
func (s *sqlStore) ComplianceHistory(ctx context.Context, agentID string, limit int) ([]*evidence.ComplianceCheck, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.queryRows(ctx, `SELECT id, agent_id, check_date, regulation, overall_score,
			findings, recommendations, status, report_path
		FROM compliance_checks WHERE agent_id = ? ORDER BY check_date DESC LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, s.storageErr("compliance_history", err)
	}
	defer rows.Close()

	checks := []*evidence.ComplianceCheck{}
	for rows.Next() {
		var (
			c                          evidence.ComplianceCheck
			checkDate                  dbTime
			findings, recs, reportPath sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.AgentID, &checkDate, &c.Regulation, &c.OverallScore,
			&findings, &recs, &c.Status, &reportPath); err != nil {
			return nil, s.storageErr("scan", err)
		}
		c.CheckDate = checkDate.Time
		c.ReportPath = reportPath.String
		if err := unmarshalJSON(findings, &c.Findings); err != nil {
			return nil, s.storageErr("scan", err)
		}
		if err := unmarshalJSON(recs, &c.Recommendations); err != nil {
			return nil, s.storageErr("scan", err)
		}
		checks = append(checks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageErr("compliance_history", err)
	}
	return checks, nil
}

// LatestComplianceCheck returns the agent's most recent check.
func (s *sqlStore) LatestComplianceCheck(ctx context.Context, agentID string) (*evidence.ComplianceCheck, error) {
	checks, err := s.ComplianceHistory(ctx, agentID, 1)
	if err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, evidence.NewNotFoundError("compliance_check", agentID)
	}
	return checks[0], nil
}

// AverageComplianceScore averages overall_score across all checks.
func (s *sqlStore) AverageComplianceScore(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.queryRow(ctx, "SELECT AVG(overall_score) FROM compliance_checks").Scan(&avg); err != nil {
		return 0, s.storageErr("average_score", err)
	}
	return avg.Float64, nil
}

// CreateReport inserts a report job.
func (s *sqlStore) CreateReport(ctx context.Context, r *evidence.ReportRecord) error {
	meta, err := marshalJSON(r.Metadata, "{}")
	if err != nil {
		return s.storageErr("create_report", err)
	}

	var start, end any
	if r.PeriodStart != nil {
		start = s.dialect.encodeTime(*r.PeriodStart)
	}
	if r.PeriodEnd != nil {
		end = s.dialect.encodeTime(*r.PeriodEnd)
	}

	_, err = s.exec(ctx, `INSERT INTO reports
		(id, agent_id, report_type, created_at, period_start, period_end, file_path, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AgentID, r.ReportType, s.dialect.encodeTime(r.CreatedAt), start, end,
		r.FilePath, r.Status, meta,
	)
	if err != nil {
		return s.storageErr("create_report", err)
	}
	return nil
}

// UpdateReportStatus sets a report's status and file location.
func (s *sqlStore) UpdateReportStatus(ctx context.Context, id, status, filePath string) error {
	res, err := s.exec(ctx, "UPDATE reports SET status = ?, file_path = ? WHERE id = ?", status, filePath, id)
	if err != nil {
		return s.storageErr("update_report", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.storageErr("update_report", err)
	}
	if n == 0 {
		return evidence.NewNotFoundError("report", id)
	}
	return nil
}

// GetReport returns a report job by ID.
func (s *sqlStore) GetReport(ctx context.Context, id string) (*evidence.ReportRecord, error) {
	var (
		r                     evidence.ReportRecord
		createdAt, start, end dbTime
		filePath, meta        sql.NullString
	)
	err := s.queryRow(ctx, `SELECT id, agent_id, report_type, created_at, period_start, period_end,
			file_path, status, metadata
		FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.AgentID, &r.ReportType, &createdAt, &start, &end, &filePath, &r.Status, &meta)
	if err != nil {
		if nf := notFound(err, "report", id); nf != err {
			return nil, nf
		}
		return nil, s.storageErr("get_report", err)
	}

	r.CreatedAt = createdAt.Time
	if start.Valid {
		t := start.Time
		r.PeriodStart = &t
	}
	if end.Valid {
		t := end.Time
		r.PeriodEnd = &t
	}
	r.FilePath = filePath.String
	if err := unmarshalJSON(meta, &r.Metadata); err != nil {
		return nil, s.storageErr("get_report", err)
	}
	return &r, nil
}

// CountReports counts an agent's reports, optionally of one type.
func (s *sqlStore) CountReports(ctx context.Context, agentID, reportType string) (int, error) {
	query := "SELECT COUNT(*) FROM reports WHERE agent_id = ?"
	args := []any{agentID}
	if reportType != "" {
		query += " AND report_type = ?"
		args = append(args, reportType)
	}

	var n int
	if err := s.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.storageErr("count_reports", err)
	}
	return n, nil
}

// compile-time interface checks
var _ evidence.Store = (*sqlStore)(nil)
