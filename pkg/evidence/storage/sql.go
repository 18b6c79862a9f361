package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"agentguard-hq/agentguard/pkg/evidence"
)

// sqliteTimeLayout is fixed-width so text timestamps sort chronologically.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

// defaultQueryLimit applies when a query does not set Limit.
const defaultQueryLimit = 100

// dialect captures the differences between the SQL backends.
type dialect struct {
	name       string
	numbered   bool   // $1, $2 placeholders instead of ?
	noLimit    string // LIMIT value meaning unbounded
	encodeTime func(time.Time) any
}

var sqliteDialect = dialect{
	name:     "sqlite",
	numbered: false,
	noLimit:  "-1",
	encodeTime: func(t time.Time) any {
		return t.UTC().Format(sqliteTimeLayout)
	},
}

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	noLimit:  "ALL",
	encodeTime: func(t time.Time) any {
		return t.UTC()
	},
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// dbTime scans timestamps stored either natively or as text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

// sqlStore implements evidence.Store over database/sql. The SQLite and
// PostgreSQL backends share it and differ only in dialect and schema.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

const auditColumns = `id, agent_id, session_id, timestamp, event_type,
	prompt_hash, prompt_tokens, response_hash, response_tokens, model, provider,
	risk_score, pii_detected, pii_types, tool_calls, compliance_flags, metadata,
	ip_address, user_agent`

func (s *sqlStore) storageErr(op string, err error) error {
	return evidence.NewStorageError(s.dialect.name, op, err)
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *sqlStore) queryRows(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *sqlStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// InsertIfAbsent writes the record unless its ID already exists.
func (s *sqlStore) InsertIfAbsent(ctx context.Context, r *evidence.InteractionRecord) (bool, error) {
	piiTypes, err := marshalJSON(r.PIITypes, "[]")
	if err != nil {
		return false, s.storageErr("insert", err)
	}
	toolCalls, err := marshalJSON(r.ToolCalls, "[]")
	if err != nil {
		return false, s.storageErr("insert", err)
	}
	flags, err := marshalJSON(r.ComplianceFlags, "[]")
	if err != nil {
		return false, s.storageErr("insert", err)
	}
	metadata, err := marshalJSON(r.Metadata, "{}")
	if err != nil {
		return false, s.storageErr("insert", err)
	}

	res, err := s.exec(ctx, `INSERT INTO audit_logs (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.AgentID, r.SessionID, s.dialect.encodeTime(r.Timestamp), r.EventType,
		r.PromptHash, r.PromptTokens, r.ResponseHash, r.ResponseTokens, r.Model, r.Provider,
		r.RiskScore, r.PIIDetected, piiTypes, toolCalls, flags, metadata,
		r.IPAddress, r.UserAgent,
	)
	if err != nil {
		return false, s.storageErr("insert", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, s.storageErr("insert", err)
	}
	return n > 0, nil
}

// Query retrieves interaction records matching the query filters.
func (s *sqlStore) Query(ctx context.Context, query *evidence.Query) ([]*evidence.InteractionRecord, error) {
	sqlQuery, args := s.buildSelect(query, defaultQueryLimit)

	rows, err := s.queryRows(ctx, sqlQuery, args...)
	if err != nil {
		return nil, s.storageErr("query", err)
	}
	defer rows.Close()

	records := []*evidence.InteractionRecord{}
	for rows.Next() {
		record, err := scanInteraction(rows)
		if err != nil {
			return nil, s.storageErr("scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageErr("query", err)
	}

	return records, nil
}

// QueryStream streams matching records over a buffered channel.
// The channels are closed when the query completes or errors.
func (s *sqlStore) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.InteractionRecord, <-chan error, error) {
	recordsCh := make(chan *evidence.InteractionRecord, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := s.buildSelect(query, 0)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.queryRows(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- s.storageErr("query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanInteraction(rows)
			if err != nil {
				errCh <- s.storageErr("scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- s.storageErr("query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of records matching the query filters.
func (s *sqlStore) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := s.buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM audit_logs"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.queryRow(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, s.storageErr("count", err)
	}
	return count, nil
}

// Stats aggregates an agent's records with timestamps in [start, end].
func (s *sqlStore) Stats(ctx context.Context, agentID string, start, end time.Time) (*evidence.AggregatedStats, error) {
	var (
		total, activeDays      int64
		pii, highRisk, flagged sql.NullInt64
		avgRisk                sql.NullFloat64
	)

	err := s.queryRow(ctx, `SELECT
			COUNT(*),
			SUM(CASE WHEN pii_detected THEN 1 ELSE 0 END),
			SUM(CASE WHEN risk_score > ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN compliance_flags != '[]' THEN 1 ELSE 0 END),
			AVG(risk_score),
			COUNT(DISTINCT DATE(timestamp))
		FROM audit_logs
		WHERE agent_id = ? AND timestamp BETWEEN ? AND ?`,
		evidence.HighRiskThreshold, agentID, s.dialect.encodeTime(start), s.dialect.encodeTime(end),
	).Scan(&total, &pii, &highRisk, &flagged, &avgRisk, &activeDays)
	if err != nil {
		return nil, s.storageErr("stats", err)
	}

	return &evidence.AggregatedStats{
		Total:         int(total),
		PIICount:      int(pii.Int64),
		HighRiskCount: int(highRisk.Int64),
		FlaggedCount:  int(flagged.Int64),
		AvgRiskScore:  avgRisk.Float64,
		ActiveDays:    int(activeDays),
		HasLogs:       total > 0,
	}, nil
}

// Activity summarizes all of an agent's records.
func (s *sqlStore) Activity(ctx context.Context, agentID string) (*evidence.AgentActivity, error) {
	var (
		total         int64
		pii, highRisk sql.NullInt64
		avgRisk       sql.NullFloat64
		lastSeen      dbTime
	)

	err := s.queryRow(ctx, `SELECT
			COUNT(*),
			SUM(CASE WHEN pii_detected THEN 1 ELSE 0 END),
			SUM(CASE WHEN risk_score > ? THEN 1 ELSE 0 END),
			AVG(risk_score),
			MAX(timestamp)
		FROM audit_logs WHERE agent_id = ?`,
		evidence.HighRiskThreshold, agentID,
	).Scan(&total, &pii, &highRisk, &avgRisk, &lastSeen)
	if err != nil {
		return nil, s.storageErr("activity", err)
	}

	activity := &evidence.AgentActivity{
		Total:    int(total),
		PIICount: int(pii.Int64),
		HighRisk: int(highRisk.Int64),
		AvgRisk:  avgRisk.Float64,
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		activity.LastSeen = &t
	}
	return activity, nil
}

// Overview summarizes records across all agents.
func (s *sqlStore) Overview(ctx context.Context) (*evidence.Overview, error) {
	var (
		total         int64
		pii, highRisk sql.NullInt64
		avgRisk       sql.NullFloat64
	)

	err := s.queryRow(ctx, `SELECT
			COUNT(*),
			SUM(CASE WHEN pii_detected THEN 1 ELSE 0 END),
			SUM(CASE WHEN risk_score > ? THEN 1 ELSE 0 END),
			AVG(risk_score)
		FROM audit_logs`,
		evidence.HighRiskThreshold,
	).Scan(&total, &pii, &highRisk, &avgRisk)
	if err != nil {
		return nil, s.storageErr("overview", err)
	}

	return &evidence.Overview{
		TotalInteractions: int(total),
		PIIExposures:      int(pii.Int64),
		HighRiskCount:     int(highRisk.Int64),
		AvgRiskScore:      avgRisk.Float64,
	}, nil
}

// DeleteBefore removes records older than cutoff, oldest first.
func (s *sqlStore) DeleteBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if limit > 0 {
		res, err = s.exec(ctx, `DELETE FROM audit_logs WHERE id IN (
				SELECT id FROM audit_logs WHERE timestamp < ? ORDER BY timestamp LIMIT ?)`,
			s.dialect.encodeTime(cutoff), limit)
	} else {
		res, err = s.exec(ctx, "DELETE FROM audit_logs WHERE timestamp < ?", s.dialect.encodeTime(cutoff))
	}
	if err != nil {
		return 0, s.storageErr("delete", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.storageErr("delete", err)
	}
	return n, nil
}

// buildSelect builds the full SELECT statement for a query. defaultLimit
// applies when the query sets no limit; 0 leaves the result unbounded.
func (s *sqlStore) buildSelect(query *evidence.Query, defaultLimit int) (string, []any) {
	where, args := s.buildWhereClause(query)

	sqlQuery := "SELECT " + auditColumns + " FROM audit_logs"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	sortBy := "timestamp"
	if query.SortBy == "risk_score" {
		sortBy = "risk_score"
	}
	sortOrder := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := defaultLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	switch {
	case limit > 0:
		sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
		if query.Offset > 0 {
			sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
		}
	case query.Offset > 0:
		sqlQuery += fmt.Sprintf(" LIMIT %s OFFSET %d", s.dialect.noLimit, query.Offset)
	}

	return sqlQuery, args
}

// buildWhereClause builds a WHERE clause (without the keyword) from query
// filters, using ? placeholders.
func (s *sqlStore) buildWhereClause(query *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, s.dialect.encodeTime(*query.StartTime))
	}
	if query.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, s.dialect.encodeTime(*query.EndTime))
	}
	if query.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, query.AgentID)
	}
	if query.SessionID != "" {
		conditions = append(conditions, "session_id = ?")
		args = append(args, query.SessionID)
	}
	if query.Provider != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, query.Provider)
	}
	if query.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, query.Model)
	}
	if query.MinRisk != nil {
		conditions = append(conditions, "risk_score >= ?")
		args = append(args, *query.MinRisk)
	}
	if query.PIIOnly {
		conditions = append(conditions, "pii_detected = ?")
		args = append(args, true)
	}

	return strings.Join(conditions, " AND "), args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (*evidence.InteractionRecord, error) {
	var (
		r                                evidence.InteractionRecord
		ts                               dbTime
		sessionID, ipAddress, userAgent  sql.NullString
		piiTypes, toolCalls, flags, meta sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.AgentID, &sessionID, &ts, &r.EventType,
		&r.PromptHash, &r.PromptTokens, &r.ResponseHash, &r.ResponseTokens, &r.Model, &r.Provider,
		&r.RiskScore, &r.PIIDetected, &piiTypes, &toolCalls, &flags, &meta,
		&ipAddress, &userAgent,
	)
	if err != nil {
		return nil, err
	}

	r.Timestamp = ts.Time
	r.SessionID = sessionID.String
	r.IPAddress = ipAddress.String
	r.UserAgent = userAgent.String

	if err := unmarshalJSON(piiTypes, &r.PIITypes); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(toolCalls, &r.ToolCalls); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(flags, &r.ComplianceFlags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(meta, &r.Metadata); err != nil {
		return nil, err
	}

	return &r, nil
}

// marshalJSON encodes v, substituting empty for nil slices and maps.
func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func unmarshalJSON(col sql.NullString, dst any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

// Close releases the database connection.
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return s.storageErr("close", err)
	}
	s.logger.Info("storage closed", "backend", s.dialect.name)
	return nil
}

// notFound maps sql.ErrNoRows to evidence.NotFoundError.
func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return evidence.NewNotFoundError(kind, id)
	}
	return err
}
