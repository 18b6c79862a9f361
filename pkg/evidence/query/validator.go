package query

import (
	"fmt"

	"agentguard-hq/agentguard/pkg/evidence"
)

const (
	// DefaultLimit is the number of records returned when no limit is given.
	DefaultLimit = 100

	// MaxLimit is the largest page the audit API will return.
	MaxLimit = 500
)

// Sort fields.
const (
	SortTimestamp = "timestamp"
	SortRiskScore = "risk_score"
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	SortTimestamp: true,
	SortRiskScore: true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate returns a QueryError if any parameter is out of range.
func Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.MinRisk != nil && (*q.MinRisk < 0 || *q.MinRisk > 1) {
		return evidence.NewQueryError(q, fmt.Errorf("min_risk must be within [0, 1], got %.2f", *q.MinRisk))
	}

	return nil
}

// ApplyDefaults fills in limit and sort defaults.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortTimestamp
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
