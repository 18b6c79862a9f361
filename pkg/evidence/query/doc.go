// Package query validates audit-log queries before they reach storage.
//
// Validation rules:
//
//   - 0 <= limit <= MaxLimit
//   - offset >= 0
//   - sort field is timestamp or risk_score, order is asc or desc
//   - start_time is not after end_time
//   - min_risk is within [0, 1]
//
// Usage:
//
//	q := &evidence.Query{AgentID: "agent-1", Limit: 50}
//	if err := query.Validate(q); err != nil {
//	    return err
//	}
//	query.ApplyDefaults(q)
//	records, err := store.Query(ctx, q)
package query
