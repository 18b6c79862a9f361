// Package compliance scores AI agents against regulatory rule catalogs.
//
// # Rule Catalog
//
// Rules are static value types grouped by regulation: six for the EU AI
// Act, five for HIPAA and four for SOX. GDPR and CCPA are accepted but have
// no rules yet, so they always score 0. Each rule names a CheckKind; the
// kind selects an evaluator reading either aggregated audit statistics or
// the agent's attestation flags.
//
// # Scoring
//
// A passing rule adds its weight, a failing rule subtracts
// weight * ScoreImpact and produces a Finding. The running total is
// normalized by the sum of weights to 0-100, clamped and rounded to one
// decimal:
//
//	A >= 90, B >= 80, C >= 70, D >= 60, F otherwise
//
// # Engine
//
//	engine := compliance.NewEngine(store, 5*time.Second)
//	report, err := engine.Evaluate(ctx, agentID, compliance.HIPAA, 30)
//
// Storage reads fail open: a read error or timeout evaluates as "no data"
// and the affected rules fail. The report is appended to compliance
// history only if the context is still live, and a failed append is
// returned to the caller.
//
// Scheduler runs Evaluate for every active agent on a cron schedule.
package compliance
