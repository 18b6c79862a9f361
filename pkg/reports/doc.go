// Package reports generates compliance report documents for registered
// agents.
//
// A report request is persisted with status "generating" and rendered in a
// background goroutine. The finished markdown document is written to a Sink
// (a local directory or an S3 bucket) and the job moves to "completed", or to
// "failed" if any step errors. Generator.Wait blocks until outstanding jobs
// have finished and is called during shutdown.
//
// Supported types are annex_iv (EU AI Act technical documentation built from
// the agent registration and its latest compliance check), audit_summary,
// hipaa_audit and sox_controls (interaction statistics over the requested
// period, plus a control checklist for the regulation-specific types).
package reports
