// Package evidence defines the audit trail data model for intercepted
// AI-agent interactions and the storage contracts the rest of the system
// depends on.
//
// # Records
//
// Each InteractionRecord captures:
//   - Agent and session identifiers
//   - SHA-256 digests of prompt and response (raw text is never stored)
//   - Token usage, model and provider
//   - Risk score, PII categories and compliance flags
//   - Tool calls requested by the model
//   - Client IP address and user agent
//
// Records are immutable. They are written exactly once per intercepted call
// with an insert-if-absent operation keyed by ID, so retried deliveries never
// create duplicates. Only the retention pruner deletes them.
//
// # Storage Contracts
//
//   - InteractionStore: interaction records, aggregated stats, streaming
//   - AgentStore: agent registrations and attestations
//   - ComplianceStore: append-only compliance check history
//   - ReportStore: report generation jobs
//
// Store combines all four. The storage subpackage provides SQLite,
// PostgreSQL and in-memory implementations.
//
// # Subpackages
//
//   - recorder: classifies interactions and writes records
//   - storage: backends
//   - query: query validation and defaults
//   - export: JSON and CSV exporters
//   - retention: age-based pruning with archival
package evidence
