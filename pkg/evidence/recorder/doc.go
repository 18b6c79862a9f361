// Package recorder turns intercepted AI-agent interactions into immutable
// audit records.
//
// # Recording Flow
//
//  1. PII is scanned over prompt + " " + response
//  2. The risk tier is classified from prompt and response keywords
//  3. Compliance flags are computed
//  4. risk_score = max(tier score, PII contribution)
//  5. Prompt and response are replaced by SHA-256 digests
//  6. The record is written with insert-if-absent semantics
//
// Interactions above the high-risk threshold are logged at warning level.
//
// # Sync and Async
//
// Record writes synchronously and returns storage errors to the caller.
// RecordAsync queues the record for a background worker and never blocks;
// Close drains the queue.
//
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	defer rec.Close()
//
//	record, err := rec.Record(ctx, recorder.Interaction{
//	    AgentID:  "agent-1",
//	    Prompt:   prompt,
//	    Response: response,
//	    Model:    "gpt-4o-mini",
//	    Provider: "openai",
//	})
//
// # Payload Extraction
//
// Payload reads prompt text, response text, token usage and tool calls from
// OpenAI- and Anthropic-shaped JSON bodies.
package recorder
