// Package agents registers the AI agents whose traffic is audited.
//
// An agent carries its provider, model, declared EU AI Act risk level,
// the regulations it is evaluated against and a set of attestation flags
// (human oversight, QMS, encryption, BAA, ...) that compliance checks read.
// The generated agent ID is what callers send in the X-Agent-ID header.
package agents
