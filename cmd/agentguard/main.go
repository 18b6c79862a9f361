// AgentGuard is a compliance gateway for AI agents.
//
// It proxies agent calls to LLM providers, classifies every interaction for
// risk and personal data, keeps a hash-only audit trail and grades agents
// against the EU AI Act, HIPAA and SOX.
//
// Usage:
//
//	# Start the gateway
//	agentguard serve --config /etc/agentguard/config.yaml
//
//	# Register an agent and run a compliance check
//	agentguard agents register --name triage-bot --provider openai --model gpt-4o
//	agentguard compliance check --agent <id> --regulation HIPAA
//
//	# Export the audit trail
//	agentguard audit export --agent <id> --format csv --output audit.csv
package main

import (
	"fmt"
	"os"

	"agentguard-hq/agentguard/pkg/cli"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
