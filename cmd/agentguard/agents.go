package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/agents"
	"agentguard-hq/agentguard/pkg/classify"
	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage registered agents",
}

var agentsListFlags struct {
	format string
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(agentsListFlags.format)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
			list, err := agents.NewRegistry(store).List(cmd.Context())
			if err != nil {
				return cli.NewCommandError("agents list", err)
			}

			table := cli.NewTable("ID", "NAME", "PROVIDER", "MODEL", "RISK", "SCOPE", "CREATED")
			for _, a := range list {
				table.Append(a.ID, a.Name, a.Provider, a.Model, a.RiskLevel,
					strings.Join(a.RegulationScope, ","), a.CreatedAt.Format("2006-01-02"))
			}
			return cli.Render(cmd.OutOrStdout(), format, table, list)
		})
	},
}

var registerFlags struct {
	name        string
	description string
	provider    string
	model       string
	riskLevel   string
	scope       []string
	attest      []string
}

// attestations maps --attest values to the flags they set.
var attestations = map[string]func(a *evidence.Attestation){
	"human_oversight":   func(a *evidence.Attestation) { a.HumanOversight = true },
	"qms":               func(a *evidence.Attestation) { a.QMS = true },
	"access_controls":   func(a *evidence.Attestation) { a.AccessControls = true },
	"encryption":        func(a *evidence.Attestation) { a.Encryption = true },
	"policy_docs":       func(a *evidence.Attestation) { a.PolicyDocs = true },
	"baa":               func(a *evidence.Attestation) { a.BAA = true },
	"internal_controls": func(a *evidence.Attestation) { a.InternalControls = true },
	"retention_policy":  func(a *evidence.Attestation) { a.RetentionPolicy = true },
	"change_management": func(a *evidence.Attestation) { a.ChangeManagement = true },
}

var agentsRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new agent",
	Long: `Register a new agent and print the X-Agent-ID header it must send.

Examples:
  agentguard agents register --name triage-bot --provider openai --model gpt-4o \
    --risk-level high --scope HIPAA,EU_AI_ACT --attest human_oversight,baa`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := agents.NewRegistration()
		reg.Name = registerFlags.name
		reg.Description = registerFlags.description
		reg.Provider = registerFlags.provider
		reg.Model = registerFlags.model
		if registerFlags.riskLevel != "" {
			reg.RiskLevel = classify.RiskLevel(registerFlags.riskLevel)
		}
		if len(registerFlags.scope) > 0 {
			reg.RegulationScope = registerFlags.scope
		}
		for _, name := range registerFlags.attest {
			set, ok := attestations[name]
			if !ok {
				return fmt.Errorf("unknown attestation %q", name)
			}
			set(&reg.Attestation)
		}

		return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
			agent, err := agents.NewRegistry(store).Register(cmd.Context(), reg)
			if err != nil {
				return cli.NewCommandError("agents register", err)
			}
			cli.Success("Registered agent %s", agent.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Add '%s: %s' header to all proxied AI calls\n", agents.AgentIDHeader, agent.ID)
			return nil
		})
	},
}

var agentsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <agent-id>",
	Short: "Deactivate an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
			if err := agents.NewRegistry(store).Deactivate(cmd.Context(), args[0]); err != nil {
				return cli.NewCommandError("agents deactivate", err)
			}
			cli.Success("Deactivated agent %s", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsListCmd, agentsRegisterCmd, agentsDeactivateCmd)

	agentsListCmd.Flags().StringVarP(&agentsListFlags.format, "format", "f", "text", "output format (text, json, csv)")

	f := agentsRegisterCmd.Flags()
	f.StringVar(&registerFlags.name, "name", "", "agent name (required)")
	f.StringVar(&registerFlags.description, "description", "", "free-form description")
	f.StringVar(&registerFlags.provider, "provider", "", "openai, anthropic or custom (required)")
	f.StringVar(&registerFlags.model, "model", "", "model name (required)")
	f.StringVar(&registerFlags.riskLevel, "risk-level", "", "declared EU AI Act risk tier (default minimal)")
	f.StringSliceVar(&registerFlags.scope, "scope", nil, "regulations in scope (default EU_AI_ACT)")
	f.StringSliceVar(&registerFlags.attest, "attest", nil, "declared controls: human_oversight, qms, access_controls, encryption, policy_docs, baa, internal_controls, retention_policy, change_management")
	_ = agentsRegisterCmd.MarkFlagRequired("name")
	_ = agentsRegisterCmd.MarkFlagRequired("provider")
	_ = agentsRegisterCmd.MarkFlagRequired("model")
}
