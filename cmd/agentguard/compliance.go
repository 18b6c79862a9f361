package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Evaluate agents against regulations",
}

var checkFlags struct {
	agent      string
	regulation string
	days       int
	format     string
}

var complianceCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a compliance check and record it in history",
	Long: `Evaluate one agent against one regulation over the last --days days.
The result is appended to the agent's compliance history.

Examples:
  agentguard compliance check --agent <id>
  agentguard compliance check --agent <id> --regulation HIPAA --days 90 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(checkFlags.format)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(cfg *config.Config, store evidence.Store) error {
			engine := compliance.NewEngine(store, cfg.Compliance.ReadTimeout)
			report, err := engine.Evaluate(cmd.Context(), checkFlags.agent,
				compliance.Regulation(strings.ToUpper(checkFlags.regulation)), checkFlags.days)
			if err != nil {
				return cli.NewCommandError("compliance check", err)
			}

			if format == cli.FormatJSON {
				return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
			}
			if format == cli.FormatCSV {
				return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), findingsTable(report))
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

func findingsTable(report *compliance.Report) *cli.Table {
	table := cli.NewTable("CODE", "SEVERITY", "ARTICLE", "TITLE", "REMEDIATION")
	for _, f := range report.Findings {
		table.Append(f.Code, string(f.Severity), f.Article, f.Title, f.Remediation)
	}
	return table
}

func printReport(w io.Writer, report *compliance.Report) {
	grade := cli.GradeColor(report.Grade)
	fmt.Fprintf(w, "Agent:       %s\n", report.AgentID)
	fmt.Fprintf(w, "Regulation:  %s\n", report.Regulation)
	fmt.Fprintf(w, "Period:      %s to %s\n",
		report.PeriodStart.Format("2006-01-02"), report.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(w, "Score:       %s\n", grade.Sprintf("%.1f (%s)", report.OverallScore, report.Grade))
	fmt.Fprintf(w, "Activity:    %d interactions, %d PII exposures, %d high risk\n\n",
		report.TotalInteractions, report.PIIExposures, report.HighRisk)
	fmt.Fprintf(w, "Findings:    %d (%d critical, %d high)\n\n", len(report.Findings),
		report.CountSeverity(compliance.SeverityCritical), report.CountSeverity(compliance.SeverityHigh))
	fmt.Fprintln(w, report.Summary)

	if len(report.Findings) > 0 {
		fmt.Fprintln(w)
		_ = cli.NewFormatter(cli.FormatText).FormatTo(w, findingsTable(report))
	}
	if len(report.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range report.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}

var historyFlags struct {
	limit  int
	format string
}

var complianceHistoryCmd = &cobra.Command{
	Use:   "history <agent-id>",
	Short: "Show an agent's recorded compliance checks, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(historyFlags.format)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
			checks, err := store.ComplianceHistory(cmd.Context(), args[0], historyFlags.limit)
			if err != nil {
				return cli.NewCommandError("compliance history", err)
			}

			table := cli.NewTable("DATE", "REGULATION", "SCORE", "GRADE", "FINDINGS")
			for _, c := range checks {
				grade := compliance.Grade(c.OverallScore)
				if format == cli.FormatText {
					grade = cli.GradeColor(grade).Sprint(grade)
				}
				table.Append(
					c.CheckDate.Format(time.RFC3339),
					c.Regulation,
					fmt.Sprintf("%.1f", c.OverallScore),
					grade,
					strconv.Itoa(len(c.Findings)),
				)
			}
			return cli.Render(cmd.OutOrStdout(), format, table, checks)
		})
	},
}

var rulesFlags struct {
	regulation string
	format     string
}

var complianceRulesCmd = &cobra.Command{
	Use:   "rules [code]",
	Short: "List the rule catalog, or show one rule by code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(rulesFlags.format)
		if err != nil {
			return err
		}

		var rules []compliance.Rule
		reg := compliance.Regulation(strings.ToUpper(rulesFlags.regulation))
		switch {
		case len(args) == 1:
			if !reg.IsValid() {
				return cli.NewConfigError("regulation", "a known regulation is required to look up a rule")
			}
			rule, ok := compliance.Lookup(reg, args[0])
			if !ok {
				return cli.NewCommandError("compliance rules", fmt.Errorf("no rule %s in %s", args[0], reg))
			}
			rules = []compliance.Rule{rule}
		case reg == "":
			rules = compliance.AllRules()
		case reg.IsValid():
			rules = compliance.Rules(reg)
		default:
			return cli.NewConfigError("regulation", fmt.Sprintf("unknown regulation %q", rulesFlags.regulation))
		}

		table := cli.NewTable("REGULATION", "CODE", "SEVERITY", "ARTICLE", "WEIGHT", "TITLE")
		for _, r := range rules {
			table.Append(string(r.Regulation), r.Code, string(r.Severity), r.Article,
				strconv.FormatFloat(r.Weight, 'f', 2, 64), r.Title)
		}
		return cli.Render(cmd.OutOrStdout(), format, table, nil)
	},
}

var sweepFlags struct {
	days int
}

var complianceSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Check every active agent against each regulation in its scope",
	Long: `Run one scheduled-style sweep immediately: every active agent is
evaluated against each regulation in its scope. Failures are logged and do
not stop the sweep.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(cfg *config.Config, store evidence.Store) error {
			days := sweepFlags.days
			if days == 0 {
				days = cfg.Compliance.DaysBack
			}
			engine := compliance.NewEngine(store, cfg.Compliance.ReadTimeout)
			n := compliance.NewScheduler(engine, store, "", days).Sweep(cmd.Context())
			cli.Success("Completed %d evaluations", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(complianceCmd)
	complianceCmd.AddCommand(complianceCheckCmd, complianceHistoryCmd, complianceRulesCmd, complianceSweepCmd)

	complianceRulesCmd.Flags().StringVar(&rulesFlags.regulation, "regulation", "", "restrict to one regulation")
	complianceRulesCmd.Flags().StringVarP(&rulesFlags.format, "format", "f", "text", "output format (text, json, csv)")

	f := complianceCheckCmd.Flags()
	f.StringVar(&checkFlags.agent, "agent", "", "agent ID (required)")
	f.StringVar(&checkFlags.regulation, "regulation", string(compliance.EUAIAct), "EU_AI_ACT, GDPR, HIPAA, SOX or CCPA")
	f.IntVar(&checkFlags.days, "days", compliance.DefaultDaysBack, "look-back window in days (1-365)")
	f.StringVarP(&checkFlags.format, "format", "f", "text", "output format (text, json, csv)")
	_ = complianceCheckCmd.MarkFlagRequired("agent")

	complianceHistoryCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "maximum checks")
	complianceHistoryCmd.Flags().StringVarP(&historyFlags.format, "format", "f", "text", "output format (text, json, csv)")

	complianceSweepCmd.Flags().IntVar(&sweepFlags.days, "days", 0, "look-back window in days (default from config)")
}
