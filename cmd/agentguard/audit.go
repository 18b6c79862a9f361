package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/export"
	"agentguard-hq/agentguard/pkg/evidence/query"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and export the audit trail",
}

var auditQueryFlags struct {
	agent   string
	limit   int
	minRisk float64
	piiOnly bool
	since   time.Duration
	format  string
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List recorded interactions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(auditQueryFlags.format)
		if err != nil {
			return err
		}
		q := &evidence.Query{
			AgentID:   auditQueryFlags.agent,
			PIIOnly:   auditQueryFlags.piiOnly,
			Limit:     auditQueryFlags.limit,
			SortBy:    query.SortTimestamp,
			SortOrder: "desc",
		}
		if auditQueryFlags.minRisk > 0 {
			q.MinRisk = &auditQueryFlags.minRisk
		}
		if auditQueryFlags.since > 0 {
			start := time.Now().Add(-auditQueryFlags.since)
			q.StartTime = &start
		}
		if err := query.Validate(q); err != nil {
			return err
		}

		return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
			records, err := store.Query(cmd.Context(), q)
			if err != nil {
				return cli.NewCommandError("audit query", err)
			}

			table := cli.NewTable("TIME", "AGENT", "PROVIDER", "MODEL", "RISK", "PII", "TOKENS")
			for _, r := range records {
				risk := fmt.Sprintf("%.2f", r.RiskScore)
				if format == cli.FormatText {
					risk = cli.FormatRisk(r.RiskScore)
				}
				table.Append(
					r.Timestamp.Format(time.RFC3339),
					r.AgentID,
					r.Provider,
					r.Model,
					risk,
					strings.Join(r.PIITypes, ","),
					strconv.Itoa(r.PromptTokens+r.ResponseTokens),
				)
			}
			return cli.Render(cmd.OutOrStdout(), format, table, records)
		})
	},
}

var auditStatsFlags struct {
	format string
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats <agent-id>",
	Short: "Summarize an agent's recorded activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(auditStatsFlags.format)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
			activity, err := store.Activity(cmd.Context(), args[0])
			if err != nil {
				return cli.NewCommandError("audit stats", err)
			}

			lastSeen := "never"
			if activity.LastSeen != nil {
				lastSeen = activity.LastSeen.Format(time.RFC3339)
			}
			table := cli.NewTable("TOTAL", "PII", "HIGH_RISK", "AVG_RISK", "LAST_SEEN")
			table.Append(
				strconv.Itoa(activity.Total),
				strconv.Itoa(activity.PIICount),
				strconv.Itoa(activity.HighRisk),
				fmt.Sprintf("%.2f", activity.AvgRisk),
				lastSeen,
			)
			return cli.Render(cmd.OutOrStdout(), format, table, activity)
		})
	},
}

var auditExportFlags struct {
	agent    string
	since    time.Duration
	format   string
	output   string
	progress bool
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Stream interaction records to JSON or CSV",
	Long: `Stream interaction records, oldest first, to a file or stdout.

Examples:
  # Export one agent's last 30 days as CSV
  agentguard audit export --agent <id> --since 720h --format csv --output audit.csv

  # Export everything as a JSON array
  agentguard audit export --format json > audit.json`,
	Args: cobra.NoArgs,
	RunE: runAuditExport,
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditExportFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatText {
		return fmt.Errorf("export supports json and csv only")
	}

	q := &evidence.Query{
		AgentID:   auditExportFlags.agent,
		SortBy:    query.SortTimestamp,
		SortOrder: "asc",
	}
	if auditExportFlags.since > 0 {
		start := time.Now().Add(-auditExportFlags.since)
		q.StartTime = &start
	}

	var out io.Writer = cmd.OutOrStdout()
	if auditExportFlags.output != "" {
		f, err := os.Create(auditExportFlags.output)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		defer f.Close()
		out = f
	}

	return withStore(cmd.Context(), func(_ *config.Config, store evidence.Store) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		total, err := store.Count(ctx, q)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}

		records, errs, err := store.QueryStream(ctx, q)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}

		var progress cli.ProgressReporter
		if auditExportFlags.progress {
			progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "Exporting")
			progress.Start(total)
			records = track(ctx, records, progress)
		}

		if format == cli.FormatCSV {
			err = export.NewCSVExporter(true).ExportStream(ctx, records, out)
		} else {
			err = export.NewJSONExporter(true).ExportStream(ctx, records, out)
		}
		if err == nil {
			err = <-errs
		}
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return cli.NewCommandError("audit export", err)
		}

		if progress != nil {
			progress.Finish()
		}
		if auditExportFlags.output != "" {
			cli.Success("Exported %d records to %s", total, auditExportFlags.output)
		}
		return nil
	})
}

// track forwards records while advancing progress.
func track(ctx context.Context, in <-chan *evidence.InteractionRecord, progress cli.ProgressReporter) <-chan *evidence.InteractionRecord {
	out := make(chan *evidence.InteractionRecord)
	go func() {
		defer close(out)
		var n int64
		for rec := range in {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
			n++
			if n%100 == 0 {
				progress.Update(n)
			}
		}
	}()
	return out
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditStatsCmd, auditExportCmd)

	qf := auditQueryCmd.Flags()
	qf.StringVar(&auditQueryFlags.agent, "agent", "", "filter by agent ID")
	qf.IntVar(&auditQueryFlags.limit, "limit", 50, "maximum records (0-500)")
	qf.Float64Var(&auditQueryFlags.minRisk, "min-risk", 0, "minimum risk score")
	qf.BoolVar(&auditQueryFlags.piiOnly, "pii-only", false, "only records with personal data")
	qf.DurationVar(&auditQueryFlags.since, "since", 0, "only records newer than this (e.g. 24h)")
	qf.StringVarP(&auditQueryFlags.format, "format", "f", "text", "output format (text, json, csv)")

	auditStatsCmd.Flags().StringVarP(&auditStatsFlags.format, "format", "f", "text", "output format (text, json, csv)")

	ef := auditExportCmd.Flags()
	ef.StringVar(&auditExportFlags.agent, "agent", "", "filter by agent ID")
	ef.DurationVar(&auditExportFlags.since, "since", 0, "only records newer than this (e.g. 720h)")
	ef.StringVarP(&auditExportFlags.format, "format", "f", "json", "export format (json, csv)")
	ef.StringVarP(&auditExportFlags.output, "output", "o", "", "output file (default stdout)")
	ef.BoolVar(&auditExportFlags.progress, "progress", false, "report progress on stderr")
}
