package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/reports"
	"agentguard-hq/agentguard/pkg/server"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate compliance report documents",
}

var reportFlags struct {
	agent  string
	kind   string
	days   int
	output string
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a report and wait for it to finish",
	Long: `Generate a Markdown report into the configured sink and wait for it.
With --output the finished document is also copied to a local file.

Report types: annex_iv, audit_summary, hipaa_audit, sox_controls.

Examples:
  agentguard report generate --agent <id> --type annex_iv
  agentguard report generate --agent <id> --type hipaa_audit --days 90 --output hipaa.md`,
	Args: cobra.NoArgs,
	RunE: runReportGenerate,
}

func runReportGenerate(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(cfg *config.Config, store evidence.Store) error {
		ctx := cmd.Context()

		sink, err := server.NewReportSink(ctx, cfg)
		if err != nil {
			return cli.NewConfigError("reports.sink", err.Error())
		}
		gen := reports.NewGenerator(store, sink)
		gen.SetJobTimeout(cfg.Reports.JobTimeout)

		rec, err := gen.Start(ctx, reports.Request{
			AgentID:    reportFlags.agent,
			Type:       reportFlags.kind,
			PeriodDays: reportFlags.days,
		})
		if err != nil {
			return cli.NewCommandError("report generate", err)
		}
		gen.Wait()

		done, body, err := gen.Open(ctx, rec.ID)
		if errors.Is(err, reports.ErrNotReady) {
			return cli.NewCommandError("report generate", fmt.Errorf("report %s finished with status %s", rec.ID, done.Status))
		}
		if err != nil {
			return cli.NewCommandError("report generate", err)
		}
		defer body.Close()

		if reportFlags.output != "" {
			if err := copyTo(ctx, reportFlags.output, body); err != nil {
				return cli.NewCommandError("report generate", err)
			}
		}

		cli.Success("Report %s completed", done.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Stored at: %s\n", done.FilePath)
		if reportFlags.output != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Copied to: %s\n", reportFlags.output)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Download:  /api/reports/%s/download (%s)\n", done.ID, path.Base(done.FilePath))
		}
		return nil
	})
}

func copyTo(ctx context.Context, name string, body io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportGenerateCmd)

	f := reportGenerateCmd.Flags()
	f.StringVar(&reportFlags.agent, "agent", "", "agent ID (required)")
	f.StringVar(&reportFlags.kind, "type", reports.TypeAnnexIV, "report type")
	f.IntVar(&reportFlags.days, "days", reports.DefaultPeriodDays, "reporting period in days (1-365)")
	f.StringVarP(&reportFlags.output, "output", "o", "", "also write the document to this file")
	_ = reportGenerateCmd.MarkFlagRequired("agent")
}
