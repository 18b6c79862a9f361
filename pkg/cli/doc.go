/*
Package cli holds the helpers shared by the agentguard commands.

Output

Commands render tables in text, JSON or CSV:

	table := cli.NewTable("ID", "NAME", "RISK")
	table.Append(agent.ID, agent.Name, agent.RiskLevel)
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Compliance grades and risk scores are coloured on terminals with GradeColor
and RiskColor. Colour is disabled automatically when stdout is not a TTY.

Progress

Long exports report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "Exporting")
	progress.Start(total)
	progress.Update(n)
	progress.Finish()

Signals

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
