/*
Package cli provides command-line helpers used by the conductor command.

Output Formatting:

Results are printed as text, JSON or CSV. Results that implement Tabular
render as a bordered table in text mode and as rows in CSV mode:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(total)
	for range total {
		progress.Increment(err != nil)
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes, so scripts can tell an
invalid configuration (2) from a routing failure (3) or a dispatch failure
in which every provider failed (4).
*/
package cli
