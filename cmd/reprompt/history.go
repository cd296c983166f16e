package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"reprompt/internal/journal"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent reverse prompt runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	runs, err := j.Recent(historyLimit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(out io.Writer, runs []journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %-9s  %-16s  %6s  %s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.Outcome,
			run.Model,
			run.Duration().Round(100*time.Millisecond),
			run.URI,
		)
		detail := run.Response
		if run.Error != "" {
			detail = run.Error
		}
		if detail = strings.TrimSpace(detail); detail != "" {
			fmt.Fprintf(out, "    %s\n", oneLine(detail, 100))
		}
	}
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return s
}
