package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/flagscan/flagscan/internal/config"
	"github.com/flagscan/flagscan/internal/database"
)

// NewHistoryCmd creates the history command.
// This command lists past crawl runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [server]",
		Short: "Show past crawl runs",
		Long: `History lists crawl runs recorded in the local database.

Each run shows when it started, how many pages were visited, how many
flags were found, and whether the run completed. Use --flags to print
the flags of a specific run.

Examples:
  # List every recorded run
  flagscan history

  # List runs for one server
  flagscan history fakebook.example

  # Show only the last three runs
  flagscan history -n 3

  # Print the flags of run 7
  flagscan history --flags 7

  # Output history in JSON format
  flagscan history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of runs to show (0 = all)")
	cmd.Flags().Int64("flags", 0,
		"Print the flags of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var server string
	if len(args) > 0 {
		server = args[0]
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no crawl history yet: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	runID, err := cmd.Flags().GetInt64("flags")
	if err != nil {
		return err
	}
	if runID > 0 {
		return printRunFlags(ctx, cmd, db, runID)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	runs, err := db.ListRuns(ctx, server, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	return printRunTable(cmd, runs)
}

// printRunTable renders run history as an aligned table.
func printRunTable(cmd *cobra.Command, runs []database.RunRecord) error {
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSERVER\tUSERNAME\tSTARTED\tDURATION\tPAGES\tFLAGS\tSTATUS")

	for _, run := range runs {
		status := "incomplete"
		if run.Completed {
			status = "complete"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			run.ID,
			run.Server,
			run.Username,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Duration().Round(time.Second),
			run.PagesVisited,
			run.FlagsFound,
			run.FlagLimit,
			status,
		)
	}

	return w.Flush()
}

// printRunFlags prints the flags of one stored run, one per line.
func printRunFlags(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB, runID int64) error {
	flags, err := db.GetRunFlags(ctx, runID)
	if err != nil {
		return err
	}
	if len(flags) == 0 {
		fmt.Fprintf(os.Stderr, "Run %d has no recorded flags.\n", runID)
		return nil
	}

	for _, f := range flags {
		fmt.Fprintln(cmd.OutOrStdout(), f.Value)
	}
	return nil
}
