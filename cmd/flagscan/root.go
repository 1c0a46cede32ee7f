package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for flagscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flagscan",
		Short: "Authenticated web crawler that hunts hidden flags",
		Long: `Flagscan authenticates against a Fakebook-style site over TLS using its
own HTTP/1.1 client, then crawls the site breadth-first until it has
collected the hidden flags.

Flags are printed to stdout one per line as they are discovered.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
