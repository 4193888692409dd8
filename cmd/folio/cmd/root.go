// Package cmd implements the folio command line: serve runs the portfolio
// site, hash-password prepares credentials for the config file and config
// prints a sample configuration.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// OsExit is replaced in tests.
var OsExit = os.Exit

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Folio - a personal portfolio site with a small admin CMS",
		Long: `Folio serves a single-page portfolio together with an admin area and a
JSON API for editing its sections and projects.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate(PrintVersion() + "\n")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewHashPasswordCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}

func PrintVersion() string {
	return fmt.Sprintf("Folio v%s (commit: %s, built on: %s)", Version, Commit, Date)
}
