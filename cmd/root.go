package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the weekrev application
var rootCmd = &cobra.Command{
	Use:   "weekrev",
	Short: "Weekly review assistant backed by Todoist and calendar data",
	Long: `weekrev assembles weekly reviews from your Todoist tasks and calendar
events, staying useful when either service is flaky or down.

It can run as:
  - A standalone CLI tool printing a review (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "weekrev version %s\n" .Version}}`)

	// If no subcommand is provided, run the review command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "review")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
