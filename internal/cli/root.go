// Package cli implements the SingMaster command-line interface using Cobra.
// Progress commands run against the local database in-process; serve starts
// the HTTP API for the app.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var userFlag string

var rootCmd = &cobra.Command{
	Use:   "singmaster",
	Short: "SingMaster: singing practice from the terminal",
	Long: `SingMaster tracks singing practice: guided levels, pitch tools,
scoring, streaks and achievements.

Data lives in $SINGMASTER_HOME (default ~/.singmaster).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id (defaults to the local profile)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
