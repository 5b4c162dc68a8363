// Package cli implements the gitscribe command-line interface using Cobra.
// The bare command is the main flow: generate a commit message for the
// staged changes and review it. Subcommands manage the model store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitscribe",
	Short: "gitscribe — commit messages from a local AI model",
	Long: `gitscribe turns your staged changes into a proposed commit message,
generated by a language model running entirely on your machine.

Stage your changes, run gitscribe, review, commit.`,
	Args:          cobra.NoArgs,
	RunE:          runGenerate,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
