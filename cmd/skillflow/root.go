package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillflow",
	Short: "SkillFlow generates reviewed learning roadmaps and lessons",
	Long: `SkillFlow drafts learning roadmaps and lessons with a language model and has a
second pass review every draft before it is stored.

Settings are read from skillflow.yaml in --config-dir and SKILLFLOW_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", ".", "Directory containing skillflow.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
}
