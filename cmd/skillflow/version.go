package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/skillflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of skillflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skillflow version %s\n", skillflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
