package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recent loop runs, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if len(args) == 1 {
			run, err := a.svc.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := a.svc.RecentRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d/%d\tapproved=%t\t%s\t%s\n",
				r.ID, r.Loop, r.Iterations, r.MaxIterations, r.Approved,
				r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Subject)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 20, "Number of runs to list")
}
