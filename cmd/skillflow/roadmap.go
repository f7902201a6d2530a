package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/skillflow/internal/presentation/graph"
	"github.com/aretw0/skillflow/internal/presentation/tui"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Generate and inspect roadmaps",
}

var roadmapGenerateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate, review and store a roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		res, err := a.svc.GenerateRoadmap(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := printMarkdown(cmd.OutOrStdout(), tui.RoadmapMarkdown(res.Roadmap)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "roadmap %s, approved: %t, run %s\n", res.Roadmap.ID, res.Approved, res.RunID)
		return nil
	},
}

var roadmapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored roadmaps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		list, err := a.svc.ListRoadmaps(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Topic)
		}
		return nil
	},
}

var roadmapShowCmd = &cobra.Command{
	Use:   "show <roadmap-id>",
	Short: "Show a stored roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		r, err := a.svc.GetRoadmap(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			_, err := fmt.Fprint(cmd.OutOrStdout(), graph.RoadmapMermaid(r))
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), tui.RoadmapMarkdown(r))
	},
}

func init() {
	rootCmd.AddCommand(roadmapCmd)
	roadmapCmd.AddCommand(roadmapGenerateCmd, roadmapListCmd, roadmapShowCmd)
	roadmapShowCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart instead of markdown")
}
