package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/skillflow"
	"github.com/aretw0/skillflow/internal/presentation/tui"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Plan, generate and read lessons",
}

var lessonPlanCmd = &cobra.Command{
	Use:   "plan <roadmap-id> <concept-id>",
	Short: "Plan the lessons of a concept",
	Args:  cobra.ExactArgs(2),
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
		section, concept, err := locateConcept(r, args[1])
		if err != nil {
			return err
		}
		lessons, err := a.svc.PlanLessons(cmd.Context(), skillflow.PlanRequest{
			RoadmapID:    r.ID,
			SectionID:    section.ID,
			ConceptID:    concept.ID,
			Topic:        r.Topic,
			SectionTitle: section.Title,
			ConceptTitle: concept.Title,
		})
		if err != nil {
			return err
		}
		for _, l := range lessons {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", l.ID, l.Status, l.Title)
		}
		return nil
	},
}

var lessonGenerateCmd = &cobra.Command{
	Use:   "generate <roadmap-id> <lesson-id>",
	Short: "Generate and review the content of a planned lesson",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		summary, _ := cmd.Flags().GetString("learned")
		r, err := a.svc.GetRoadmap(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rec, err := a.svc.GetLesson(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		section, concept, err := locateConcept(r, rec.ConceptID)
		if err != nil {
			return err
		}

		res, err := a.svc.GenerateLesson(cmd.Context(), skillflow.LessonRequest{
			RoadmapID:      r.ID,
			LessonID:       rec.ID,
			ConceptID:      concept.ID,
			SectionTitle:   section.Title,
			ConceptTitle:   concept.Title,
			LearnedSummary: summary,
		})
		if err != nil {
			return err
		}
		if err := printMarkdown(cmd.OutOrStdout(), tui.LessonMarkdown(res.Lesson, false)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "approved: %t, run %s\n", res.Approved, res.RunID)
		return nil
	},
}

var lessonShowCmd = &cobra.Command{
	Use:   "show <lesson-id>",
	Short: "Show a stored lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		answers, _ := cmd.Flags().GetBool("answers")
		rec, err := a.svc.GetLesson(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), tui.LessonMarkdown(rec, answers))
	},
}

func init() {
	rootCmd.AddCommand(lessonCmd)
	lessonCmd.AddCommand(lessonPlanCmd, lessonGenerateCmd, lessonShowCmd)
	lessonGenerateCmd.Flags().String("learned", "", "Summary of what the learner has covered so far")
	lessonShowCmd.Flags().Bool("answers", false, "Mark the correct multiple choice options")
}
