package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/skillflow"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Judge an answer to an open question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		question, _ := cmd.Flags().GetString("question")
		answer, _ := cmd.Flags().GetString("answer")
		content, _ := cmd.Flags().GetString("content")
		if lessonID, _ := cmd.Flags().GetString("lesson"); lessonID != "" {
			rec, err := a.svc.GetLesson(cmd.Context(), lessonID)
			if err != nil {
				return err
			}
			if !rec.Generated() {
				return errors.New("lesson has no content yet")
			}
			content = rec.Lesson.Content
		}

		verdict, err := a.svc.CheckAnswer(cmd.Context(), skillflow.AnswerRequest{
			Question:      question,
			Answer:        answer,
			LessonContent: content,
		})
		if err != nil {
			return err
		}
		result := "incorrect"
		if verdict.IsCorrect {
			result = "correct"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", result, verdict.Explanation)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("question", "q", "", "The question asked")
	checkCmd.Flags().StringP("answer", "a", "", "The learner's answer")
	checkCmd.Flags().String("content", "", "Lesson content to judge against")
	checkCmd.Flags().String("lesson", "", "Stored lesson whose content to judge against")
	checkCmd.MarkFlagRequired("question")
	checkCmd.MarkFlagRequired("answer")
	checkCmd.MarkFlagsMutuallyExclusive("content", "lesson")
	checkCmd.MarkFlagsOneRequired("content", "lesson")
}
