package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

// printJSON writes a command result to stdout as indented JSON, the
// shape a wrapping shell or UI layer consumes.
func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func newDueCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the items due for review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.db.Items().GetDue(cmd.Context(), time.Now().UTC(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, items)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items to return (0 for all)")
	return cmd
}

func newSubmitCmd(a *app) *cobra.Command {
	var exercisePath string

	cmd := &cobra.Command{
		Use:   "submit <answer>",
		Short: "Grade an attempt against an exercise and update its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exercise, err := readExercise(exercisePath)
			if err != nil {
				return err
			}
			result, err := a.attempts.SubmitAttempt(cmd.Context(), exercise, args[0])
			if result != nil {
				// The verdict is printed even when persistence failed;
				// the error still surfaces through the exit status.
				if printErr := printJSON(cmd, result); printErr != nil {
					return printErr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&exercisePath, "exercise", "", "path to the exercise JSON (\"-\" for stdin)")
	_ = cmd.MarkFlagRequired("exercise")
	return cmd
}

// readExercise loads an exercise definition from a file or stdin.
func readExercise(path string) (*domain.Exercise, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading exercise: %w", err)
	}

	var exercise domain.Exercise
	if err := json.Unmarshal(data, &exercise); err != nil {
		return nil, fmt.Errorf("parsing exercise: %w", err)
	}
	return &exercise, nil
}

func newPostponeCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "postpone <item-id>",
		Short: "Push an item's next review forward without reviewing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q: %w", args[0], err)
			}
			item, err := a.db.Items().Get(cmd.Context(), itemID)
			if err != nil {
				return err
			}
			updated, err := a.scheduler.Postpone(item, days, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := a.db.Items().Put(cmd.Context(), updated); err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of days to postpone by")
	return cmd
}

func newCompleteLessonCmd(a *app) *cobra.Command {
	var score, timeSpent int

	cmd := &cobra.Command{
		Use:   "complete-lesson <lesson-id>",
		Short: "Record a lesson completion and queue it for sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessonID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid lesson id %q: %w", args[0], err)
			}
			record, err := a.progress.CompleteLesson(cmd.Context(), lessonID, score, timeSpent)
			if err != nil {
				return err
			}
			return printJSON(cmd, record)
		},
	}
	cmd.Flags().IntVar(&score, "score", 0, "lesson score, 0-100")
	cmd.Flags().IntVar(&timeSpent, "time-spent", 0, "seconds spent on the lesson")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func newSelfCheckCmd(a *app) *cobra.Command {
	var rating int
	var note string

	cmd := &cobra.Command{
		Use:   "self-check <exercise-id>",
		Short: "Record a learner self-assessment for an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exerciseID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid exercise id %q: %w", args[0], err)
			}
			return a.progress.RecordSelfCheck(cmd.Context(), exerciseID, rating, note)
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "self assessment, 1-5")
	cmd.Flags().StringVar(&note, "note", "", "optional free-form note")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Flush the pending mutation queue to the remote service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.syncMgr.Flush(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newClearCacheCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Wipe the offline content cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.progress.ClearCache(cmd.Context())
		},
	}
}
