package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <goal-id>",
	Short: "Show how much of a goal is done",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	goalID, err := parseID("goal", args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	goal, err := a.store.GetGoal(goalID)
	if err != nil {
		return err
	}
	if goal == nil {
		return fmt.Errorf("goal #%d not found", goalID)
	}
	tasks, err := a.store.ListTasks(goalID)
	if err != nil {
		return err
	}
	ratio, err := a.store.CompletionRatio(goalID)
	if err != nil {
		return err
	}

	done := 0
	for _, t := range tasks {
		if t.Done() {
			done++
		}
	}

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Goal #%d: %s\n", goal.ID, goal.Title)
	fmt.Fprintf(out, "%s  %d/%d tasks done (%d%%)\n", bar.ViewAs(ratio), done, len(tasks), percent(ratio))
	return nil
}
