package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/internal/config"
	"github.com/ShayCichocki/mentor/internal/decompose"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose <goal-id>",
	Short: "Break a goal into small daily tasks",
	Long: `Ask the model for 5-10 tiny, safe, daily actions for a goal and append
them to the goal's task list.

Requires ANTHROPIC_API_KEY (or anthropic.api_key, or anthropic.use_bedrock).
If the model call fails a short generic plan is added instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompose,
}

func runDecompose(cmd *cobra.Command, args []string) error {
	goalID, err := parseID("goal", args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if config.GetAPIKeySource(a.cfg) == config.KeySourceNone {
		return config.ErrNoAPIKey
	}

	goal, err := a.store.GetGoal(goalID)
	if err != nil {
		return err
	}
	if goal == nil {
		return fmt.Errorf("goal #%d not found", goalID)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Breaking down goal #%d: %s\n", goal.ID, goal.Title)

	items, err := a.decompose(cmd.Context(), goal.Title)
	if errors.Is(err, decompose.ErrNoCredential) {
		return config.ErrNoAPIKey
	}
	if err != nil {
		return err
	}

	if len(items) == 0 {
		printStatus(out, "⚠", "No subtasks returned; try again.", color.FgYellow)
		return nil
	}
	if err := a.store.AddTasks(goalID, items); err != nil {
		return err
	}

	printStatus(out, "✓", fmt.Sprintf("Added %d subtasks:", len(items)), color.FgGreen)
	for i, item := range items {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, item)
	}
	return nil
}
