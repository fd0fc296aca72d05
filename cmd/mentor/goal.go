package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/internal/state"
	"github.com/ShayCichocki/mentor/pkg/models"
)

var (
	goalWhy      string
	goalDeadline string
	goalMetric   string
	goalLimit    int
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Add, list and show goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Save a new goal",
	Long: `Save a new goal. The title is required; why, deadline and metric are optional.

Examples:
  mentor goal add "Drink more water"
  mentor goal add "Run a 10k" --why "Feel fitter" --deadline 2026-12-01 --metric "10k under 60 min"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoalAdd,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals, newest first",
	Args:  cobra.NoArgs,
	RunE:  runGoalList,
}

var goalShowCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show a goal with its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalShow,
}

func init() {
	goalAddCmd.Flags().StringVar(&goalWhy, "why", "", "Why the goal matters")
	goalAddCmd.Flags().StringVar(&goalDeadline, "deadline", "", "Target date (YYYY-MM-DD)")
	goalAddCmd.Flags().StringVar(&goalMetric, "metric", "", "How success is measured")

	goalListCmd.Flags().IntVar(&goalLimit, "limit", 0, "Maximum goals to show (default goals.list_limit)")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalShowCmd)
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	var deadline *models.Date
	if strings.TrimSpace(goalDeadline) != "" {
		d, err := models.ParseDate(goalDeadline)
		if err != nil {
			return fmt.Errorf("invalid deadline %q: use YYYY-MM-DD", goalDeadline)
		}
		deadline = &d
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	title := strings.Join(args, " ")
	id, err := a.store.SaveGoal(title, models.OptionalString(goalWhy), deadline, models.OptionalString(goalMetric))
	if errors.Is(err, state.ErrEmptyTitle) {
		return errors.New("please enter a goal title")
	}
	if err != nil {
		return err
	}

	a.logger.Log("[cli] saved goal #%d", id)
	printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Saved goal #%d.", id), color.FgGreen)
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	limit := goalLimit
	if limit <= 0 {
		limit = a.cfg.Goals.ListLimit
	}
	goals, err := a.store.ListGoals(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(goals) == 0 {
		fmt.Fprintln(out, "No goals yet. Add one with 'mentor goal add <title>'.")
		return nil
	}
	for _, g := range goals {
		line := fmt.Sprintf("#%-4d %s", g.ID, g.Title)
		if g.Deadline != nil {
			line += color.New(color.FgHiBlack).Sprintf("  (due %s)", g.Deadline)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runGoalShow(cmd *cobra.Command, args []string) error {
	id, err := parseID("goal", args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	goal, err := a.store.GetGoal(id)
	if err != nil {
		return err
	}
	if goal == nil {
		return fmt.Errorf("goal #%d not found", id)
	}
	tasks, err := a.store.ListTasks(id)
	if err != nil {
		return err
	}
	ratio, err := a.store.CompletionRatio(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	displayGoal(out, goal)
	fmt.Fprintln(out)
	displayTasks(out, tasks)
	fmt.Fprintf(out, "\nProgress: %d%%\n", percent(ratio))
	return nil
}

func displayGoal(w io.Writer, g *models.Goal) {
	color.New(color.Bold).Fprintf(w, "Goal #%d: %s\n", g.ID, g.Title)
	if g.Why != nil {
		fmt.Fprintf(w, "  Why:      %s\n", *g.Why)
	}
	if g.Deadline != nil {
		fmt.Fprintf(w, "  Deadline: %s\n", g.Deadline)
	}
	if g.Metric != nil {
		fmt.Fprintf(w, "  Metric:   %s\n", *g.Metric)
	}
	fmt.Fprintf(w, "  Status:   %s\n", g.Status)
	fmt.Fprintf(w, "  Created:  %s\n", g.CreatedAt.Format("2006-01-02 15:04"))
}

func displayTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks yet. Run 'mentor decompose <goal-id>' to generate some.")
		return
	}
	done := color.New(color.FgGreen)
	for _, t := range tasks {
		if t.Done() {
			done.Fprintf(w, "  [x] #%-4d %s\n", t.ID, t.Title)
		} else {
			fmt.Fprintf(w, "  [ ] #%-4d %s\n", t.ID, t.Title)
		}
	}
}

func percent(ratio float64) int {
	return int(math.Round(ratio * 100))
}
