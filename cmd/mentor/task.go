package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/pkg/models"
)

var (
	taskEditTitle string
	taskEditOrder int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "List, edit, delete and complete tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list <goal-id>",
	Short: "List a goal's tasks in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskList,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Change a task's title or position",
	Long: `Change a task's title and/or order index. Values not given are kept.

Examples:
  mentor task edit 12 --title "Drink a glass of water at breakfast"
  mentor task edit 12 --order 0`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskEdit,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>...",
	Short: "Delete tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskDelete,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>...",
	Short: "Mark tasks done",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetStatus(cmd, args, models.TaskStatusDone)
	},
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo <task-id>...",
	Short: "Mark tasks pending again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetStatus(cmd, args, models.TaskStatusPending)
	},
}

func init() {
	taskEditCmd.Flags().StringVar(&taskEditTitle, "title", "", "New title")
	taskEditCmd.Flags().IntVar(&taskEditOrder, "order", 0, "New order index (0-based)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskUndoCmd)
}

func runTaskList(cmd *cobra.Command, args []string) error {
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
	displayTasks(cmd.OutOrStdout(), tasks)
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID("task", args[0])
	if err != nil {
		return err
	}

	titleSet := cmd.Flags().Changed("title")
	orderSet := cmd.Flags().Changed("order")
	if !titleSet && !orderSet {
		return errors.New("nothing to change: pass --title and/or --order")
	}
	if titleSet && strings.TrimSpace(taskEditTitle) == "" {
		return errors.New("task title cannot be empty")
	}
	if orderSet && taskEditOrder < 0 {
		return errors.New("order must be a non-negative integer")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := a.store.GetTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task #%d not found", id)
	}

	edit := models.TaskEdit{ID: task.ID, Title: task.Title, OrderIndex: task.OrderIndex}
	if titleSet {
		edit.Title = strings.TrimSpace(taskEditTitle)
	}
	if orderSet {
		edit.OrderIndex = taskEditOrder
	}
	if err := a.store.UpdateTasks([]models.TaskEdit{edit}); err != nil {
		return err
	}

	printStatus(cmd.OutOrStdout(), "✓", "Task edits saved.", color.FgGreen)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs("task", args)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteTasks(ids); err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Deleted %d task(s).", len(ids)), color.FgGreen)
	return nil
}

func runSetStatus(cmd *cobra.Command, args []string, status models.TaskStatus) error {
	ids, err := parseIDs("task", args)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	for _, id := range ids {
		task, err := a.store.GetTask(id)
		if err != nil {
			return err
		}
		if task == nil {
			return fmt.Errorf("task #%d not found", id)
		}
		if err := a.store.SetTaskStatus(id, status); err != nil {
			return err
		}
		printStatus(out, "✓", fmt.Sprintf("Task #%d marked %s.", id, status), color.FgGreen)
	}
	return nil
}
