package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board <goal-id>",
	Short: "Open the interactive task board for a goal",
	Long: `Open a full-screen board for one goal.

Keys: space/x toggle, e edit, J/K move, d delete, r reload, q quit.
The board reloads automatically when the database changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
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

	var changes <-chan struct{}
	watcher, err := tui.WatchDB(a.store.Path())
	if err != nil {
		a.logger.Log("[board] live reload disabled: %v", err)
	} else {
		defer watcher.Close()
		changes = watcher.Changes()
	}

	p := tea.NewProgram(tui.NewBoard(a.store, goalID, changes), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
