// Package tui renders the interactive task board for a single goal.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/mentor/internal/state"
	"github.com/ShayCichocki/mentor/pkg/models"
)

// boardLoadedMsg carries a fresh snapshot of the goal and its tasks.
type boardLoadedMsg struct {
	goal  *models.Goal
	tasks []models.Task
	ratio float64
}

// boardErrMsg reports a failed storage call.
type boardErrMsg struct {
	err error
}

// DBChangedMsg is sent when the database file changed on disk.
type DBChangedMsg struct{}

// Board lets the user toggle, edit, reorder and delete a goal's tasks.
type Board struct {
	store   state.StateStore
	goalID  int64
	changes <-chan struct{}

	goal     *models.Goal
	tasks    []models.Task
	ratio    float64
	selected int
	loaded   bool

	editing bool
	editor  *InputField
	bar     progress.Model

	message  string
	isError  bool
	width    int
	quitting bool

	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	normalStyle   lipgloss.Style
	doneStyle     lipgloss.Style
	hintStyle     lipgloss.Style
	errorStyle    lipgloss.Style
	successStyle  lipgloss.Style
}

// NewBoard creates a board for goalID. changes may be nil; when set, each
// value triggers a reload (see DBWatcher).
func NewBoard(store state.StateStore, goalID int64, changes <-chan struct{}) *Board {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 40

	return &Board{
		store:   store,
		goalID:  goalID,
		changes: changes,
		editor:  NewInputField(),
		bar:     bar,
		width:   80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		selectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Bold(true),

		normalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")). // Dark green
			Strikethrough(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),
	}
}

// Init loads the board and starts listening for database changes.
func (b *Board) Init() tea.Cmd {
	return tea.Batch(b.load(), b.waitForChange())
}

// load reads the goal, its tasks and the completion ratio.
func (b *Board) load() tea.Cmd {
	store, goalID := b.store, b.goalID
	return func() tea.Msg {
		goal, err := store.GetGoal(goalID)
		if err != nil {
			return boardErrMsg{err: err}
		}
		if goal == nil {
			return boardErrMsg{err: fmt.Errorf("goal #%d not found", goalID)}
		}
		tasks, err := store.ListTasks(goalID)
		if err != nil {
			return boardErrMsg{err: err}
		}
		ratio, err := store.CompletionRatio(goalID)
		if err != nil {
			return boardErrMsg{err: err}
		}
		return boardLoadedMsg{goal: goal, tasks: tasks, ratio: ratio}
	}
}

func (b *Board) waitForChange() tea.Cmd {
	if b.changes == nil {
		return nil
	}
	changes := b.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return DBChangedMsg{}
	}
}

// mutate runs a storage write and reloads afterwards.
func (b *Board) mutate(status string, fn func() error) tea.Cmd {
	load := b.load()
	return func() tea.Msg {
		if err := fn(); err != nil {
			return boardErrMsg{err: err}
		}
		msg := load()
		if loaded, ok := msg.(boardLoadedMsg); ok {
			return statusLoadedMsg{boardLoadedMsg: loaded, status: status}
		}
		return msg
	}
}

// statusLoadedMsg is a reload following a successful write.
type statusLoadedMsg struct {
	boardLoadedMsg
	status string
}

// Update handles messages for the board.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.editor.SetWidth(msg.Width)
		b.bar.Width = clamp(msg.Width-20, 10, 80)
		return b, nil

	case boardLoadedMsg:
		b.apply(msg)
		return b, nil

	case statusLoadedMsg:
		b.apply(msg.boardLoadedMsg)
		b.message, b.isError = msg.status, false
		return b, nil

	case boardErrMsg:
		b.message, b.isError = msg.err.Error(), true
		return b, nil

	case DBChangedMsg:
		return b, tea.Batch(b.load(), b.waitForChange())

	case TitleSubmittedMsg:
		b.editing = false
		task, ok := b.current()
		if !ok {
			return b, nil
		}
		edit := models.TaskEdit{ID: task.ID, Title: msg.Title, OrderIndex: task.OrderIndex}
		store := b.store
		return b, b.mutate("Task edits saved.", func() error {
			return store.UpdateTasks([]models.TaskEdit{edit})
		})

	case EditCancelledMsg:
		b.editing = false
		return b, nil

	case tea.KeyMsg:
		if b.editing {
			var cmd tea.Cmd
			b.editor, cmd = b.editor.Update(msg)
			return b, cmd
		}
		return b.handleKey(msg)
	}

	return b, nil
}

func (b *Board) apply(msg boardLoadedMsg) {
	b.goal, b.tasks, b.ratio, b.loaded = msg.goal, msg.tasks, msg.ratio, true
	if b.selected >= len(b.tasks) {
		b.selected = len(b.tasks) - 1
	}
	if b.selected < 0 {
		b.selected = 0
	}
}

func (b *Board) current() (models.Task, bool) {
	if b.selected < 0 || b.selected >= len(b.tasks) {
		return models.Task{}, false
	}
	return b.tasks[b.selected], true
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		b.quitting = true
		return b, tea.Quit

	case "up", "k":
		if b.selected > 0 {
			b.selected--
		}
	case "down", "j":
		if b.selected < len(b.tasks)-1 {
			b.selected++
		}

	case " ", "x":
		task, ok := b.current()
		if !ok {
			return b, nil
		}
		store, next := b.store, task.Status.Toggle()
		return b, b.mutate(fmt.Sprintf("Task #%d marked %s.", task.ID, next), func() error {
			return store.SetTaskStatus(task.ID, next)
		})

	case "e", "enter":
		task, ok := b.current()
		if !ok {
			return b, nil
		}
		b.editing = true
		return b, b.editor.Start(task.Title)

	case "K", "shift+up":
		return b, b.move(-1)
	case "J", "shift+down":
		return b, b.move(1)

	case "d", "delete":
		task, ok := b.current()
		if !ok {
			return b, nil
		}
		store := b.store
		return b, b.mutate(fmt.Sprintf("Deleted task #%d.", task.ID), func() error {
			return store.DeleteTasks([]int64{task.ID})
		})

	case "r":
		return b, b.load()
	}
	return b, nil
}

// move swaps the selected task with its neighbour and renumbers the
// order indices of every task whose position changed.
func (b *Board) move(delta int) tea.Cmd {
	from, to := b.selected, b.selected+delta
	if from < 0 || to < 0 || to >= len(b.tasks) {
		return nil
	}

	reordered := make([]models.Task, len(b.tasks))
	copy(reordered, b.tasks)
	reordered[from], reordered[to] = reordered[to], reordered[from]

	var edits []models.TaskEdit
	for i, task := range reordered {
		if task.OrderIndex != i {
			edits = append(edits, models.TaskEdit{ID: task.ID, Title: task.Title, OrderIndex: i})
		}
	}
	b.selected = to

	store := b.store
	return b.mutate("Task order saved.", func() error {
		return store.UpdateTasks(edits)
	})
}

// View renders the board.
func (b *Board) View() string {
	if b.quitting {
		return ""
	}

	var sb strings.Builder

	switch {
	case b.goal != nil:
		sb.WriteString(b.titleStyle.Render(fmt.Sprintf("Goal #%d: %s", b.goal.ID, b.goal.Title)))
		sb.WriteString("\n")
		if b.goal.Deadline != nil {
			sb.WriteString(b.hintStyle.Render("  due " + b.goal.Deadline.String()))
			sb.WriteString("\n")
		}
	case !b.loaded && !b.isError:
		sb.WriteString(b.hintStyle.Render("Loading..."))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if b.loaded && len(b.tasks) == 0 {
		sb.WriteString(b.hintStyle.Render("  No tasks yet for this goal."))
		sb.WriteString("\n")
	}

	for i, task := range b.tasks {
		check := "[ ]"
		style := b.normalStyle
		if task.Done() {
			check = "[x]"
			style = b.doneStyle
		}
		line := fmt.Sprintf("%s #%02d %s", check, task.OrderIndex, task.Title)
		if i == b.selected {
			line = b.selectedStyle.Render("> " + line)
		} else {
			line = "  " + style.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if b.loaded {
		sb.WriteString("\n")
		sb.WriteString(b.bar.ViewAs(b.ratio))
		sb.WriteString(fmt.Sprintf("  %d%% complete\n", int(math.Round(b.ratio*100))))
	}

	if b.editing {
		sb.WriteString("\n")
		sb.WriteString(b.editor.View())
		sb.WriteString("\n")
	}

	if b.message != "" {
		sb.WriteString("\n")
		if b.isError {
			sb.WriteString(b.errorStyle.Render(b.message))
		} else {
			sb.WriteString(b.successStyle.Render(b.message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(b.hintStyle.Render("space toggle · e edit · J/K move · d delete · r reload · q quit"))
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
