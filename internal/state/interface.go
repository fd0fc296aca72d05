package state

import "github.com/ShayCichocki/mentor/pkg/models"

// GoalStore handles goal persistence operations.
type GoalStore interface {
	SaveGoal(title string, why *string, deadline *models.Date, metric *string) (int64, error)
	ListGoals(limit int) ([]models.GoalSummary, error)
	GetGoal(id int64) (*models.Goal, error)
}

// TaskStore handles task persistence operations.
type TaskStore interface {
	AddTasks(goalID int64, titles []string) error
	ListTasks(goalID int64) ([]models.Task, error)
	GetTask(id int64) (*models.Task, error)
	UpdateTasks(edits []models.TaskEdit) error
	DeleteTasks(ids []int64) error
	SetTaskStatus(id int64, status models.TaskStatus) error
	CompletionRatio(goalID int64) (float64, error)
}

// Initializer creates the schema on first use.
type Initializer interface {
	// Init ensures the goals and tasks tables exist.
	Init() error
}

// StateStore is everything the application layer needs from storage.
// The CLI, the task board and the HTTP server depend on this rather than
// on the concrete SQLite Store.
type StateStore interface {
	Initializer
	GoalStore
	TaskStore
}

// Compile-time verification that Store implements all interfaces.
var (
	_ StateStore  = (*Store)(nil)
	_ Initializer = (*Store)(nil)
	_ GoalStore   = (*Store)(nil)
	_ TaskStore   = (*Store)(nil)
)
