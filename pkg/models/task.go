package models

// TaskStatus represents the completion state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not been completed yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusDone indicates the task has been completed.
	TaskStatusDone TaskStatus = "done"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Toggle returns the opposite status. Unknown statuses toggle to done.
func (s TaskStatus) Toggle() TaskStatus {
	if s == TaskStatusDone {
		return TaskStatusPending
	}
	return TaskStatusDone
}

// Task is an actionable step belonging to a goal.
type Task struct {
	// ID is the generated identifier for this task.
	ID int64 `json:"id" yaml:"id"`
	// GoalID is the identifier of the owning goal.
	GoalID int64 `json:"goal_id" yaml:"goal_id"`
	// Title is the short imperative description of the task.
	Title string `json:"title" yaml:"title"`
	// OrderIndex defines the display order within the goal, ascending.
	OrderIndex int `json:"order_index" yaml:"order_index"`
	// Status is the completion state of the task.
	Status TaskStatus `json:"status" yaml:"status"`
}

// Done reports whether the task has been completed.
func (t Task) Done() bool {
	return t.Status == TaskStatusDone
}

// TaskEdit describes a title and order change for a single task.
type TaskEdit struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}
