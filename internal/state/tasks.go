package state

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ShayCichocki/mentor/pkg/models"
)

// AddTasks inserts one pending task per title for the given goal.
// Titles are trimmed and numbered by their position in the slice,
// starting at zero. The batch is written in a single transaction.
func (s *Store) AddTasks(goalID int64, titles []string) error {
	if len(titles) == 0 {
		return nil
	}

	err := s.transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO tasks (goal_id, title, order_index, status)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, title := range titles {
			if _, err := stmt.Exec(goalID, strings.TrimSpace(title), i, string(models.TaskStatusPending)); err != nil {
				return fmt.Errorf("insert task %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add tasks: %w", err)
	}
	return nil
}

// ListTasks returns the goal's tasks ordered by order index, then ID.
func (s *Store) ListTasks(goalID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.withConn(func(conn *sql.DB) error {
		rows, err := conn.Query(`
			SELECT id, goal_id, title, order_index, status
			FROM tasks WHERE goal_id = ?
			ORDER BY order_index ASC, id ASC
		`, goalID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t models.Task
			if err := rows.Scan(&t.ID, &t.GoalID, &t.Title, &t.OrderIndex, &t.Status); err != nil {
				return fmt.Errorf("scan task: %w", err)
			}
			tasks = append(tasks, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID. It returns nil, nil when no task matches.
func (s *Store) GetTask(id int64) (*models.Task, error) {
	var task *models.Task
	err := s.withConn(func(conn *sql.DB) error {
		var t models.Task
		err := conn.QueryRow(`
			SELECT id, goal_id, title, order_index, status
			FROM tasks WHERE id = ?
		`, id).Scan(&t.ID, &t.GoalID, &t.Title, &t.OrderIndex, &t.Status)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		task = &t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateTasks applies title and order changes. Edits for unknown IDs
// match no rows and are skipped.
func (s *Store) UpdateTasks(edits []models.TaskEdit) error {
	if len(edits) == 0 {
		return nil
	}

	err := s.transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("UPDATE tasks SET title = ?, order_index = ? WHERE id = ?")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range edits {
			if _, err := stmt.Exec(e.Title, e.OrderIndex, e.ID); err != nil {
				return fmt.Errorf("update task %d: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update tasks: %w", err)
	}
	return nil
}

// DeleteTasks removes the tasks with the given IDs.
func (s *Store) DeleteTasks(ids []int64) error {
	// An empty IN () list is a syntax error in SQLite.
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	err := s.withConn(func(conn *sql.DB) error {
		_, err := conn.Exec("DELETE FROM tasks WHERE id IN ("+placeholders+")", args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

// SetTaskStatus writes status to the task as given. Callers are expected
// to pass models.TaskStatusPending or models.TaskStatusDone.
func (s *Store) SetTaskStatus(id int64, status models.TaskStatus) error {
	err := s.withConn(func(conn *sql.DB) error {
		_, err := conn.Exec("UPDATE tasks SET status = ? WHERE id = ?", string(status), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return nil
}

// CompletionRatio returns the fraction of the goal's tasks that are done.
// A goal without tasks has a ratio of 0.
func (s *Store) CompletionRatio(goalID int64) (float64, error) {
	var total, done int
	err := s.withConn(func(conn *sql.DB) error {
		return conn.QueryRow(`
			SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
			FROM tasks WHERE goal_id = ?
		`, string(models.TaskStatusDone), goalID).Scan(&total, &done)
	})
	if err != nil {
		return 0, fmt.Errorf("completion ratio: %w", err)
	}

	if total == 0 {
		return 0, nil
	}
	return float64(done) / float64(total), nil
}
