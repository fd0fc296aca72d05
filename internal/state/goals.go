package state

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ShayCichocki/mentor/pkg/models"
)

// DefaultGoalLimit caps ListGoals when no positive limit is given.
const DefaultGoalLimit = 20

// SaveGoal inserts a new active goal and returns its generated ID.
// The title is trimmed; an empty title is rejected with ErrEmptyTitle.
func (s *Store) SaveGoal(title string, why *string, deadline *models.Date, metric *string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, ErrEmptyTitle
	}

	var deadlineText *string
	if deadline != nil {
		d := deadline.String()
		deadlineText = &d
	}

	var id int64
	err := s.withConn(func(conn *sql.DB) error {
		result, err := conn.Exec(`
			INSERT INTO goals (created_at, title, why, deadline, metric, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, formatTime(s.now()), title, why, deadlineText, metric, string(models.GoalStatusActive))
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save goal: %w", err)
	}
	return id, nil
}

// ListGoals returns up to limit goals, most recently created first.
func (s *Store) ListGoals(limit int) ([]models.GoalSummary, error) {
	if limit <= 0 {
		limit = DefaultGoalLimit
	}

	var goals []models.GoalSummary
	err := s.withConn(func(conn *sql.DB) error {
		rows, err := conn.Query(`
			SELECT id, title, deadline, status
			FROM goals ORDER BY id DESC LIMIT ?
		`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g models.GoalSummary
			var deadline sql.NullString
			if err := rows.Scan(&g.ID, &g.Title, &deadline, &g.Status); err != nil {
				return fmt.Errorf("scan goal: %w", err)
			}
			g.Deadline = parseNullableDate(deadline)
			goals = append(goals, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// GetGoal retrieves a goal by ID. It returns nil, nil when no goal matches.
func (s *Store) GetGoal(id int64) (*models.Goal, error) {
	var goal *models.Goal
	err := s.withConn(func(conn *sql.DB) error {
		row := conn.QueryRow(`
			SELECT id, created_at, title, why, deadline, metric, status
			FROM goals WHERE id = ?
		`, id)

		var g models.Goal
		var createdAt string
		var why, deadline, metric sql.NullString
		err := row.Scan(&g.ID, &createdAt, &g.Title, &why, &deadline, &metric, &g.Status)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		if g.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("parse created_at: %w", err)
		}
		if !g.Status.Valid() {
			return fmt.Errorf("unknown goal status %q", g.Status)
		}
		g.Why = nullableString(why)
		g.Deadline = parseNullableDate(deadline)
		g.Metric = nullableString(metric)
		goal = &g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// parseNullableDate parses a nullable deadline column.
// Unparseable values are treated as absent.
func parseNullableDate(s sql.NullString) *models.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := models.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}
