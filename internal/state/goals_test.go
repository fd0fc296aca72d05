package state

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/mentor/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestSaveGoal_ReturnsIncreasingIDs(t *testing.T) {
	s := setupTestStore(t)

	var last int64
	for _, title := range []string{"First", "Second", "Third"} {
		id, err := s.SaveGoal(title, nil, nil, nil)
		if err != nil {
			t.Fatalf("SaveGoal(%q) failed: %v", title, err)
		}
		if id <= 0 {
			t.Errorf("SaveGoal(%q) id = %d, want positive", title, id)
		}
		if id <= last {
			t.Errorf("SaveGoal(%q) id = %d, want greater than %d", title, id, last)
		}
		last = id
	}
}

func TestSaveGoal_RoundTrip(t *testing.T) {
	fixed := time.Date(2025, time.January, 2, 3, 4, 5, 600, time.UTC)
	s := New(tempDBPath(t), WithClock(func() time.Time { return fixed }))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	deadline := models.Date{Year: 2025, Month: time.June, Day: 30}
	id, err := s.SaveGoal("  Drink more water ", strPtr("Health"), &deadline, strPtr("8 glasses a day"))
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}

	goal, err := s.GetGoal(id)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal == nil {
		t.Fatal("GetGoal returned nil for saved goal")
	}

	if goal.ID != id {
		t.Errorf("ID = %d, want %d", goal.ID, id)
	}
	if goal.Title != "Drink more water" {
		t.Errorf("Title = %q, want trimmed title", goal.Title)
	}
	if goal.Why == nil || *goal.Why != "Health" {
		t.Errorf("Why = %v, want Health", goal.Why)
	}
	if goal.Deadline == nil || *goal.Deadline != deadline {
		t.Errorf("Deadline = %v, want %v", goal.Deadline, deadline)
	}
	if goal.Metric == nil || *goal.Metric != "8 glasses a day" {
		t.Errorf("Metric = %v, want 8 glasses a day", goal.Metric)
	}
	if goal.Status != models.GoalStatusActive {
		t.Errorf("Status = %q, want %q", goal.Status, models.GoalStatusActive)
	}
	if !goal.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", goal.CreatedAt, fixed)
	}
}

func TestSaveGoal_OptionalFieldsAbsent(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.SaveGoal("Read more", nil, nil, nil)
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}

	goal, err := s.GetGoal(id)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal.Why != nil || goal.Deadline != nil || goal.Metric != nil {
		t.Errorf("optional fields = %v %v %v, want all nil", goal.Why, goal.Deadline, goal.Metric)
	}
}

func TestSaveGoal_StoresUTC(t *testing.T) {
	local := time.FixedZone("UTC+5", 5*60*60)
	at := time.Date(2025, time.March, 1, 1, 0, 0, 0, local)
	s := New(tempDBPath(t), WithClock(func() time.Time { return at }))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	id, err := s.SaveGoal("Zoned", nil, nil, nil)
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}
	goal, err := s.GetGoal(id)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", goal.CreatedAt.Location())
	}
	if !goal.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want instant %v", goal.CreatedAt, at)
	}
}

func TestSaveGoal_EmptyTitle(t *testing.T) {
	s := setupTestStore(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.SaveGoal(title, nil, nil, nil)
		if !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("SaveGoal(%q) error = %v, want ErrEmptyTitle", title, err)
		}
	}

	if n := countRows(t, s, "SELECT COUNT(*) FROM goals"); n != 0 {
		t.Errorf("goals rows = %d, want 0 after rejected saves", n)
	}
}

func TestGetGoal_NotFound(t *testing.T) {
	s := setupTestStore(t)

	goal, err := s.GetGoal(999)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal != nil {
		t.Errorf("GetGoal(999) = %+v, want nil", goal)
	}
}

func TestGetGoal_CorruptRow(t *testing.T) {
	tests := []struct {
		name   string
		update string
	}{
		{"bad created_at", "UPDATE goals SET created_at = 'garbage'"},
		{"unknown status", "UPDATE goals SET status = 'archived'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			id, err := s.SaveGoal("Run a 5k", nil, nil, nil)
			if err != nil {
				t.Fatalf("SaveGoal failed: %v", err)
			}
			err = s.withConn(func(conn *sql.DB) error {
				_, err := conn.Exec(tt.update)
				return err
			})
			if err != nil {
				t.Fatalf("update failed: %v", err)
			}

			goal, err := s.GetGoal(id)
			if err == nil {
				t.Fatalf("GetGoal = %+v, want error", goal)
			}
			if goal != nil {
				t.Errorf("GetGoal returned goal %+v alongside error", goal)
			}
		})
	}
}

func TestListGoals_NewestFirst(t *testing.T) {
	s := setupTestStore(t)

	deadline := models.Date{Year: 2026, Month: time.February, Day: 1}
	first, _ := s.SaveGoal("First", nil, nil, nil)
	second, _ := s.SaveGoal("Second", nil, &deadline, nil)

	goals, err := s.ListGoals(0)
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("len(goals) = %d, want 2", len(goals))
	}
	if goals[0].ID != second || goals[1].ID != first {
		t.Errorf("order = [%d %d], want [%d %d]", goals[0].ID, goals[1].ID, second, first)
	}
	if goals[0].Deadline == nil || *goals[0].Deadline != deadline {
		t.Errorf("Deadline = %v, want %v", goals[0].Deadline, deadline)
	}
	if goals[1].Deadline != nil {
		t.Errorf("Deadline = %v, want nil", goals[1].Deadline)
	}
	if goals[0].Status != models.GoalStatusActive {
		t.Errorf("Status = %q, want active", goals[0].Status)
	}
}

func TestListGoals_Limit(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < DefaultGoalLimit+5; i++ {
		if _, err := s.SaveGoal("Goal", nil, nil, nil); err != nil {
			t.Fatalf("SaveGoal failed: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{3, 3},
		{0, DefaultGoalLimit},
		{-1, DefaultGoalLimit},
		{100, DefaultGoalLimit + 5},
	}
	for _, tt := range tests {
		goals, err := s.ListGoals(tt.limit)
		if err != nil {
			t.Fatalf("ListGoals(%d) failed: %v", tt.limit, err)
		}
		if len(goals) != tt.want {
			t.Errorf("ListGoals(%d) returned %d goals, want %d", tt.limit, len(goals), tt.want)
		}
	}
}

func TestListGoals_Empty(t *testing.T) {
	s := setupTestStore(t)

	goals, err := s.ListGoals(10)
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 0 {
		t.Errorf("len(goals) = %d, want 0", len(goals))
	}
}
