package models

import (
	"strings"
	"time"
)

// DateLayout is the storage and display layout for goal deadlines.
const DateLayout = "2006-01-02"

// GoalStatus represents the lifecycle state of a goal.
type GoalStatus string

const (
	// GoalStatusActive is the only status assigned in this version.
	GoalStatusActive GoalStatus = "active"
)

// Valid returns true if the status is a known value.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusActive:
		return true
	default:
		return false
	}
}

// Goal is a user's top-level objective.
type Goal struct {
	// ID is the generated identifier for this goal.
	ID int64 `json:"id" yaml:"id"`
	// CreatedAt is when the goal was saved, in UTC.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// Title is the required, non-empty goal statement.
	Title string `json:"title" yaml:"title"`
	// Why explains why the goal matters, if given.
	Why *string `json:"why,omitempty" yaml:"why,omitempty"`
	// Deadline is the optional target date.
	Deadline *Date `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	// Metric describes how success is measured, if given.
	Metric *string `json:"metric,omitempty" yaml:"metric,omitempty"`
	// Status is the lifecycle state of the goal.
	Status GoalStatus `json:"status" yaml:"status"`
}

// GoalSummary is the projection of a goal used in listings.
type GoalSummary struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Deadline *Date      `json:"deadline,omitempty"`
	Status   GoalStatus `json:"status"`
}

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
