package task

import (
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Starred   bool       `json:"starred"`
	Priority  Priority   `json:"priority"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	DueTime   *time.Time `json:"dueTime,omitempty"`
	Subtasks  []Subtask  `json:"subtasks"`
}

type Subtask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Priority string

const PriorityLow Priority = "Low"
const PriorityMedium Priority = "Medium"
const PriorityHigh Priority = "High"

// Rank orders priorities for sorting; unknown values rank below Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority accepts any casing; an empty value means Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// CombineDateTime puts the hour and minute of clock onto the calendar day
// of date. Seconds and below are kept from date.
func CombineDateTime(date, clock time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(),
		date.Second(), date.Nanosecond(),
		date.Location(),
	)
}

// DueInstant reports the combined due date/time, if the task has both.
func (t Task) DueInstant() (time.Time, bool) {
	if t.DueDate == nil || t.DueTime == nil {
		return time.Time{}, false
	}
	return CombineDateTime(*t.DueDate, *t.DueTime), true
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.DueTime != nil {
		d := *t.DueTime
		c.DueTime = &d
	}
	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(c.Subtasks, t.Subtasks)
	}
	return c
}

func CloneAll(tasks []Task) []Task {
	res := make([]Task, len(tasks))
	for i, t := range tasks {
		res[i] = t.Clone()
	}
	return res
}
