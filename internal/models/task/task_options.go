package task

import (
	"time"
)

// Option fills in an optional field of a task being created.
type Option func(*Task)

func WithPriority(priority Priority) Option {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithDueDate(date time.Time) Option {
	if date.IsZero() {
		return nil
	}
	return func(task *Task) {
		d := date.Round(0)
		task.DueDate = &d
	}
}

func WithDueTime(clock time.Time) Option {
	if clock.IsZero() {
		return nil
	}
	return func(task *Task) {
		c := clock.Round(0)
		task.DueTime = &c
	}
}
