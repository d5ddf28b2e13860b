package handlers

import (
	"context"

	"taskKeeper/internal/models/task"
	"taskKeeper/internal/reminder"
	"taskKeeper/internal/view"
)

// TaskService is the part of the task store the HTTP layer drives.
type TaskService interface {
	Add(ctx context.Context, text string, options ...task.Option) (task.Task, error)
	Get(id int64) (task.Task, error)
	Project(sortOption view.SortOption, showStarredOnly bool) []task.Task
	Delete(id int64) []task.Task
	ToggleCompleted(id int64) []task.Task
	ToggleStarred(id int64) []task.Task
	EditText(id int64, newText string) []task.Task
	AddSubtask(id int64, text string) []task.Task
	ToggleSubtask(id int64, index int) []task.Task
	ClearAll() []task.Task
}

type ReminderLister interface {
	Pending() []reminder.Pending
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
