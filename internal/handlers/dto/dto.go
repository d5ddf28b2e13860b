package dto

import (
	"time"

	"taskKeeper/internal/models/task"
	"taskKeeper/internal/reminder"
)

const DateLayout = "2006-01-02"
const TimeLayout = "15:04"

// CreateTaskRequest carries the picker values as the UI shows them: a
// calendar date and a wall-clock time, both optional.
type CreateTaskRequest struct {
	Text     string `json:"text"`
	DueDate  string `json:"dueDate,omitempty"`
	DueTime  string `json:"dueTime,omitempty"`
	Priority string `json:"priority,omitempty"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type SubtaskResponse struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TaskResponse struct {
	ID         int64             `json:"id"`
	Text       string            `json:"text"`
	Completed  bool              `json:"completed"`
	Starred    bool              `json:"starred"`
	Priority   string            `json:"priority"`
	DueDate    *time.Time        `json:"dueDate,omitempty"`
	DueTime    *time.Time        `json:"dueTime,omitempty"`
	DueInstant *time.Time        `json:"dueInstant,omitempty"`
	Subtasks   []SubtaskResponse `json:"subtasks"`
}

func FromTask(t task.Task) TaskResponse {
	res := TaskResponse{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Starred:   t.Starred,
		Priority:  string(t.Priority),
		DueDate:   t.DueDate,
		DueTime:   t.DueTime,
		Subtasks:  make([]SubtaskResponse, len(t.Subtasks)),
	}
	if due, ok := t.DueInstant(); ok {
		res.DueInstant = &due
	}
	for i, st := range t.Subtasks {
		res.Subtasks[i] = SubtaskResponse{Text: st.Text, Completed: st.Completed}
	}
	return res
}

func FromTaskList(tasks []task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type ReminderResponse struct {
	ID     string    `json:"id"`
	TaskID int64     `json:"taskId"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	FireAt time.Time `json:"fireAt"`
}

func FromPending(pending []reminder.Pending) []ReminderResponse {
	result := make([]ReminderResponse, len(pending))
	for i, p := range pending {
		result[i] = ReminderResponse{
			ID:     p.ID.String(),
			TaskID: p.Request.TaskID,
			Title:  p.Request.Title,
			Body:   p.Request.Body,
			FireAt: p.FireAt,
		}
	}
	return result
}
