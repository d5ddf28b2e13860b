// Package reminder decides when a task deserves a notification and hands
// the request to the host notification service.
package reminder

import (
	"context"
	"fmt"
	"time"

	"taskKeeper/internal/models/task"
)

const DefaultTitle = "Task Reminder"

// Request is what the host notification service receives.
type Request struct {
	TaskID int64         `json:"taskId"`
	Title  string        `json:"title"`
	Body   string        `json:"body"`
	Delay  time.Duration `json:"-"`
}

// DelaySeconds is the delay as the host service expects it, rounded up so a
// reminder never fires before the due instant.
func (r Request) DelaySeconds() int64 {
	secs := int64(r.Delay / time.Second)
	if r.Delay%time.Second > 0 {
		secs++
	}
	return secs
}

// Scheduler registers reminders. A returned error means the request was
// rejected; there is no acknowledgment beyond that.
type Scheduler interface {
	Schedule(ctx context.Context, req Request) error
}

type Reminder struct {
	TaskID int64
	Text   string
	FireAt time.Time
}

type Planner struct {
	title string
	now   func() time.Time
}

func NewPlanner(title string, now func() time.Time) *Planner {
	if title == "" {
		title = DefaultTitle
	}
	if now == nil {
		now = time.Now
	}
	return &Planner{title: title, now: now}
}

// Plan returns the reminder for t when its due instant is still ahead.
func (p *Planner) Plan(t task.Task) (Reminder, bool) {
	due, ok := t.DueInstant()
	if !ok || !due.After(p.now()) {
		return Reminder{}, false
	}
	return Reminder{TaskID: t.ID, Text: t.Text, FireAt: due}, true
}

// Schedule plans t and registers the result with s. It makes exactly one
// attempt; planned reports whether a registration was tried at all.
func (p *Planner) Schedule(ctx context.Context, s Scheduler, t task.Task) (planned bool, err error) {
	r, ok := p.Plan(t)
	if !ok {
		return false, nil
	}
	req := Request{
		TaskID: r.TaskID,
		Title:  p.title,
		Body:   r.Text,
		Delay:  r.FireAt.Sub(p.now()),
	}
	if err := s.Schedule(ctx, req); err != nil {
		return true, fmt.Errorf("register reminder for task %d: %w", t.ID, err)
	}
	return true, nil
}
