package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"taskKeeper/internal/logger"
	"taskKeeper/internal/models/task"
	"taskKeeper/internal/persistence"
	"taskKeeper/internal/reminder"
	"taskKeeper/internal/validation"
	"taskKeeper/internal/view"

	"go.uber.org/zap"
)

// TaskStore owns the task collection. It is the only writer: every
// successful mutation swaps in an updated copy of the affected task and
// queues a full rewrite of the persisted document. Writes are not awaited;
// the writer logs failures and Flush exposes the latest outcome.
type TaskStore struct {
	mtx    sync.RWMutex
	tasks  []task.Task
	lastID int64
	lastOp *persistence.Op

	now       func() time.Time
	writer    *persistence.Writer
	planner   *reminder.Planner
	scheduler reminder.Scheduler
}

type StoreOption func(*TaskStore)

func WithClock(now func() time.Time) StoreOption {
	return func(s *TaskStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReminders enables reminder planning for created tasks.
func WithReminders(planner *reminder.Planner, scheduler reminder.Scheduler) StoreOption {
	return func(s *TaskStore) {
		s.planner = planner
		s.scheduler = scheduler
	}
}

// Open loads the persisted collection once. An unreadable or corrupt
// document is logged and the store starts empty.
func Open(ctx context.Context, adapter *persistence.Adapter, writer *persistence.Writer, options ...StoreOption) *TaskStore {
	s := &TaskStore{
		now:    time.Now,
		writer: writer,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	tasks, err := adapter.Load(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrCorruptDocument) {
			logger.Error("Store: Stored tasks are corrupt, starting empty", err)
		} else {
			logger.Error("Store: Could not load tasks, starting empty", err)
		}
		tasks = []task.Task{}
	}

	s.tasks = tasks
	for _, t := range tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	logger.Info("Store: Tasks loaded", zap.Int("count", len(tasks)))
	return s
}

// Add validates and appends a new task. Missing due date or time default to
// the current instant; the combined due instant must be in the future.
func (s *TaskStore) Add(ctx context.Context, text string, options ...task.Option) (task.Task, error) {
	if !validation.IsValidTask(text) {
		logger.Info("Store: Task text rejected", zap.String("text", text))
		return task.Task{}, NewValidationError("text", "text must have more than one character and contain a letter")
	}

	now := s.now()
	candidate := task.Task{
		Text:     strings.TrimSpace(text),
		Priority: task.PriorityMedium,
		Subtasks: []task.Subtask{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(&candidate)
		}
	}

	if candidate.Priority.Rank() == 0 {
		return task.Task{}, NewValidationError("priority", "must be Low, Medium or High")
	}
	current := now.Round(0)
	if candidate.DueDate == nil {
		d := current
		candidate.DueDate = &d
	}
	if candidate.DueTime == nil {
		c := current
		candidate.DueTime = &c
	}
	if !validation.IsFutureDateTime(*candidate.DueDate, *candidate.DueTime, now) {
		logger.Info("Store: Due date rejected", zap.Time("due", task.CombineDateTime(*candidate.DueDate, *candidate.DueTime)))
		return task.Task{}, NewValidationError("due", "due date and time must be in the future")
	}

	s.mtx.Lock()
	candidate.ID = s.nextID(now)
	s.tasks = append(s.tasks, candidate)
	s.persistLocked()
	s.mtx.Unlock()

	logger.Info("Store: Task added", zap.Int64("task_id", candidate.ID))
	s.planReminder(ctx, candidate)
	return candidate.Clone(), nil
}

// nextID derives the id from the creation time, bumping it when two tasks
// land on the same millisecond.
func (s *TaskStore) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *TaskStore) planReminder(ctx context.Context, t task.Task) {
	if s.planner == nil || s.scheduler == nil {
		return
	}
	planned, err := s.planner.Schedule(ctx, s.scheduler, t)
	if err != nil {
		logger.Warn("Store: Reminder not registered", zap.Int64("task_id", t.ID), zap.Error(err))
		return
	}
	if !planned {
		logger.Info("Store: No reminder needed", zap.Int64("task_id", t.ID))
	}
}

// Delete removes the task with id; absent ids are ignored.
func (s *TaskStore) Delete(id int64) []task.Task {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return s.snapshotLocked()
	}
	next := make([]task.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)
	s.tasks = next
	s.persistLocked()
	return s.snapshotLocked()
}

func (s *TaskStore) ToggleCompleted(id int64) []task.Task {
	return s.update(id, func(t *task.Task) bool {
		t.Completed = !t.Completed
		return true
	})
}

func (s *TaskStore) ToggleStarred(id int64) []task.Task {
	return s.update(id, func(t *task.Task) bool {
		t.Starred = !t.Starred
		return true
	})
}

// EditText replaces the text unless the new value is blank.
func (s *TaskStore) EditText(id int64, newText string) []task.Task {
	trimmed := strings.TrimSpace(newText)
	return s.update(id, func(t *task.Task) bool {
		if !validation.IsNonBlank(trimmed) {
			return false
		}
		t.Text = trimmed
		return true
	})
}

func (s *TaskStore) AddSubtask(id int64, text string) []task.Task {
	trimmed := strings.TrimSpace(text)
	return s.update(id, func(t *task.Task) bool {
		if !validation.IsNonBlank(trimmed) {
			return false
		}
		t.Subtasks = append(t.Subtasks, task.Subtask{Text: trimmed})
		return true
	})
}

// ToggleSubtask flips the subtask at index; the parent's own flag is untouched.
func (s *TaskStore) ToggleSubtask(id int64, index int) []task.Task {
	return s.update(id, func(t *task.Task) bool {
		if index < 0 || index >= len(t.Subtasks) {
			return false
		}
		t.Subtasks[index].Completed = !t.Subtasks[index].Completed
		return true
	})
}

// ClearAll empties the store and erases the persisted document.
func (s *TaskStore) ClearAll() []task.Task {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.tasks = []task.Task{}
	s.lastOp = s.writer.SubmitClear()
	logger.Info("Store: All tasks cleared")
	return s.snapshotLocked()
}

// update applies fn to a copy of the task with id and swaps the copy in when
// fn reports a change.
func (s *TaskStore) update(id int64, fn func(*task.Task) bool) []task.Task {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return s.snapshotLocked()
	}
	updated := s.tasks[idx].Clone()
	if !fn(&updated) {
		return s.snapshotLocked()
	}

	next := make([]task.Task, len(s.tasks))
	copy(next, s.tasks)
	next[idx] = updated
	s.tasks = next
	s.persistLocked()
	return s.snapshotLocked()
}

func (s *TaskStore) indexLocked(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) snapshotLocked() []task.Task {
	return task.CloneAll(s.tasks)
}

func (s *TaskStore) persistLocked() {
	s.lastOp = s.writer.SubmitSave(s.snapshotLocked())
}

// Tasks returns every task in insertion order.
func (s *TaskStore) Tasks() []task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.snapshotLocked()
}

func (s *TaskStore) Get(id int64) (task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return task.Task{}, NewNotFound("task", id)
	}
	return s.tasks[idx].Clone(), nil
}

func (s *TaskStore) Project(sortOption view.SortOption, showStarredOnly bool) []task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return view.Project(s.tasks, sortOption, showStarredOnly)
}

// Flush waits for the most recent write to finish and returns its outcome.
func (s *TaskStore) Flush(ctx context.Context) error {
	s.mtx.RLock()
	op := s.lastOp
	s.mtx.RUnlock()

	if op == nil {
		return nil
	}
	return op.Wait(ctx)
}

// Close drains pending writes; the store must not be mutated afterwards.
func (s *TaskStore) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}
