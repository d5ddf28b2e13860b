package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskKeeper/internal/models/task"
	"taskKeeper/internal/persistence"
	"taskKeeper/internal/reminder"
	"taskKeeper/internal/repository"
	"taskKeeper/internal/repository/inmemory"
	"taskKeeper/internal/service"
	"taskKeeper/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func at(h, m int) time.Time {
	return time.Date(2026, 1, 1, h, m, 0, 0, time.UTC)
}

func daysFromNow(n int) time.Time {
	return time.Date(2026, 10, 16+n, 0, 0, 0, 0, time.UTC)
}

// MockScheduler - mock of the host notification service
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, req reminder.Request) error {
	return m.Called(ctx, req).Error(0)
}

type fixture struct {
	store   *service.TaskStore
	storage *inmemory.DocumentStorage
	adapter *persistence.Adapter
}

func newFixture(t *testing.T, options ...service.StoreOption) fixture {
	t.Helper()
	storage := inmemory.NewDocumentStorage()
	return openFixture(t, storage, options...)
}

func openFixture(t *testing.T, storage *inmemory.DocumentStorage, options ...service.StoreOption) fixture {
	t.Helper()
	adapter := persistence.NewAdapter(storage, "")
	writer := persistence.NewWriter(adapter, time.Second)
	options = append([]service.StoreOption{service.WithClock(fixedNow)}, options...)
	store := service.Open(context.Background(), adapter, writer, options...)
	t.Cleanup(func() { store.Close(context.Background()) })
	return fixture{store: store, storage: storage, adapter: adapter}
}

func (f fixture) persisted(t *testing.T) []task.Task {
	t.Helper()
	require.NoError(t, f.store.Flush(context.Background()))
	tasks, err := f.adapter.Load(context.Background())
	require.NoError(t, err)
	return tasks
}

func (f fixture) add(t *testing.T, text string, options ...task.Option) task.Task {
	t.Helper()
	if len(options) == 0 {
		options = []task.Option{task.WithDueDate(daysFromNow(1)), task.WithDueTime(at(9, 0))}
	}
	created, err := f.store.Add(context.Background(), text, options...)
	require.NoError(t, err)
	return created
}

func TestTaskStore_Add(t *testing.T) {
	f := newFixture(t)

	created := f.add(t, "  Buy milk  ")

	assert.Equal(t, now.UnixMilli(), created.ID)
	assert.Equal(t, "Buy milk", created.Text)
	assert.False(t, created.Completed)
	assert.False(t, created.Starred)
	assert.Equal(t, task.PriorityMedium, created.Priority)
	assert.NotNil(t, created.Subtasks)
	assert.Empty(t, created.Subtasks)
	due, ok := created.DueInstant()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), due)

	assert.Equal(t, []task.Task{created}, f.persisted(t))
}

func TestTaskStore_AddThenProjectDefault(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Existing", task.WithDueDate(daysFromNow(3)), task.WithDueTime(at(8, 0)))

	f.add(t, "Buy milk")

	matches := 0
	for _, got := range f.store.Project(view.SortCompleted, false) {
		if got.Text == "Buy milk" {
			matches++
			assert.False(t, got.Completed)
		}
	}
	assert.Equal(t, 1, matches)
}

func TestTaskStore_AddWithPriority(t *testing.T) {
	f := newFixture(t)

	created := f.add(t, "File taxes", task.WithPriority(task.PriorityHigh), task.WithDueDate(daysFromNow(2)), task.WithDueTime(at(10, 0)))

	assert.Equal(t, task.PriorityHigh, created.Priority)
}

func TestTaskStore_AddRejections(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		options []task.Option
		field   string
	}{
		{
			name:    "single character",
			text:    "x",
			options: []task.Option{task.WithDueDate(daysFromNow(1)), task.WithDueTime(at(9, 0))},
			field:   "text",
		},
		{
			name:    "digits only",
			text:    "2024",
			options: []task.Option{task.WithDueDate(daysFromNow(1)), task.WithDueTime(at(9, 0))},
			field:   "text",
		},
		{
			name:    "blank",
			text:    "   ",
			options: []task.Option{task.WithDueDate(daysFromNow(1)), task.WithDueTime(at(9, 0))},
			field:   "text",
		},
		{
			name:    "due yesterday",
			text:    "Meeting",
			options: []task.Option{task.WithDueDate(daysFromNow(-1)), task.WithDueTime(at(9, 0))},
			field:   "due",
		},
		{
			name:    "due earlier today",
			text:    "Meeting",
			options: []task.Option{task.WithDueDate(daysFromNow(0)), task.WithDueTime(at(11, 59))},
			field:   "due",
		},
		{
			name:  "no due date or time picked",
			text:  "Meeting",
			field: "due",
		},
		{
			name:    "unknown priority",
			text:    "Meeting",
			options: []task.Option{task.WithPriority("Urgent"), task.WithDueDate(daysFromNow(1))},
			field:   "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.store.Add(context.Background(), tt.text, tt.options...)

			require.Error(t, err)
			var busErr *service.BusinessError
			require.True(t, errors.As(err, &busErr))
			assert.Equal(t, service.CodeValidation, busErr.Code)
			assert.Equal(t, tt.field, busErr.Details["field"])
			assert.Empty(t, f.store.Tasks())
			assert.Empty(t, f.persisted(t))
		})
	}
}

func TestTaskStore_AddDefaultsMissingTimeToNow(t *testing.T) {
	f := newFixture(t)

	created := f.add(t, "Pick up kids", task.WithDueDate(daysFromNow(1)))

	require.NotNil(t, created.DueTime)
	assert.Equal(t, now, *created.DueTime)
	due, _ := created.DueInstant()
	assert.Equal(t, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC), due)
}

func TestTaskStore_IDsUniqueWithinSameMillisecond(t *testing.T) {
	f := newFixture(t)

	first := f.add(t, "First task")
	second := f.add(t, "Second task")
	f.store.Delete(second.ID)
	third := f.add(t, "Third task")

	assert.Equal(t, first.ID+1, second.ID)
	assert.Equal(t, second.ID+1, third.ID)
}

func TestTaskStore_Delete(t *testing.T) {
	f := newFixture(t)
	keep := f.add(t, "Keep me")
	drop := f.add(t, "Drop me")

	state := f.store.Delete(drop.ID)

	assert.Equal(t, []task.Task{keep}, state)
	assert.Equal(t, []task.Task{keep}, f.persisted(t))

	state = f.store.Delete(12345)
	assert.Equal(t, []task.Task{keep}, state)
}

func TestTaskStore_ToggleCompletedTwiceRestores(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Water plants")

	state := f.store.ToggleCompleted(created.ID)
	require.Len(t, state, 1)
	assert.True(t, state[0].Completed)
	assert.True(t, f.persisted(t)[0].Completed)

	state = f.store.ToggleCompleted(created.ID)
	assert.False(t, state[0].Completed)
	assert.Equal(t, []task.Task{created}, f.persisted(t))
}

func TestTaskStore_ToggleStarred(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Water plants")

	state := f.store.ToggleStarred(created.ID)

	assert.True(t, state[0].Starred)
	assert.False(t, state[0].Completed)
	assert.Equal(t, state, f.store.Project(view.SortCompleted, true))
}

func TestTaskStore_TogglesIgnoreUnknownID(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Water plants")

	assert.Equal(t, []task.Task{created}, f.store.ToggleCompleted(created.ID+100))
	assert.Equal(t, []task.Task{created}, f.store.ToggleStarred(created.ID+100))
	assert.Equal(t, []task.Task{created}, f.store.EditText(created.ID+100, "Other"))
	assert.Equal(t, []task.Task{created}, f.store.AddSubtask(created.ID+100, "Other"))
	assert.Equal(t, []task.Task{created}, f.store.ToggleSubtask(created.ID+100, 0))
}

func TestTaskStore_EditText(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Buy milk")

	state := f.store.EditText(created.ID, "  Buy oat milk ")
	assert.Equal(t, "Buy oat milk", state[0].Text)

	state = f.store.EditText(created.ID, "   ")
	assert.Equal(t, "Buy oat milk", state[0].Text)

	assert.Equal(t, "Buy oat milk", f.persisted(t)[0].Text)
}

func TestTaskStore_Subtasks(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Plan trip")

	f.store.AddSubtask(created.ID, "Book flights")
	f.store.AddSubtask(created.ID, "  ")
	state := f.store.AddSubtask(created.ID, "Book hotel")

	assert.Equal(t, []task.Subtask{{Text: "Book flights"}, {Text: "Book hotel"}}, state[0].Subtasks)

	state = f.store.ToggleSubtask(created.ID, 1)
	assert.Equal(t, []task.Subtask{{Text: "Book flights"}, {Text: "Book hotel", Completed: true}}, state[0].Subtasks)

	assert.Equal(t, state, f.store.ToggleSubtask(created.ID, 2))
	assert.Equal(t, state, f.store.ToggleSubtask(created.ID, -1))
	assert.Equal(t, state, f.persisted(t))
}

func TestTaskStore_ToggleSubtaskLeavesParent(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Plan trip")
	f.store.AddSubtask(created.ID, "Book flights")

	state := f.store.ToggleSubtask(created.ID, 0)

	assert.True(t, state[0].Subtasks[0].Completed)
	assert.False(t, state[0].Completed)
}

func TestTaskStore_SnapshotsAreIsolated(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Plan trip")
	state := f.store.AddSubtask(created.ID, "Book flights")

	state[0].Subtasks[0].Completed = true
	state[0].Text = "Hijacked"

	got, err := f.store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan trip", got.Text)
	assert.False(t, got.Subtasks[0].Completed)
}

func TestTaskStore_Get(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, "Plan trip")

	got, err := f.store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = f.store.Get(1)
	assert.True(t, service.IsCode(err, service.CodeNotFound))
}

func TestTaskStore_ProjectByDate(t *testing.T) {
	f := newFixture(t)
	later := f.add(t, "Dentist", task.WithDueDate(daysFromNow(2)), task.WithDueTime(at(9, 0)))
	sooner := f.add(t, "Buy milk", task.WithDueDate(daysFromNow(1)), task.WithDueTime(at(9, 0)))

	got := f.store.Project(view.SortDate, false)

	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
	assert.Equal(t, later.ID, f.store.Tasks()[0].ID, "projection must not reorder the store")
}

func TestTaskStore_ProjectByDateKeepsOrderWithinDay(t *testing.T) {
	f := newFixture(t)
	timeOnly := f.add(t, "Evening run", task.WithDueTime(at(18, 0)))
	datePicked := f.add(t, "Late call", task.WithDueDate(daysFromNow(0)), task.WithDueTime(at(20, 0)))

	got := f.store.Project(view.SortDate, false)

	require.Len(t, got, 2)
	assert.Equal(t, []int64{timeOnly.ID, datePicked.ID}, []int64{got[0].ID, got[1].ID})
}

func TestTaskStore_ClearAll(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Buy milk")
	f.add(t, "Call mom")

	state := f.store.ClearAll()

	assert.Empty(t, state)
	assert.Empty(t, f.store.Tasks())
	require.NoError(t, f.store.Flush(context.Background()))
	_, err := f.storage.Get(context.Background(), persistence.DefaultKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.persisted(t))
}

func TestTaskStore_ReloadsPersistedState(t *testing.T) {
	storage := inmemory.NewDocumentStorage()
	first := openFixture(t, storage)
	created := first.add(t, "Plan trip")
	first.store.AddSubtask(created.ID, "Book flights")
	first.store.ToggleStarred(created.ID)
	want := first.store.Tasks()
	require.NoError(t, first.store.Close(context.Background()))

	second := openFixture(t, storage)

	assert.Equal(t, want, second.store.Tasks())
	next := second.add(t, "Another one")
	assert.Greater(t, next.ID, created.ID)
}

func TestTaskStore_CorruptDocumentStartsEmpty(t *testing.T) {
	storage := inmemory.NewDocumentStorage()
	require.NoError(t, storage.Put(context.Background(), persistence.DefaultKey, []byte(`[{"id":"oops"`)))

	f := openFixture(t, storage)

	assert.Empty(t, f.store.Tasks())
	f.add(t, "Fresh start")
	assert.Len(t, f.persisted(t), 1)
}

func TestTaskStore_SchedulesReminderOnAdd(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Schedule", mock.Anything, reminder.Request{
		TaskID: now.UnixMilli(),
		Title:  reminder.DefaultTitle,
		Body:   "Buy milk",
		Delay:  21 * time.Hour,
	}).Return(nil).Once()
	f := newFixture(t, service.WithReminders(reminder.NewPlanner("", fixedNow), scheduler))

	f.add(t, "Buy milk")

	scheduler.AssertExpectations(t)
}

func TestTaskStore_ReminderFailureKeepsTask(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Schedule", mock.Anything, mock.Anything).Return(errors.New("notifications disabled")).Once()
	f := newFixture(t, service.WithReminders(reminder.NewPlanner("", fixedNow), scheduler))

	created := f.add(t, "Buy milk")

	assert.Equal(t, []task.Task{created}, f.store.Tasks())
	scheduler.AssertNumberOfCalls(t, "Schedule", 1)
}

func TestTaskStore_NoReminderForRejectedTask(t *testing.T) {
	scheduler := new(MockScheduler)
	f := newFixture(t, service.WithReminders(reminder.NewPlanner("", fixedNow), scheduler))

	_, err := f.store.Add(context.Background(), "x", task.WithDueDate(daysFromNow(1)), task.WithDueTime(at(9, 0)))

	require.Error(t, err)
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestTaskStore_EditDoesNotReschedule(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Schedule", mock.Anything, mock.Anything).Return(nil)
	f := newFixture(t, service.WithReminders(reminder.NewPlanner("", fixedNow), scheduler))
	created := f.add(t, "Buy milk")

	f.store.EditText(created.ID, "Buy bread")
	f.store.Delete(created.ID)

	scheduler.AssertNumberOfCalls(t, "Schedule", 1)
}

func TestTaskStore_FlushWithoutWrites(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.store.Flush(context.Background()))
}
