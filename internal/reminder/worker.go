package reminder

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"taskKeeper/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotInFuture = errors.New("reminder delay must be positive")
var ErrStopped = errors.New("reminder worker stopped")

// Pending is a registered reminder waiting for its fire time.
type Pending struct {
	ID      uuid.UUID `json:"id"`
	Request Request   `json:"request"`
	FireAt  time.Time `json:"fireAt"`
}

// Deliverer shows a fired reminder to the user.
type Deliverer func(ctx context.Context, p Pending) error

// Worker is an in-process notification service: it keeps registered
// reminders and delivers them from a ticker loop once they are due.
type Worker struct {
	interval time.Duration
	deliver  Deliverer
	now      func() time.Time

	mtx     sync.Mutex
	pending []Pending
	stopped bool
}

func NewWorker(interval *time.Duration, deliver Deliverer, now func() time.Time) *Worker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 30 * time.Second
	} else {
		intervalToSet = *interval
	}
	if deliver == nil {
		deliver = LogDeliverer
	}
	if now == nil {
		now = time.Now
	}
	return &Worker{
		interval: intervalToSet,
		deliver:  deliver,
		now:      now,
	}
}

func LogDeliverer(_ context.Context, p Pending) error {
	logger.Info("Reminder: Due",
		zap.String("reminder_id", p.ID.String()),
		zap.Int64("task_id", p.Request.TaskID),
		zap.String("title", p.Request.Title),
		zap.String("body", p.Request.Body),
	)
	return nil
}

func (w *Worker) Schedule(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Delay <= 0 {
		return ErrNotInFuture
	}

	w.mtx.Lock()
	defer w.mtx.Unlock()

	if w.stopped {
		return ErrStopped
	}
	p := Pending{
		ID:      uuid.New(),
		Request: req,
		FireAt:  w.now().Add(req.Delay),
	}
	w.pending = append(w.pending, p)
	slices.SortStableFunc(w.pending, func(a, b Pending) int {
		return a.FireAt.Compare(b.FireAt)
	})

	logger.Info("Reminder: Registered",
		zap.String("reminder_id", p.ID.String()),
		zap.Int64("task_id", req.TaskID),
		zap.Int64("delay_seconds", req.DelaySeconds()),
	)
	return nil
}

// Pending lists registered reminders ordered by fire time.
func (w *Worker) Pending() []Pending {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	res := make([]Pending, len(w.pending))
	copy(res, w.pending)
	return res
}

func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			w.mtx.Lock()
			w.stopped = true
			left := len(w.pending)
			w.mtx.Unlock()
			logger.Info("Reminder: Worker stopped", zap.Int("undelivered", left))
			return
		}
	}
}

// Check delivers every reminder whose fire time has passed. Each reminder is
// delivered at most once; delivery errors are logged and dropped.
func (w *Worker) Check(ctx context.Context) int {
	now := w.now()

	w.mtx.Lock()
	n := 0
	for n < len(w.pending) && !w.pending[n].FireAt.After(now) {
		n++
	}
	due := make([]Pending, n)
	copy(due, w.pending[:n])
	w.pending = w.pending[n:]
	w.mtx.Unlock()

	for _, p := range due {
		if err := w.deliver(ctx, p); err != nil {
			logger.Warn("Reminder: Delivery failed",
				zap.String("reminder_id", p.ID.String()),
				zap.Int64("task_id", p.Request.TaskID),
				zap.Error(err),
			)
		}
	}
	return len(due)
}
