package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskKeeper/internal/logger"
	"taskKeeper/internal/models/task"

	"go.uber.org/zap"
)

var ErrWriterClosed = errors.New("persistence writer closed")

// Op is the outcome of one submitted write.
type Op struct {
	done chan struct{}
	err  error
}

func newOp() *Op {
	return &Op{done: make(chan struct{})}
}

func (o *Op) finish(err error) {
	o.err = err
	close(o.done)
}

func (o *Op) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the write finished or ctx is done.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type job struct {
	tasks []task.Task
	clear bool
	op    *Op
}

// Writer applies writes on a single goroutine in submission order. Jobs
// that queue up behind a running write collapse into the newest one, since
// every job replaces the whole document anyway.
type Writer struct {
	adapter *Adapter
	timeout time.Duration

	mtx    sync.Mutex
	queue  []job
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func NewWriter(adapter *Adapter, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &Writer{
		adapter: adapter,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// SubmitSave queues a full overwrite with tasks. The slice must not be
// modified afterwards.
func (w *Writer) SubmitSave(tasks []task.Task) *Op {
	return w.submit(job{tasks: tasks})
}

// SubmitClear queues removal of the stored document.
func (w *Writer) SubmitClear() *Op {
	return w.submit(job{clear: true})
}

func (w *Writer) submit(j job) *Op {
	j.op = newOp()

	w.mtx.Lock()
	if w.closed {
		w.mtx.Unlock()
		logger.Warn("Persistence: Write dropped, writer closed",
			zap.Bool("clear", j.clear),
			zap.Int("tasks", len(j.tasks)),
		)
		j.op.finish(ErrWriterClosed)
		return j.op
	}
	w.queue = append(w.queue, j)
	w.mtx.Unlock()

	w.signal()
	return j.op
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting writes and waits until queued ones are applied.
func (w *Writer) Close(ctx context.Context) error {
	w.mtx.Lock()
	w.closed = true
	w.mtx.Unlock()
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)

	for {
		w.mtx.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.mtx.Unlock()
			<-w.wake
			w.mtx.Lock()
		}
		if len(w.queue) == 0 {
			w.mtx.Unlock()
			return
		}
		batch := w.queue
		w.queue = nil
		w.mtx.Unlock()

		err := w.apply(batch[len(batch)-1])
		for _, j := range batch {
			j.op.finish(err)
		}
	}
}

func (w *Writer) apply(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	var err error
	if j.clear {
		err = w.adapter.Clear(ctx)
	} else {
		err = w.adapter.Save(ctx, j.tasks)
	}
	if err != nil {
		logger.Error("Persistence: Write failed, in-memory state stays authoritative", err,
			zap.Bool("clear", j.clear),
			zap.Int("tasks", len(j.tasks)),
		)
		return err
	}

	logger.Log(zap.DebugLevel, "Persistence: Written",
		zap.Bool("clear", j.clear),
		zap.Int("tasks", len(j.tasks)),
		zap.Duration("ms", time.Since(start)),
	)
	return nil
}
