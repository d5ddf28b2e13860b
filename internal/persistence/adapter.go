// Package persistence stores the whole task collection as one JSON document.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taskKeeper/internal/models/task"
	"taskKeeper/internal/repository"
)

const DefaultKey = "tasks"

var ErrCorruptDocument = errors.New("stored task document is corrupt")

type Adapter struct {
	store repository.DocumentStore
	key   string
}

func NewAdapter(store repository.DocumentStore, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{store: store, key: key}
}

func (a *Adapter) Key() string {
	return a.key
}

// Save overwrites the stored document with tasks.
func (a *Adapter) Save(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := a.store.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Load returns an empty collection when nothing is stored and
// ErrCorruptDocument when the stored value cannot be decoded.
func (a *Adapter) Load(ctx context.Context) ([]task.Task, error) {
	data, err := a.store.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []task.Task{}, nil
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// Clear removes the stored document.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.store.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) error {
	return a.store.HealthCheck(ctx)
}
