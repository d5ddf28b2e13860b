package inmemory

import (
	"context"
	"sync"

	"taskKeeper/internal/logger"
	repo "taskKeeper/internal/repository"
)

type DocumentStorage struct {
	storage map[string][]byte
	mtx     *sync.RWMutex
}

func NewDocumentStorage() *DocumentStorage {
	return &DocumentStorage{
		storage: make(map[string][]byte),
		mtx:     &sync.RWMutex{},
	}
}

func (s *DocumentStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: In-memory storage ready")
	return nil
}

func (s *DocumentStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	value, ok := s.storage[key]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *DocumentStorage) Put(ctx context.Context, key string, value []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage[key] = append([]byte(nil), value...)
	return nil
}

func (s *DocumentStorage) Delete(ctx context.Context, key string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.storage, key)
	return nil
}

func (s *DocumentStorage) Close() error {
	return nil
}
