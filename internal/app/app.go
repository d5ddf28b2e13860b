package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskKeeper/internal/config"
	"taskKeeper/internal/handlers"
	"taskKeeper/internal/logger"
	"taskKeeper/internal/middleware"
	"taskKeeper/internal/persistence"
	"taskKeeper/internal/reminder"
	"taskKeeper/internal/repository"
	"taskKeeper/internal/repository/file"
	"taskKeeper/internal/repository/inmemory"
	"taskKeeper/internal/repository/postgres"
	"taskKeeper/internal/repository/sqlite"
	"taskKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	storage   repository.DocumentStore
	store     *service.TaskStore
	reminders *reminder.Worker
	shutdowns []func(context.Context) // run in reverse order
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(context.Context), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func(context.Context) {
		logger.Info("App: Flushing logs")
		logger.Sync()
	})

	storage, err := openStorage(ctx, a.config)
	if err != nil {
		a.shutdown(ctx)
		return nil, fmt.Errorf("open %s storage: %w", a.config.Repository.Type, err)
	}
	a.storage = storage
	a.shutdowns = append(a.shutdowns, func(context.Context) {
		if err := storage.Close(); err != nil {
			logger.Error("App: Storage close failed", err)
		}
	})

	adapter := persistence.NewAdapter(storage, a.config.Repository.Key)
	writer := persistence.NewWriter(adapter, a.config.Database.WriteTimeout)

	a.reminders = reminder.NewWorker(&a.config.Reminders.Interval, reminder.LogDeliverer, time.Now)
	planner := reminder.NewPlanner(a.config.Reminders.Title, time.Now)

	a.store = service.Open(ctx, adapter, writer, service.WithReminders(planner, a.reminders))
	a.shutdowns = append(a.shutdowns, func(ctx context.Context) {
		if err := a.store.Close(ctx); err != nil {
			logger.Error("App: Pending writes lost", err)
		}
	})

	taskHandler := handlers.NewTaskHandler(a.store, a.reminders, adapter)

	a.router = chi.NewRouter()
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recover)
	a.router.Use(middleware.Logging)
	a.router.Use(middleware.RateLimit(a.config.Server.RateLimit))
	taskHandler.Routes(a.router)

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("App: Initialized",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves until ctx is cancelled or the listener fails, then shuts
// everything down: server, reminder worker, pending writes, storage, logs.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.reminders.Start(workerCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("App: Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("App: Shutdown requested")
	case err := <-serveErr:
		runErr = err
		logger.Error("App: Server failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Server shutdown failed", err)
	}
	stopWorker()
	<-workerDone

	a.shutdown(shutdownCtx)
	return runErr
}

func (a *App) shutdown(ctx context.Context) {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i](ctx)
	}
	a.shutdowns = a.shutdowns[:0]
}

func openStorage(ctx context.Context, cfg *config.Config) (repository.DocumentStore, error) {
	repo := cfg.Repository
	switch repo.Type {
	case config.RepoInMemory:
		return inmemory.NewDocumentStorage(), nil
	case config.RepoFile:
		return file.New(repo.Path)
	case config.RepoSQLite:
		return sqlite.Open(ctx, repo.Path)
	case config.RepoPostgres:
		if err := postgres.Migrate(repo.URL); err != nil {
			return nil, err
		}
		return postgres.New(ctx, repo.URL, postgres.PoolConfig{
			MaxConns:        cfg.Database.MaxConnections,
			MinConns:        cfg.Database.MinConnections,
			MaxConnIdleTime: cfg.Database.IdleTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown repository type %q", repo.Type)
	}
}
