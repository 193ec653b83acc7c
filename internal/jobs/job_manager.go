package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is a long running background loop. Run returns when ctx is canceled.
type Job interface {
	Name() string
	Run(ctx context.Context) error
	Interval() time.Duration
}

// JobManager owns the lifecycle of every registered background job.
type JobManager struct {
	jobs        []Job
	logger      *slog.Logger
	wg          sync.WaitGroup
	cancelFuncs map[string]context.CancelFunc
	mu          sync.Mutex
}

func NewJobManager(logger *slog.Logger) *JobManager {
	return &JobManager{
		jobs:        make([]Job, 0),
		logger:      logger,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func (jm *JobManager) Register(job Job) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs = append(jm.jobs, job)
}

// Start launches every registered job that is not already running.
func (jm *JobManager) Start(ctx context.Context) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for _, job := range jm.jobs {
		if _, running := jm.cancelFuncs[job.Name()]; running {
			continue
		}
		jm.launch(ctx, job)
	}
}

// launch must be called with mu held.
func (jm *JobManager) launch(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithCancel(ctx)
	jm.cancelFuncs[job.Name()] = cancel

	logger := jm.logger.With("job", job.Name())

	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		logger.Info("job started", "interval", job.Interval())
		err := job.Run(jobCtx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			logger.Debug("job stopped")
		default:
			logger.Error("job failed", "error", err)
		}
	}()
}

// Running reports whether the named job has been started and not stopped.
func (jm *JobManager) Running(name string) bool {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	_, ok := jm.cancelFuncs[name]
	return ok
}

// Shutdown cancels every job and waits for them until ctx expires.
func (jm *JobManager) Shutdown(ctx context.Context) {
	jm.logger.Debug("shutting down job manager")
	jm.stopAll()

	done := make(chan struct{})
	go func() {
		jm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		jm.logger.Debug("all jobs stopped")
	case <-ctx.Done():
		jm.logger.Warn("jobs did not stop before the shutdown deadline")
	}
}

func (jm *JobManager) stopAll() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for name, cancel := range jm.cancelFuncs {
		cancel()
		delete(jm.cancelFuncs, name)
	}
}
