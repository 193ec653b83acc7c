package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"certer/internal/metrics"
)

// TempArtifacts is the part of the artifacts directory the sweep needs.
type TempArtifacts interface {
	StaleTemporaryFiles(cutoff time.Time) ([]string, error)
	Remove(name string) error
}

// TempSweepJob removes <name>.crt.tmp files left behind by enrollments
// that died between writing the CA response and renaming it.
type TempSweepJob struct {
	artifacts TempArtifacts
	interval  time.Duration
	maxAge    time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewTempSweepJob(artifacts TempArtifacts, interval, maxAge time.Duration, logger *slog.Logger) *TempSweepJob {
	return &TempSweepJob{
		artifacts: artifacts,
		interval:  interval,
		maxAge:    maxAge,
		logger:    logger,
		now:       time.Now,
	}
}

func (j *TempSweepJob) Name() string {
	return "temp_sweep"
}

func (j *TempSweepJob) Interval() time.Duration {
	return j.interval
}

func (j *TempSweepJob) Run(ctx context.Context) error {
	if j.interval <= 0 {
		j.logger.Error("temp sweep job failed: ticker interval must not be zero")
		return fmt.Errorf("non-positive ticker interval: %s", j.interval)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweepAndRecord()

	for {
		select {
		case <-ctx.Done():
			j.logger.Debug("Temp sweep canceled")
			return ctx.Err()
		case <-ticker.C:
			j.sweepAndRecord()
		}
	}
}

func (j *TempSweepJob) sweepAndRecord() {
	removed, err := j.Sweep()
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(j.Name(), "error").Inc()
		j.logger.Error(fmt.Sprintf("temp sweep failed, trying again in %s", j.interval.String()), "error", err)
		return
	}
	metrics.JobRunsTotal.WithLabelValues(j.Name(), "ok").Inc()
	if removed > 0 {
		j.logger.Info("removed stale temporary certificate files", "count", removed)
	}
}

// Sweep runs one pass and returns the number of files removed. A file that
// cannot be removed is logged and skipped.
func (j *TempSweepJob) Sweep() (int, error) {
	stale, err := j.artifacts.StaleTemporaryFiles(j.now().Add(-j.maxAge))
	if err != nil {
		return 0, fmt.Errorf("listing temporary files: %w", err)
	}

	removed := 0
	for _, name := range stale {
		if err := j.artifacts.Remove(name); err != nil {
			j.logger.Warn("failed to remove stale temporary file", "file", name, "error", err)
			continue
		}
		j.logger.Debug("removed stale temporary file", "file", name)
		metrics.TempFilesRemovedTotal.Inc()
		removed++
	}
	return removed, nil
}
