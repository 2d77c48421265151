package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubdesk/clubdesk/internal/authz"
)

// TaskSettingsWarmup re-primes the approval settings cache so the first
// authorization check after a Redis flush does not pay the database round trip.
const TaskSettingsWarmup = "authz:settings_warmup"

// NewSettingsWarmupTask constructs the warmup task. The payload is empty; the
// job always refreshes every module.
func NewSettingsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskSettingsWarmup, nil)
}

// SettingsWarmupJob refreshes cached approval settings for all modules.
type SettingsWarmupJob struct {
	Cache  *authz.SettingsCache
	Logger *slog.Logger
}

// NewSettingsWarmupJob wires dependencies for the warmup handler.
func NewSettingsWarmupJob(cache *authz.SettingsCache, logger *slog.Logger) *SettingsWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsWarmupJob{Cache: cache, Logger: logger}
}

// Handle processes settings warmup tasks.
func (j *SettingsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("settings warmup: handler not configured")
	}
	start := time.Now()
	if err := j.Cache.WarmUp(ctx); err != nil {
		j.Logger.Error("settings warmup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("settings warmup complete", slog.Duration("took", time.Since(start)))
	return nil
}
