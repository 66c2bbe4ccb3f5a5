package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/estatedesk/estatedesk/internal/analytics"
	jobmetrics "github.com/estatedesk/estatedesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 2 * time.Minute

// Dashboard is the slice of analytics.Service the dashboard jobs drive.
type Dashboard interface {
	Refresh(ctx context.Context) (analytics.SnapshotInfo, error)
	Warmup(ctx context.Context) (analytics.SnapshotInfo, error)
}

// DashboardWarmupJob keeps the snapshot fresh and the summary cache primed.
type DashboardWarmupJob struct {
	Dashboard Dashboard
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handlers.
func NewDashboardWarmupJob(dashboard Dashboard, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: dashboard,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	return j.run(ctx, t, TaskDashboardWarmup, j.Dashboard.Warmup)
}

// HandleRefresh processes TaskSnapshotRefresh tasks.
func (j *DashboardWarmupJob) HandleRefresh(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("snapshot refresh: handler not configured")
	}
	return j.run(ctx, t, TaskSnapshotRefresh, j.Dashboard.Refresh)
}

func (j *DashboardWarmupJob) run(ctx context.Context, t *asynq.Task, job string, fn func(context.Context) (analytics.SnapshotInfo, error)) error {
	var payload DashboardPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	tracker := j.metrics().Track(job)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(job).With(slog.String("reason", payload.Reason))
	started := j.now()
	logger.Info("starting dashboard job")

	runCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	info, err := fn(runCtx)
	if err != nil {
		resultErr = err
		logger.Error("dashboard job failed", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed dashboard job",
		slog.String("snapshot_id", info.ID),
		slog.Bool("changed", info.Changed),
		slog.Duration("duration", j.now().Sub(started)),
	)
	return resultErr
}

func (j *DashboardWarmupJob) logger(job string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
