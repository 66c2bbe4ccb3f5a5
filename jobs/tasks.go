package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup reloads the snapshot and precomputes dashboard reports.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskSnapshotRefresh reloads the snapshot without warming reports.
	TaskSnapshotRefresh = "snapshot:refresh"
)

// DashboardPayload describes why a dashboard task was enqueued.
type DashboardPayload struct {
	Reason string `json:"reason"`
}

// NewDashboardWarmupTask constructs a warmup task.
func NewDashboardWarmupTask(reason string) (*asynq.Task, error) {
	return newDashboardTask(TaskDashboardWarmup, reason)
}

// NewSnapshotRefreshTask constructs a refresh-only task.
func NewSnapshotRefreshTask(reason string) (*asynq.Task, error) {
	return newDashboardTask(TaskSnapshotRefresh, reason)
}

func newDashboardTask(taskType, reason string) (*asynq.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual"
	}
	data, err := json.Marshal(DashboardPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}
