package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/analytics"
	jobmetrics "github.com/estatedesk/estatedesk/internal/jobs"
)

type fakeDashboard struct {
	warmups   int
	refreshes int
	err       error
}

func (f *fakeDashboard) Warmup(ctx context.Context) (analytics.SnapshotInfo, error) {
	f.warmups++
	return analytics.SnapshotInfo{ID: "snap", Changed: true}, f.err
}

func (f *fakeDashboard) Refresh(ctx context.Context) (analytics.SnapshotInfo, error) {
	f.refreshes++
	return analytics.SnapshotInfo{ID: "snap"}, f.err
}

func newTestJob(d Dashboard) (*DashboardWarmupJob, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	job := NewDashboardWarmupJob(d, nil, jobmetrics.NewMetrics(reg))
	job.clock = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return job, reg
}

func TestNewDashboardTasks(t *testing.T) {
	task, err := NewDashboardWarmupTask("  ")
	require.NoError(t, err)
	require.Equal(t, TaskDashboardWarmup, task.Type())

	var payload DashboardPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "manual", payload.Reason)

	task, err = NewSnapshotRefreshTask("cron")
	require.NoError(t, err)
	require.Equal(t, TaskSnapshotRefresh, task.Type())
}

func TestDashboardWarmupJobRuns(t *testing.T) {
	dash := &fakeDashboard{}
	job, reg := newTestJob(dash)

	task, err := NewDashboardWarmupTask("test")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, dash.warmups)
	require.Zero(t, dash.refreshes)

	require.NoError(t, job.HandleRefresh(context.Background(), asynq.NewTask(TaskSnapshotRefresh, nil)))
	require.Equal(t, 1, dash.refreshes)

	n, err := testutil.GatherAndCount(reg, "estatedesk_jobs_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestDashboardWarmupJobFailure(t *testing.T) {
	dash := &fakeDashboard{err: errors.New("upstream down")}
	job, _ := newTestJob(dash)

	task, err := NewDashboardWarmupTask("test")
	require.NoError(t, err)
	require.ErrorContains(t, job.Handle(context.Background(), task), "upstream down")
}

func TestDashboardWarmupJobRejectsBadPayload(t *testing.T) {
	job, _ := newTestJob(&fakeDashboard{})
	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDashboardWarmupJobNotConfigured(t *testing.T) {
	var job *DashboardWarmupJob
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		body      string
	}{
		{name: "no inspector", status: http.StatusOK, body: `{"queue":"default","pending":0,"active":0,"failed":0}`},
		{name: "queue info", inspector: stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Active: 1}}, status: http.StatusOK, body: `{"queue":"default","pending":3,"active":1,"failed":0}`},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.status, rr.Code)
			if tc.body != "" {
				require.JSONEq(t, tc.body, rr.Body.String())
			}
		})
	}
}
