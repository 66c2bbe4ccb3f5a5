package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/analytics"
	"github.com/estatedesk/estatedesk/internal/observability"
	"github.com/estatedesk/estatedesk/jobs"
)

type fixedStatus struct {
	info analytics.SnapshotInfo
	ok   bool
}

func (f fixedStatus) Current() (analytics.SnapshotInfo, bool) { return f.info, f.ok }

func newTestRouter(status SnapshotStatus) http.Handler {
	return NewRouter(RouterParams{
		Config:     &Config{AppEnv: "test", AppRequestTimeout: time.Second},
		JobHandler: jobs.NewHandler(nil, nil),
		Snapshot:   status,
		Metrics:    observability.NewMetrics(),
	})
}

func TestHealthzReportsSnapshot(t *testing.T) {
	router := newTestRouter(fixedStatus{info: analytics.SnapshotInfo{ID: "abc", Source: "file"}, ok: true})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status   string                  `json:"status"`
		Snapshot *analytics.SnapshotInfo `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.NotNil(t, body.Snapshot)
	require.Equal(t, "abc", body.Snapshot.ID)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRouterServesJobsMetricsAndProblems(t *testing.T) {
	router := newTestRouter(fixedStatus{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "estatedesk_http_requests_total")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")
}
