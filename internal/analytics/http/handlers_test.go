package analytichttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/analytics"
	"github.com/estatedesk/estatedesk/internal/ar"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/snapshot"
)

type stubService struct {
	stats    ar.SummaryStats
	rows     []ar.InvoiceRow
	aging    ar.AgingReport
	buyers   []ar.BuyerSummary
	projects []ar.ProjectSummary
	err      error

	lastInvoiceQuery analytics.InvoiceQuery
	lastPaymentQuery analytics.PaymentQuery
	refreshed        int
}

func (s *stubService) InvoiceSummary(ctx context.Context, q analytics.InvoiceQuery) (ar.SummaryStats, error) {
	s.lastInvoiceQuery = q
	return s.stats, s.err
}

func (s *stubService) Invoices(ctx context.Context, q analytics.InvoiceQuery) ([]ar.InvoiceRow, error) {
	s.lastInvoiceQuery = q
	return s.rows, s.err
}

func (s *stubService) Invoice(ctx context.Context, id int64, includePending bool) (ar.InvoiceRow, error) {
	if s.err != nil {
		return ar.InvoiceRow{}, s.err
	}
	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return ar.InvoiceRow{}, fmt.Errorf("%w: %d", analytics.ErrInvoiceNotFound, id)
}

func (s *stubService) PaymentSummary(ctx context.Context, q analytics.PaymentQuery) (ar.PaymentSummary, error) {
	s.lastPaymentQuery = q
	return ar.PaymentSummary{}, s.err
}

func (s *stubService) Buyers(ctx context.Context, q analytics.BuyerQuery) ([]ar.BuyerSummary, error) {
	return s.buyers, s.err
}

func (s *stubService) BuyerSummary(ctx context.Context, buyerID int64) (ar.BuyerSummary, error) {
	for _, b := range s.buyers {
		if b.BuyerID == buyerID {
			return b, nil
		}
	}
	return ar.BuyerSummary{}, analytics.ErrBuyerNotFound
}

func (s *stubService) UnitSummary(ctx context.Context, q analytics.UnitQuery) (ar.UnitSummary, error) {
	return ar.UnitSummary{}, s.err
}

func (s *stubService) ProjectSummary(ctx context.Context) ([]ar.ProjectSummary, error) {
	return s.projects, s.err
}

func (s *stubService) Aging(ctx context.Context, q analytics.InvoiceQuery) (ar.AgingReport, error) {
	s.lastInvoiceQuery = q
	return s.aging, s.err
}

func (s *stubService) Refresh(ctx context.Context) (analytics.SnapshotInfo, error) {
	s.refreshed++
	return analytics.SnapshotInfo{ID: "snap-1", Source: "stub", LoadedAt: time.Unix(0, 0).UTC(), Changed: true}, s.err
}

func newRouter(svc *stubService) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func as(role, buyerID string) map[string]string {
	h := map[string]string{rbac.HeaderUserID: "u-" + role, rbac.HeaderRole: role}
	if buyerID != "" {
		h[rbac.HeaderBuyerID] = buyerID
	}
	return h
}

func do(t *testing.T, h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleRows() []ar.InvoiceRow {
	return []ar.InvoiceRow{
		{Invoice: ar.Invoice{ID: 1, InvoiceNumber: "INV-1", BuyerID: 7, TotalAmount: ar.NewAmount(1000)}, EffectiveStatus: ar.InvoicePending, BuyerName: "Ana"},
		{Invoice: ar.Invoice{ID: 2, InvoiceNumber: "INV-2", BuyerID: 8, TotalAmount: ar.NewAmount(2500)}, EffectiveStatus: ar.InvoiceOverdue, BuyerName: "Ben"},
	}
}

func TestInvoiceSummaryParsesFilters(t *testing.T) {
	svc := &stubService{stats: ar.SummaryStats{Total: 3, TotalAmount: 4500}}
	rr := do(t, newRouter(svc), http.MethodGet,
		"/api/dashboard/invoices/summary?q=ana&status=Overdue&project_id=4&from=2025-01-01&to=2025-01-31&include_pending=true",
		as("manager", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	var got ar.SummaryStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 3, got.Total)

	q := svc.lastInvoiceQuery
	require.Equal(t, "ana", q.Filter.Search)
	require.Equal(t, ar.InvoiceOverdue, q.Filter.Status)
	require.Equal(t, int64(4), q.Filter.ProjectID)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), q.Filter.From)
	require.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), q.Filter.To)
	require.True(t, q.IncludePending)
}

func TestInvoiceQueryValidation(t *testing.T) {
	router := newRouter(&stubService{})
	cases := []string{
		"/api/dashboard/invoices?status=bogus",
		"/api/dashboard/invoices?from=2025-13-01",
		"/api/dashboard/invoices?from=2025-02-01&to=2025-01-01",
		"/api/dashboard/invoices?buyer_id=abc",
		"/api/dashboard/invoices?sort=price",
		"/api/dashboard/invoices?order=sideways",
		"/api/dashboard/invoices?include_pending=maybe",
		"/api/dashboard/invoices?q=" + strings.Repeat("x", 101),
	}
	for _, target := range cases {
		rr := do(t, router, http.MethodGet, target, as("admin", ""))
		require.Equal(t, http.StatusBadRequest, rr.Code, target)
		require.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json", target)
	}
}

func TestInvoicesListWrapsRows(t *testing.T) {
	svc := &stubService{rows: sampleRows()}
	rr := do(t, newRouter(svc), http.MethodGet, "/api/dashboard/invoices?sort=amount&order=desc", as("cashier", ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data  []ar.InvoiceRow `json:"data"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	require.Equal(t, "INV-2", body.Data[1].InvoiceNumber)
	require.Equal(t, ar.SortByAmount, svc.lastInvoiceQuery.Sort)
	require.True(t, svc.lastInvoiceQuery.Desc)
}

func TestBuyerScopeIsForced(t *testing.T) {
	svc := &stubService{rows: sampleRows()}
	router := newRouter(svc)

	rr := do(t, router, http.MethodGet, "/api/dashboard/invoices?buyer_id=8", as("buyer", "7"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), svc.lastInvoiceQuery.Filter.BuyerID)

	rr = do(t, router, http.MethodGet, "/api/dashboard/payments/summary", as("buyer", "7"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), svc.lastPaymentQuery.Filter.BuyerID)

	rr = do(t, router, http.MethodGet, "/api/dashboard/invoices/1", as("buyer", "7"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/dashboard/invoices/2", as("buyer", "7"))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuyerSummaryAccess(t *testing.T) {
	svc := &stubService{buyers: []ar.BuyerSummary{{BuyerID: 7, Name: "Ana"}, {BuyerID: 8, Name: "Ben"}}}
	router := newRouter(svc)

	rr := do(t, router, http.MethodGet, "/api/dashboard/buyers/7/summary", as("buyer", "7"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/dashboard/buyers/8/summary", as("buyer", "7"))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/dashboard/buyers/8/summary", as("manager", ""))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/dashboard/buyers/99/summary", as("manager", ""))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/dashboard/buyers/0/summary", as("manager", ""))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRoutePermissions(t *testing.T) {
	router := newRouter(&stubService{})
	cases := []struct {
		role, buyer, method, target string
		want                        int
	}{
		{"cashier", "", http.MethodGet, "/api/dashboard/buyers", http.StatusForbidden},
		{"cashier", "", http.MethodGet, "/api/dashboard/aging", http.StatusOK},
		{"cashier", "", http.MethodGet, "/api/dashboard/units/summary", http.StatusForbidden},
		{"cashier", "", http.MethodPost, "/api/dashboard/refresh", http.StatusForbidden},
		{"buyer", "7", http.MethodGet, "/api/dashboard/aging", http.StatusForbidden},
		{"buyer", "7", http.MethodGet, "/api/dashboard/export.csv", http.StatusForbidden},
		{"manager", "", http.MethodGet, "/api/dashboard/projects/summary", http.StatusOK},
		{"admin", "", http.MethodPost, "/api/dashboard/refresh", http.StatusOK},
		{"", "", http.MethodGet, "/api/dashboard/invoices", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		headers := map[string]string{}
		if tc.role != "" {
			headers = as(tc.role, tc.buyer)
		}
		rr := do(t, router, tc.method, tc.target, headers)
		require.Equal(t, tc.want, rr.Code, "%s %s as %s", tc.method, tc.target, tc.role)
	}
}

func TestUpstreamFailureIsUnavailable(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("load: %w", snapshot.ErrUpstream)}
	rr := do(t, newRouter(svc), http.MethodGet, "/api/dashboard/invoices/summary", as("admin", ""))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "30", rr.Header().Get("Retry-After"))
}

func TestExportCSV(t *testing.T) {
	svc := &stubService{
		rows:  sampleRows(),
		stats: ar.SummaryStats{Total: 2, TotalAmount: 3500},
		aging: ar.AgingReport{Current: 1000, Bucket30: 2500, Total: 3500},
	}
	router := newRouter(svc)

	rr := do(t, router, http.MethodGet, "/api/dashboard/export.csv", as("cashier", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "dashboard-invoices-")
	require.Contains(t, rr.Body.String(), "INV-2")

	rr = do(t, router, http.MethodGet, "/api/dashboard/export.csv?report=aging", as("cashier", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "2500.00")

	rr = do(t, router, http.MethodGet, "/api/dashboard/export.csv?report=summary&locale=en", as("cashier", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "3,500.00")

	rr = do(t, router, http.MethodGet, "/api/dashboard/export.csv?report=ledger", as("cashier", ""))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefreshReportsSnapshot(t *testing.T) {
	svc := &stubService{}
	rr := do(t, newRouter(svc), http.MethodPost, "/api/dashboard/refresh", as("manager", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, svc.refreshed)

	var info analytics.SnapshotInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	require.Equal(t, "snap-1", info.ID)
	require.True(t, info.Changed)
}
