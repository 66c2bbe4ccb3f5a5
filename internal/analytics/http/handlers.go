package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estatedesk/estatedesk/internal/analytics"
	"github.com/estatedesk/estatedesk/internal/analytics/export"
	"github.com/estatedesk/estatedesk/internal/ar"
	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/snapshot"
)

const requestTimeout = 10 * time.Second

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	InvoiceSummary(ctx context.Context, q analytics.InvoiceQuery) (ar.SummaryStats, error)
	Invoices(ctx context.Context, q analytics.InvoiceQuery) ([]ar.InvoiceRow, error)
	Invoice(ctx context.Context, id int64, includePending bool) (ar.InvoiceRow, error)
	PaymentSummary(ctx context.Context, q analytics.PaymentQuery) (ar.PaymentSummary, error)
	Buyers(ctx context.Context, q analytics.BuyerQuery) ([]ar.BuyerSummary, error)
	BuyerSummary(ctx context.Context, buyerID int64) (ar.BuyerSummary, error)
	UnitSummary(ctx context.Context, q analytics.UnitQuery) (ar.UnitSummary, error)
	ProjectSummary(ctx context.Context) ([]ar.ProjectSummary, error)
	Aging(ctx context.Context, q analytics.InvoiceQuery) (ar.AgingReport, error)
	Refresh(ctx context.Context) (analytics.SnapshotInfo, error)
}

// Handler coordinates HTTP requests for the sales dashboard.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
	rbac    rbac.Middleware
	csvPool sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:  logger,
		service: service,
		rbac:    rbac.Middleware{Logger: logger},
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleInvoiceSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := h.invoiceQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.InvoiceSummary(ctx, q)
	if err != nil {
		h.respondError(w, "invoice summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleInvoices(w http.ResponseWriter, r *http.Request) {
	q, ok := h.invoiceQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.service.Invoices(ctx, q)
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NewList(rows))
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	includePending, err := parseBool(r.URL.Query().Get("include_pending"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("include_pending: %w", httpx.ErrValidation))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	row, err := h.service.Invoice(ctx, id, includePending)
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	// Buyers only see their own invoices; others are reported as missing.
	if buyerID, scoped := principal(r).BuyerScope(); scoped && row.BuyerID != buyerID {
		h.respondError(w, "get invoice", fmt.Errorf("%w: %d", analytics.ErrInvoiceNotFound, id))
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) handlePaymentSummary(w http.ResponseWriter, r *http.Request) {
	params, err := parsePaymentParams(r)
	if err == nil {
		err = validate.Struct(params)
	}
	if err != nil {
		h.respondValidation(w, err)
		return
	}
	q := analytics.PaymentQuery{Filter: params.filter()}
	if buyerID, scoped := principal(r).BuyerScope(); scoped {
		q.Filter.BuyerID = buyerID
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.PaymentSummary(ctx, q)
	if err != nil {
		h.respondError(w, "payment summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleBuyers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	if err := validate.Var(search, "max=100"); err != nil {
		h.respondValidation(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buyers, err := h.service.Buyers(ctx, analytics.BuyerQuery{Filter: ar.BuyerFilter{Search: search}})
	if err != nil {
		h.respondError(w, "list buyers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NewList(buyers))
}

func (h *Handler) handleBuyerSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if buyerID, scoped := principal(r).BuyerScope(); scoped && buyerID != id {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.BuyerSummary(ctx, id)
	if err != nil {
		h.respondError(w, "buyer summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleUnitSummary(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r.URL.Query().Get("project_id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("project_id: %w", httpx.ErrValidation))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.UnitSummary(ctx, analytics.UnitQuery{ProjectID: projectID})
	if err != nil {
		h.respondError(w, "unit summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleProjectSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	projects, err := h.service.ProjectSummary(ctx)
	if err != nil {
		h.respondError(w, "project summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NewList(projects))
}

func (h *Handler) handleAging(w http.ResponseWriter, r *http.Request) {
	q, ok := h.invoiceQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.Aging(ctx, q)
	if err != nil {
		h.respondError(w, "aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	info, err := h.service.Refresh(ctx)
	if err != nil {
		h.respondError(w, "refresh snapshot", err)
		return
	}
	h.logger.Info("snapshot refreshed",
		slog.String("user_id", principal(r).UserID),
		slog.String("snapshot_id", info.ID),
		slog.Bool("changed", info.Changed),
	)
	httpx.JSON(w, http.StatusOK, info)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	q, ok := h.invoiceQuery(w, r)
	if !ok {
		return
	}
	report := strings.TrimSpace(r.URL.Query().Get("report"))
	if report == "" {
		report = "invoices"
	}
	if err := validate.Var(report, "oneof=invoices summary aging"); err != nil {
		h.respondValidation(w, err)
		return
	}
	formatter := export.NewFormatter(strings.TrimSpace(r.URL.Query().Get("locale")))

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	var err error
	switch report {
	case "summary":
		var stats ar.SummaryStats
		if stats, err = h.service.InvoiceSummary(ctx, q); err == nil {
			err = export.WriteSummaryCSV(buf, stats, formatter)
		}
	case "aging":
		var aging ar.AgingReport
		if aging, err = h.service.Aging(ctx, q); err == nil {
			err = export.WriteAgingCSV(buf, aging, formatter)
		}
	default:
		var rows []ar.InvoiceRow
		if rows, err = h.service.Invoices(ctx, q); err == nil {
			err = export.WriteInvoicesCSV(buf, rows, formatter)
		}
	}
	if err != nil {
		h.respondError(w, "export "+report, err)
		return
	}

	filename := fmt.Sprintf("dashboard-%s-%s.csv", report, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

// invoiceQuery parses and validates the invoice filters, applying the buyer
// scope of the principal. It writes the error response itself when ok is false.
func (h *Handler) invoiceQuery(w http.ResponseWriter, r *http.Request) (analytics.InvoiceQuery, bool) {
	params, err := parseInvoiceParams(r)
	if err == nil {
		err = validate.Struct(params)
	}
	if err != nil {
		h.respondValidation(w, err)
		return analytics.InvoiceQuery{}, false
	}
	q, err := params.query()
	if err != nil {
		h.respondValidation(w, err)
		return analytics.InvoiceQuery{}, false
	}
	if buyerID, scoped := principal(r).BuyerScope(); scoped {
		q.Filter.BuyerID = buyerID
	}
	return q, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("id: %w", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}

func (h *Handler) respondValidation(w http.ResponseWriter, err error) {
	httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, describeValidation(err)))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, analytics.ErrBuyerNotFound), errors.Is(err, analytics.ErrInvoiceNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, snapshot.ErrUpstream):
		h.logger.Warn(op, slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(op, slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
	default:
		h.logError(op, err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
}

func principal(r *http.Request) rbac.Principal {
	p, _ := rbac.PrincipalFromContext(r.Context())
	return p
}
