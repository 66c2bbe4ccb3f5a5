package analytichttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
)

// MountRoutes registers the dashboard endpoints under /api/dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
		}),
	)

	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(h.rbac.Identify)

		r.With(h.rbac.RequireAny(rbac.PermInvoicesView)).Get("/invoices/summary", h.handleInvoiceSummary)
		r.With(h.rbac.RequireAny(rbac.PermInvoicesView)).Get("/invoices", h.handleInvoices)
		r.With(h.rbac.RequireAny(rbac.PermInvoicesView)).Get("/invoices/{id}", h.handleInvoice)
		r.With(h.rbac.RequireAny(rbac.PermPaymentsView)).Get("/payments/summary", h.handlePaymentSummary)
		r.With(h.rbac.RequireAny(rbac.PermBuyersView)).Get("/buyers", h.handleBuyers)
		r.With(h.rbac.RequireAny(rbac.PermBuyersView, rbac.PermSelfView)).Get("/buyers/{id}/summary", h.handleBuyerSummary)
		r.With(h.rbac.RequireAny(rbac.PermInventoryView)).Get("/units/summary", h.handleUnitSummary)
		r.With(h.rbac.RequireAny(rbac.PermInventoryView)).Get("/projects/summary", h.handleProjectSummary)
		r.With(h.rbac.RequireAny(rbac.PermAgingView)).Get("/aging", h.handleAging)

		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.With(h.rbac.RequireAny(rbac.PermExport)).Get("/export.csv", h.handleCSV)
			gr.With(h.rbac.RequireAny(rbac.PermRefresh)).Post("/refresh", h.handleRefresh)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := rbac.PrincipalFromContext(r.Context()); ok {
		if user := strings.TrimSpace(p.UserID); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
