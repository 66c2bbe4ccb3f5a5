package ar

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryStats is the roll-up shown on the invoice dashboard cards.
type SummaryStats struct {
	Total             int     `json:"total"`
	Draft             int     `json:"draft"`
	Paid              int     `json:"paid"`
	Pending           int     `json:"pending"`
	Overdue           int     `json:"overdue"`
	Cancelled         int     `json:"cancelled"`
	TotalAmount       float64 `json:"totalAmount"`
	PaidAmount        float64 `json:"paidAmount"`
	PendingAmount     float64 `json:"pendingAmount"`
	TotalPaidAmount   float64 `json:"totalPaidAmount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
}

// Summarize rolls up an already-filtered invoice set and the payments related
// to it, using effective statuses at now and DefaultPolicy.
func Summarize(invoices []Invoice, payments []Payment, now time.Time) SummaryStats {
	return SummarizeWithPolicy(invoices, payments, now, DefaultPolicy)
}

// SummarizeWithPolicy is Summarize with an explicit payment policy.
func SummarizeWithPolicy(invoices []Invoice, payments []Payment, now time.Time, policy Policy) SummaryStats {
	stats := SummaryStats{Total: len(invoices)}
	total, paid, pending, received := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	inSet := make(map[int64]struct{}, len(invoices))

	for _, inv := range invoices {
		inSet[inv.ID] = struct{}{}
		amount := inv.TotalAmount.Decimal
		total = total.Add(amount)
		switch EffectiveStatus(inv, now) {
		case InvoiceDraft:
			stats.Draft++
		case InvoicePaid:
			stats.Paid++
			paid = paid.Add(amount)
		case InvoicePending:
			stats.Pending++
			pending = pending.Add(amount)
		case InvoiceOverdue:
			stats.Overdue++
		case InvoiceCancelled:
			stats.Cancelled++
		}
	}

	for _, p := range payments {
		if p.InvoiceID == 0 || !policy.Counts(p.Status) {
			continue
		}
		if _, ok := inSet[p.InvoiceID]; !ok {
			continue
		}
		received = received.Add(p.Amount.Decimal)
	}

	stats.TotalAmount = total.InexactFloat64()
	stats.PaidAmount = paid.InexactFloat64()
	stats.PendingAmount = pending.InexactFloat64()
	stats.TotalPaidAmount = received.InexactFloat64()
	stats.OutstandingAmount = total.Sub(received).InexactFloat64()
	return stats
}
