package ar

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingReport summarises outstanding balances of open invoices by days past due.
type AgingReport struct {
	Current   float64 `json:"current"`
	Bucket30  float64 `json:"bucket30"`
	Bucket60  float64 `json:"bucket60"`
	Bucket90  float64 `json:"bucket90"`
	Bucket120 float64 `json:"bucket120"`
	Total     float64 `json:"total"`
}

// Aging buckets the remaining balance of every pending or overdue invoice.
// Paid, cancelled and draft invoices and settled balances are skipped.
// Invoices without a due date count as current.
func Aging(invoices []Invoice, payments []Payment, now time.Time) AgingReport {
	var buckets [5]decimal.Decimal
	byInvoice := PaymentsByInvoice(payments)
	for _, inv := range invoices {
		status := EffectiveStatus(inv, now)
		if status != InvoicePending && status != InvoiceOverdue {
			continue
		}
		_, due := reconcile(inv, byInvoice[inv.ID], DefaultPolicy)
		if due.LessThanOrEqual(decimal.Zero) {
			continue
		}
		i := agingBucket(DaysOverdue(inv, now))
		buckets[i] = buckets[i].Add(due)
	}

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b)
	}
	return AgingReport{
		Current:   buckets[0].InexactFloat64(),
		Bucket30:  buckets[1].InexactFloat64(),
		Bucket60:  buckets[2].InexactFloat64(),
		Bucket90:  buckets[3].InexactFloat64(),
		Bucket120: buckets[4].InexactFloat64(),
		Total:     total.InexactFloat64(),
	}
}

func agingBucket(days int) int {
	switch {
	case days <= 0:
		return 0
	case days <= 30:
		return 1
	case days <= 60:
		return 2
	case days <= 90:
		return 3
	default:
		return 4
	}
}
