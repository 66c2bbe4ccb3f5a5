package ar

import "github.com/shopspring/decimal"

// Policy controls which payments reduce an invoice balance. Completed payments
// always count; failed and refunded payments never do.
type Policy struct {
	IncludePending bool
}

// DefaultPolicy counts completed payments only.
var DefaultPolicy = Policy{}

// Counts reports whether a payment with the given status reduces a balance.
func (p Policy) Counts(status PaymentStatus) bool {
	switch status {
	case PaymentCompleted:
		return true
	case PaymentPending:
		return p.IncludePending
	default:
		return false
	}
}

// Balance is the reconciliation result for one invoice.
type Balance struct {
	TotalPaid    float64 `json:"totalPaid"`
	Remaining    float64 `json:"remaining"`
	IsPaidInFull bool    `json:"isPaidInFull"`
}

// Credit returns the overpaid amount, zero when the invoice is not overpaid.
func (b Balance) Credit() float64 {
	if b.Remaining >= 0 {
		return 0
	}
	return -b.Remaining
}

// Due returns the amount still owed; negative remainders display as zero due.
func (b Balance) Due() float64 {
	if b.Remaining <= 0 {
		return 0
	}
	return b.Remaining
}

// Aggregate reconciles payments against inv using DefaultPolicy.
func Aggregate(inv Invoice, payments []Payment) Balance {
	return AggregateWithPolicy(inv, payments, DefaultPolicy)
}

// AggregateWithPolicy sums the counted payments referencing inv and derives the
// remaining balance. A nil payments slice is treated as no matches.
func AggregateWithPolicy(inv Invoice, payments []Payment, policy Policy) Balance {
	paid, remaining := reconcile(inv, payments, policy)
	return Balance{
		TotalPaid:    paid.InexactFloat64(),
		Remaining:    remaining.InexactFloat64(),
		IsPaidInFull: remaining.LessThanOrEqual(decimal.Zero),
	}
}

// reconcile returns the exact paid and remaining amounts of inv.
func reconcile(inv Invoice, payments []Payment, policy Policy) (paid, remaining decimal.Decimal) {
	paid = decimal.Zero
	for _, p := range payments {
		if p.InvoiceID == 0 || p.InvoiceID != inv.ID || !policy.Counts(p.Status) {
			continue
		}
		paid = paid.Add(p.Amount.Decimal)
	}
	return paid, inv.TotalAmount.Sub(paid)
}

// PaymentsByInvoice groups payments by the invoice they reference so callers
// reconciling many invoices scan the payments once. Unlinked payments are dropped.
func PaymentsByInvoice(payments []Payment) map[int64][]Payment {
	out := make(map[int64][]Payment)
	for _, p := range payments {
		if p.InvoiceID == 0 {
			continue
		}
		out[p.InvoiceID] = append(out[p.InvoiceID], p)
	}
	return out
}
