package ar

import "time"

// IsOverdue reports whether a pending invoice is past its due date at now.
// A missing or unparsable due date is never overdue.
func IsOverdue(inv Invoice, now time.Time) bool {
	if inv.Status != InvoicePending || inv.DueDate.IsZero() {
		return false
	}
	return inv.DueDate.Before(now)
}

// EffectiveStatus returns the status an invoice should display as at now. The
// stored status is returned verbatim unless the pending-past-due rule applies.
func EffectiveStatus(inv Invoice, now time.Time) InvoiceStatus {
	if IsOverdue(inv, now) {
		return InvoiceOverdue
	}
	return inv.Status
}

// DaysOverdue returns the number of whole days an invoice is past due, or 0.
// An invoice less than a day past due is overdue with 0 days.
func DaysOverdue(inv Invoice, now time.Time) int {
	if !IsOverdue(inv, now) {
		return 0
	}
	return int(now.Sub(inv.DueDate.Time).Hours() / 24)
}
