package ar

import (
	"sort"
	"strings"
)

// SortKey names a sortable invoice column.
type SortKey string

const (
	SortByNumber    SortKey = "number"
	SortByAmount    SortKey = "amount"
	SortByDueDate   SortKey = "dueDate"
	SortByIssueDate SortKey = "issueDate"
	SortByStatus    SortKey = "status"
)

// ParseSortKey maps a raw query value to a SortKey, defaulting to issue date.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.TrimSpace(raw)) {
	case SortByNumber, SortByAmount, SortByDueDate, SortByStatus:
		return SortKey(strings.TrimSpace(raw))
	default:
		return SortByIssueDate
	}
}

// SortInvoices sorts in place by key. Ties fall back to id so the order is total.
func SortInvoices(invoices []Invoice, key SortKey, desc bool) {
	compare := func(a, b Invoice) int {
		switch key {
		case SortByNumber:
			return strings.Compare(a.InvoiceNumber, b.InvoiceNumber)
		case SortByAmount:
			return a.TotalAmount.Cmp(b.TotalAmount.Decimal)
		case SortByDueDate:
			return a.DueDate.Compare(b.DueDate.Time)
		case SortByStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		default:
			return a.IssueDate.Compare(b.IssueDate.Time)
		}
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		c := compare(invoices[i], invoices[j])
		if c == 0 {
			c = compareInt(invoices[i].ID, invoices[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
