package ar

import (
	"strings"
	"time"
)

// InvoiceFilter narrows an invoice collection. Zero fields do not filter.
type InvoiceFilter struct {
	Search    string
	Status    InvoiceStatus
	BuyerID   int64
	ProjectID int64
	From      time.Time
	To        time.Time
}

// PaymentFilter narrows a payment collection. Zero fields do not filter.
type PaymentFilter struct {
	Search  string
	Status  PaymentStatus
	Method  PaymentMethod
	BuyerID int64
	From    time.Time
	To      time.Time
}

// BuyerFilter narrows a buyer collection.
type BuyerFilter struct {
	Search string
}

// FilterInvoices returns the invoices matching f. Status is compared against the
// effective status at now; the date range applies to the issue date by day.
func FilterInvoices(invoices []Invoice, idx *Index, f InvoiceFilter, now time.Time) []Invoice {
	term := normalizeTerm(f.Search)
	out := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if f.Status != "" && EffectiveStatus(inv, now) != f.Status {
			continue
		}
		if f.BuyerID != 0 && inv.BuyerID != f.BuyerID {
			continue
		}
		if f.ProjectID != 0 {
			p := idx.ProjectForInvoice(inv)
			if p == nil || p.ID != f.ProjectID {
				continue
			}
		}
		if !inDayRange(inv.IssueDate, f.From, f.To) {
			continue
		}
		if term != "" && !invoiceMatches(inv, idx, term) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

func invoiceMatches(inv Invoice, idx *Index, term string) bool {
	if containsFold(inv.InvoiceNumber, term) || containsFold(inv.Description, term) {
		return true
	}
	if b := idx.Buyer(inv.BuyerID); b != nil {
		return containsFold(b.FullName(), term) || containsFold(b.Email, term)
	}
	return false
}

// FilterPayments returns the payments matching f. Search covers the
// transaction id and the referenced invoice number.
func FilterPayments(payments []Payment, idx *Index, f PaymentFilter) []Payment {
	term := normalizeTerm(f.Search)
	out := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Method != "" && p.PaymentMethod != f.Method {
			continue
		}
		if f.BuyerID != 0 && p.BuyerID != f.BuyerID {
			continue
		}
		if !inDayRange(p.PaymentDate, f.From, f.To) {
			continue
		}
		if term != "" {
			match := containsFold(p.TransactionID, term)
			if !match {
				if inv := idx.Invoice(p.InvoiceID); inv != nil {
					match = containsFold(inv.InvoiceNumber, term)
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// FilterBuyers returns buyers whose name, email or phone contains the search term.
func FilterBuyers(buyers []Buyer, f BuyerFilter) []Buyer {
	term := normalizeTerm(f.Search)
	if term == "" {
		return append([]Buyer(nil), buyers...)
	}
	out := make([]Buyer, 0, len(buyers))
	for _, b := range buyers {
		if containsFold(b.FullName(), term) || containsFold(b.Email, term) || containsFold(b.Phone, term) {
			out = append(out, b)
		}
	}
	return out
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(s, lowerTerm string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerTerm)
}

// inDayRange checks from <= d <= to by calendar day. An unset bound is open;
// a zero date never matches a set bound.
func inDayRange(d Date, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	if d.IsZero() {
		return false
	}
	day := d.day()
	if !from.IsZero() && day.Before(NewDate(from).day()) {
		return false
	}
	if !to.IsZero() && day.After(NewDate(to).day()) {
		return false
	}
	return true
}
