package ar

import (
	"encoding/json"
	"time"
)

// InvoiceRow is an invoice joined with its buyer, project and reconciled balance.
type InvoiceRow struct {
	Invoice
	EffectiveStatus InvoiceStatus `json:"effectiveStatus"`
	// DaysOverdue counts whole days past due. It stays 0 for the first day
	// after the due date; EffectiveStatus already reports overdue then.
	DaysOverdue     int           `json:"daysOverdue"`
	BuyerName       string        `json:"buyerName"`
	ProjectName     string        `json:"projectName"`
	UnitNumber      string        `json:"unitNumber,omitempty"`
	Balance         Balance       `json:"balance"`
}

// UnmarshalJSON decodes both the invoice fields and the derived ones; the
// promoted Invoice.UnmarshalJSON would otherwise drop the latter.
func (r *InvoiceRow) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Invoice); err != nil {
		return err
	}
	var derived struct {
		EffectiveStatus InvoiceStatus `json:"effectiveStatus"`
		DaysOverdue     int           `json:"daysOverdue"`
		BuyerName       string        `json:"buyerName"`
		ProjectName     string        `json:"projectName"`
		UnitNumber      string        `json:"unitNumber"`
		Balance         Balance       `json:"balance"`
	}
	if err := json.Unmarshal(data, &derived); err != nil {
		return err
	}
	r.EffectiveStatus = derived.EffectiveStatus
	r.DaysOverdue = derived.DaysOverdue
	r.BuyerName = derived.BuyerName
	r.ProjectName = derived.ProjectName
	r.UnitNumber = derived.UnitNumber
	r.Balance = derived.Balance
	return nil
}

// Reconcile builds display rows for invoices. Missing buyers render as an empty
// name and missing projects as UnknownProject.
func Reconcile(invoices []Invoice, payments []Payment, idx *Index, now time.Time, policy Policy) []InvoiceRow {
	byInvoice := PaymentsByInvoice(payments)
	rows := make([]InvoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		row := InvoiceRow{
			Invoice:         inv,
			EffectiveStatus: EffectiveStatus(inv, now),
			DaysOverdue:     DaysOverdue(inv, now),
			BuyerName:       idx.Buyer(inv.BuyerID).FullName(),
			ProjectName:     idx.ProjectName(inv),
			Balance:         AggregateWithPolicy(inv, byInvoice[inv.ID], policy),
		}
		if u := idx.Unit(inv.UnitID); u != nil {
			row.UnitNumber = u.UnitNumber
		}
		rows = append(rows, row)
	}
	return rows
}
