package ar

import "github.com/shopspring/decimal"

// BuyerSummary rolls up one buyer's properties and receivables.
type BuyerSummary struct {
	BuyerID       int64   `json:"buyerId"`
	Name          string  `json:"name"`
	Email         string  `json:"email,omitempty"`
	Properties    int     `json:"properties"`
	Owned         int     `json:"owned"`
	Reserved      int     `json:"reserved"`
	Invoices      int     `json:"invoices"`
	TotalInvoiced float64 `json:"totalInvoiced"`
	TotalPaid     float64 `json:"totalPaid"`
	Outstanding   float64 `json:"outstanding"`
}

// SummarizeBuyer joins the collections on buyerId/unitId and rolls up the
// buyer's holdings. Completed payments count when they reference one of the
// buyer's invoices. Payments without an invoice count when they name the buyer,
// or name no buyer and reference a unit sold to or reserved by the buyer.
func SummarizeBuyer(buyer Buyer, invoices []Invoice, payments []Payment, units []Unit) BuyerSummary {
	owned := make([]Invoice, 0)
	for _, inv := range invoices {
		if inv.BuyerID == buyer.ID {
			owned = append(owned, inv)
		}
	}
	return summarizeBuyer(buyer, owned, payments, units)
}

// SummarizeBuyers summarises every buyer, grouping invoices once instead of
// rescanning per buyer. Output order follows buyers.
func SummarizeBuyers(buyers []Buyer, invoices []Invoice, payments []Payment, units []Unit) []BuyerSummary {
	byBuyer := make(map[int64][]Invoice, len(buyers))
	for _, inv := range invoices {
		byBuyer[inv.BuyerID] = append(byBuyer[inv.BuyerID], inv)
	}
	out := make([]BuyerSummary, 0, len(buyers))
	for _, b := range buyers {
		out = append(out, summarizeBuyer(b, byBuyer[b.ID], payments, units))
	}
	return out
}

func summarizeBuyer(buyer Buyer, invoices []Invoice, payments []Payment, units []Unit) BuyerSummary {
	summary := BuyerSummary{
		BuyerID:  buyer.ID,
		Name:     buyer.FullName(),
		Email:    buyer.Email,
		Invoices: len(invoices),
	}
	if buyer.ID == 0 {
		return summary
	}

	held := make(map[int64]struct{})
	for _, u := range units {
		switch {
		case u.SoldTo == buyer.ID:
			summary.Properties++
			summary.Owned++
		case u.ReservedBy == buyer.ID:
			summary.Properties++
			summary.Reserved++
		default:
			continue
		}
		held[u.ID] = struct{}{}
	}

	invoiced, paid := decimal.Zero, decimal.Zero
	ids := make(map[int64]struct{}, len(invoices))
	for _, inv := range invoices {
		ids[inv.ID] = struct{}{}
		invoiced = invoiced.Add(inv.TotalAmount.Decimal)
	}
	for _, p := range payments {
		if !DefaultPolicy.Counts(p.Status) || !paysBuyer(p, buyer.ID, ids, held) {
			continue
		}
		paid = paid.Add(p.Amount.Decimal)
	}

	summary.TotalInvoiced = invoiced.InexactFloat64()
	summary.TotalPaid = paid.InexactFloat64()
	summary.Outstanding = invoiced.Sub(paid).InexactFloat64()
	return summary
}

func paysBuyer(p Payment, buyerID int64, invoices, units map[int64]struct{}) bool {
	if p.InvoiceID != 0 {
		_, ok := invoices[p.InvoiceID]
		return ok
	}
	if p.BuyerID != 0 {
		return p.BuyerID == buyerID
	}
	_, ok := units[p.UnitID]
	return p.UnitID != 0 && ok
}
