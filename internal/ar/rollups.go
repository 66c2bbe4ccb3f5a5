package ar

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PaymentSummary rolls up a payment collection for the payments page.
type PaymentSummary struct {
	Total           int                       `json:"total"`
	Completed       int                       `json:"completed"`
	Pending         int                       `json:"pending"`
	Failed          int                       `json:"failed"`
	Refunded        int                       `json:"refunded"`
	CompletedAmount float64                   `json:"completedAmount"`
	PendingAmount   float64                   `json:"pendingAmount"`
	FailedAmount    float64                   `json:"failedAmount"`
	RefundedAmount  float64                   `json:"refundedAmount"`
	ByMethod        map[PaymentMethod]float64 `json:"byMethod"`
}

// SummarizePayments counts payments per status and totals amounts per status
// and, for completed payments, per method.
func SummarizePayments(payments []Payment) PaymentSummary {
	summary := PaymentSummary{Total: len(payments), ByMethod: map[PaymentMethod]float64{}}
	completed, pending, failed, refunded := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	byMethod := map[PaymentMethod]decimal.Decimal{}
	for _, p := range payments {
		amount := p.Amount.Decimal
		switch p.Status {
		case PaymentCompleted:
			summary.Completed++
			completed = completed.Add(amount)
			method := p.PaymentMethod
			if method == "" {
				method = MethodOther
			}
			byMethod[method] = byMethod[method].Add(amount)
		case PaymentPending:
			summary.Pending++
			pending = pending.Add(amount)
		case PaymentFailed:
			summary.Failed++
			failed = failed.Add(amount)
		case PaymentRefunded:
			summary.Refunded++
			refunded = refunded.Add(amount)
		}
	}
	summary.CompletedAmount = completed.InexactFloat64()
	summary.PendingAmount = pending.InexactFloat64()
	summary.FailedAmount = failed.InexactFloat64()
	summary.RefundedAmount = refunded.InexactFloat64()
	for method, total := range byMethod {
		summary.ByMethod[method] = total.InexactFloat64()
	}
	return summary
}

// UnitSummary rolls up unit inventory.
type UnitSummary struct {
	Total          int     `json:"total"`
	Available      int     `json:"available"`
	Reserved       int     `json:"reserved"`
	Sold           int     `json:"sold"`
	InventoryValue float64 `json:"inventoryValue"`
	AvailableValue float64 `json:"availableValue"`
	SoldValue      float64 `json:"soldValue"`
}

// SummarizeUnits counts units per status and totals their list prices.
func SummarizeUnits(units []Unit) UnitSummary {
	summary := UnitSummary{Total: len(units)}
	inventory, available, sold := decimal.Zero, decimal.Zero, decimal.Zero
	for _, u := range units {
		price := u.Price.Decimal
		inventory = inventory.Add(price)
		switch u.Status {
		case UnitAvailable:
			summary.Available++
			available = available.Add(price)
		case UnitReserved:
			summary.Reserved++
		case UnitSold:
			summary.Sold++
			sold = sold.Add(price)
		}
	}
	summary.InventoryValue = inventory.InexactFloat64()
	summary.AvailableValue = available.InexactFloat64()
	summary.SoldValue = sold.InexactFloat64()
	return summary
}

// ProjectSummary is a UnitSummary scoped to one project.
type ProjectSummary struct {
	ProjectID int64       `json:"projectId"`
	Name      string      `json:"name"`
	Units     UnitSummary `json:"units"`
}

// SummarizeProjects groups units by project. Units whose project is not in
// projects are reported under a zero id named UnknownProject. Output is ordered by id.
func SummarizeProjects(projects []Project, units []Unit) []ProjectSummary {
	names := make(map[int64]string, len(projects))
	grouped := make(map[int64][]Unit, len(projects))
	for _, p := range projects {
		if _, ok := names[p.ID]; !ok {
			names[p.ID] = p.Name
			grouped[p.ID] = nil
		}
	}
	for _, u := range units {
		id := u.ProjectID
		if _, ok := names[id]; !ok {
			id = 0
		}
		grouped[id] = append(grouped[id], u)
	}
	ids := make([]int64, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]ProjectSummary, 0, len(ids))
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			name = UnknownProject
		}
		out = append(out, ProjectSummary{ProjectID: id, Name: name, Units: SummarizeUnits(grouped[id])})
	}
	return out
}
