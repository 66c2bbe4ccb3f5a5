package ar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInvoiceDecodesUpstreamShapes(t *testing.T) {
	raw := `[
		{"id": 1, "invoiceNumber": "INV-1", "buyerId": 3, "unitId": 4, "totalAmount": "125,000.50",
		 "issuedDate": "2025-01-02", "dueDate": "2025-02-01T00:00:00Z", "status": "Pending"},
		{"id": 2, "invoiceNumber": "INV-2", "totalAmount": "abc", "issueDate": "2025-01-05T10:00:00",
		 "dueDate": "Invalid Date", "status": "PAID"},
		{"id": 3, "totalAmount": null, "dueDate": null, "status": "cancelled"}
	]`
	var invoices []Invoice
	require.NoError(t, json.Unmarshal([]byte(raw), &invoices))
	require.Len(t, invoices, 3)

	require.Equal(t, 125000.50, invoices[0].TotalAmount.Float())
	require.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), invoices[0].IssueDate.Time)
	require.Equal(t, InvoicePending, invoices[0].Status)
	require.False(t, invoices[0].DueDate.IsZero())

	require.Equal(t, 0.0, invoices[1].TotalAmount.Float())
	require.True(t, invoices[1].DueDate.IsZero())
	require.Equal(t, InvoicePaid, invoices[1].Status)
	require.Equal(t, 5, invoices[1].IssueDate.Day())

	require.Equal(t, InvoiceCancelled, invoices[2].Status)
	require.True(t, invoices[2].DueDate.IsZero())
}

func TestPaymentDecodesEnums(t *testing.T) {
	var p Payment
	require.NoError(t, json.Unmarshal([]byte(`{"id": 9, "invoiceId": 1, "amount": 500, "paymentMethod": "Bank Transfer", "status": "COMPLETED"}`), &p))
	require.Equal(t, MethodBankTransfer, p.PaymentMethod)
	require.Equal(t, PaymentCompleted, p.Status)
	require.Equal(t, 500.0, p.Amount.Float())
}

func TestBuyerPhoneAlias(t *testing.T) {
	var b Buyer
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "firstName": "Ana", "lastName": "Lima", "phoneNumber": "+62 811"}`), &b))
	require.Equal(t, "+62 811", b.Phone)
	require.Equal(t, "Ana Lima", b.FullName())

	var nilBuyer *Buyer
	require.Equal(t, "", nilBuyer.FullName())
}

func TestUnitDecodesStatus(t *testing.T) {
	var u Unit
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "projectId": 2, "price": "99000", "status": "Sold", "soldTo": 5}`), &u))
	require.Equal(t, UnitSold, u.Status)
	require.Equal(t, int64(5), u.SoldTo)
	require.Equal(t, 99000.0, u.Price.Float())
}

func TestInvoiceRowRoundTrip(t *testing.T) {
	row := InvoiceRow{
		Invoice:         Invoice{ID: 1, InvoiceNumber: "INV-1", TotalAmount: NewAmount(10), Status: InvoicePending, DueDate: dueIn(-2)},
		EffectiveStatus: InvoiceOverdue,
		DaysOverdue:     2,
		BuyerName:       "Ana Lima",
		ProjectName:     UnknownProject,
		Balance:         Balance{TotalPaid: 4, Remaining: 6},
	}
	raw, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded InvoiceRow
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, row.InvoiceNumber, decoded.InvoiceNumber)
	require.Equal(t, row.EffectiveStatus, decoded.EffectiveStatus)
	require.Equal(t, row.Balance, decoded.Balance)
	require.Equal(t, row.ProjectName, decoded.ProjectName)
	require.True(t, row.DueDate.Equal(decoded.DueDate.Time))
}

func TestDateMarshalsZeroAsNull(t *testing.T) {
	raw, err := json.Marshal(struct {
		D Date `json:"d"`
	}{})
	require.NoError(t, err)
	require.JSONEq(t, `{"d": null}`, string(raw))
}

func TestCountDecodesLeniently(t *testing.T) {
	var b Buyer
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "creditScore": 712.5}`), &b))
	require.Equal(t, Count(712), b.CreditScore)

	var u Unit
	require.NoError(t, json.Unmarshal([]byte(`{"id": 2, "bedrooms": "3", "bathrooms": "abc", "area": "72.50"}`), &u))
	require.Equal(t, Count(3), u.Bedrooms)
	require.Equal(t, Count(0), u.Bathrooms)
	require.Equal(t, "72.5", u.Area.String())

	var p Project
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3, "totalUnits": null}`), &p))
	require.Equal(t, Count(0), p.TotalUnits)
}

func TestAmountMarshalsExactNumber(t *testing.T) {
	raw, err := json.Marshal(Payment{ID: 1, Amount: ParseAmount("0.10")})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, 0.1, decoded["amount"])
	require.Contains(t, string(raw), `"amount":0.1`)
}
