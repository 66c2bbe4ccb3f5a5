package ar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleProjects() []Project {
	return []Project{{ID: 10, Name: "Harbor View"}, {ID: 20, Name: "Palm Court"}}
}

func sampleBuyers() []Buyer {
	return []Buyer{
		{ID: 1, FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Phone: "0811"},
		{ID: 2, FirstName: "Ben", LastName: "Okafor", Email: "ben@example.com"},
		{ID: 3, FirstName: "Cy", LastName: "Tan", Email: "cy@example.org"},
	}
}

func TestIndexLookups(t *testing.T) {
	buyers := append(sampleBuyers(), Buyer{ID: 1, FirstName: "Duplicate"})
	idx := NewIndex(buyers, sampleUnits(), sampleProjects(), sampleInvoices())

	require.Equal(t, "Ana Lima", idx.Buyer(1).FullName())
	require.Nil(t, idx.Buyer(99))
	require.Nil(t, idx.Buyer(0))
	require.Equal(t, "A-101", idx.Unit(1).UnitNumber)
	require.Equal(t, "INV-003", idx.Invoice(3).InvoiceNumber)
	require.Nil(t, idx.Project(30))
}

func TestIndexProjectResolution(t *testing.T) {
	idx := NewIndex(nil, sampleUnits(), sampleProjects(), nil)

	require.Equal(t, "Palm Court", idx.ProjectName(Invoice{ProjectID: 20, UnitID: 1}))
	require.Equal(t, "Harbor View", idx.ProjectName(Invoice{UnitID: 2}))
	require.Equal(t, UnknownProject, idx.ProjectName(Invoice{UnitID: 5}))
	require.Equal(t, UnknownProject, idx.ProjectName(Invoice{UnitID: 77}))
	require.Equal(t, UnknownProject, idx.ProjectName(Invoice{}))
}

func TestNilIndexIsSafe(t *testing.T) {
	var idx *Index
	require.Nil(t, idx.Buyer(1))
	require.Nil(t, idx.ProjectForInvoice(Invoice{ProjectID: 1}))
	require.Equal(t, UnknownProject, idx.ProjectName(Invoice{ProjectID: 1}))
}

func TestReconcileRows(t *testing.T) {
	invoices := []Invoice{
		{ID: 1, InvoiceNumber: "INV-001", BuyerID: 1, UnitID: 1, TotalAmount: NewAmount(100000), Status: InvoicePending, DueDate: dueIn(-3)},
		{ID: 2, InvoiceNumber: "INV-002", BuyerID: 42, TotalAmount: NewAmount(500), Status: InvoicePaid},
	}
	payments := []Payment{{ID: 1, InvoiceID: 1, Amount: NewAmount(25000), Status: PaymentCompleted}}
	idx := NewIndex(sampleBuyers(), sampleUnits(), sampleProjects(), invoices)

	rows := Reconcile(invoices, payments, idx, testNow, DefaultPolicy)
	require.Len(t, rows, 2)

	require.Equal(t, InvoiceOverdue, rows[0].EffectiveStatus)
	require.Equal(t, InvoicePending, rows[0].Status)
	require.Equal(t, 3, rows[0].DaysOverdue)
	require.Equal(t, "Ana Lima", rows[0].BuyerName)
	require.Equal(t, "Harbor View", rows[0].ProjectName)
	require.Equal(t, "A-101", rows[0].UnitNumber)
	require.Equal(t, Balance{TotalPaid: 25000, Remaining: 75000}, rows[0].Balance)

	require.Equal(t, "", rows[1].BuyerName)
	require.Equal(t, UnknownProject, rows[1].ProjectName)
	require.False(t, rows[1].Balance.IsPaidInFull)
}
