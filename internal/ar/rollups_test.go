package ar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizePayments(t *testing.T) {
	got := SummarizePayments(samplePayments())
	require.Equal(t, 6, got.Total)
	require.Equal(t, 4, got.Completed)
	require.Equal(t, 1, got.Pending)
	require.Equal(t, 1, got.Failed)
	require.Equal(t, 0, got.Refunded)
	require.Equal(t, 96000.45, got.CompletedAmount)
	require.Equal(t, 300.0, got.PendingAmount)
	require.Equal(t, 5000.0, got.FailedAmount)
	require.Len(t, got.ByMethod, 3)
	require.Equal(t, 20000.0, got.ByMethod[MethodBankTransfer])
	require.Equal(t, 75000.25, got.ByMethod[MethodMortgage])
	require.Equal(t, 1000.2, got.ByMethod[MethodCash])
}

func TestSummarizePaymentsEmptyMethod(t *testing.T) {
	got := SummarizePayments([]Payment{{ID: 1, Amount: NewAmount(10), Status: PaymentCompleted}})
	require.Equal(t, map[PaymentMethod]float64{MethodOther: 10}, got.ByMethod)
}

func TestSummarizeUnits(t *testing.T) {
	got := SummarizeUnits(sampleUnits())
	require.Equal(t, UnitSummary{
		Total:          5,
		Available:      2,
		Reserved:       1,
		Sold:           2,
		InventoryValue: 375000.25,
		AvailableValue: 150000,
		SoldValue:      175000.25,
	}, got)
}

func TestSummarizeProjects(t *testing.T) {
	projects := []Project{{ID: 20, Name: "Palm Court"}, {ID: 10, Name: "Harbor View"}, {ID: 40, Name: "Empty Lot"}}
	got := SummarizeProjects(projects, sampleUnits())
	require.Len(t, got, 4)

	require.Equal(t, int64(0), got[0].ProjectID)
	require.Equal(t, UnknownProject, got[0].Name)
	require.Equal(t, 1, got[0].Units.Total)

	require.Equal(t, "Harbor View", got[1].Name)
	require.Equal(t, 1, got[1].Units.Sold)
	require.Equal(t, 1, got[1].Units.Reserved)

	require.Equal(t, "Palm Court", got[2].Name)
	require.Equal(t, 165000.25, got[2].Units.InventoryValue)

	require.Equal(t, "Empty Lot", got[3].Name)
	require.Equal(t, UnitSummary{}, got[3].Units)
}
