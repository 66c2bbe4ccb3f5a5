package ar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAgingBuckets(t *testing.T) {
	invoices := append(sampleInvoices(),
		Invoice{ID: 10, TotalAmount: NewAmount(400), Status: InvoicePending, DueDate: dueIn(-45)},
		Invoice{ID: 11, TotalAmount: NewAmount(500), Status: InvoicePending, DueDate: dueIn(-75)},
		Invoice{ID: 12, TotalAmount: NewAmount(600), Status: InvoicePending, DueDate: dueIn(-200)},
		Invoice{ID: 13, TotalAmount: NewAmount(700), Status: InvoicePending},
		Invoice{ID: 14, TotalAmount: NewAmount(800), Status: InvoicePaid, DueDate: dueIn(-200)},
	)

	got := Aging(invoices, samplePayments(), testNow)
	require.Equal(t, AgingReport{
		Current:   30700,
		Bucket30:  100000,
		Bucket60:  400,
		Bucket90:  500,
		Bucket120: 600,
		Total:     132200,
	}, got)
}

func TestAgingSkipsSettledBalances(t *testing.T) {
	invoices := []Invoice{{ID: 1, TotalAmount: NewAmount(100), Status: InvoicePending, DueDate: dueIn(-10)}}
	payments := []Payment{{ID: 1, InvoiceID: 1, Amount: NewAmount(150), Status: PaymentCompleted}}
	require.Equal(t, AgingReport{}, Aging(invoices, payments, testNow))
}
