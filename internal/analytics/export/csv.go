package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/estatedesk/estatedesk/internal/ar"
)

// Formatter renders numbers for a CSV export. The zero Formatter writes plain
// machine-readable values.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for the BCP 47 locale tag. An empty or
// unknown tag yields the plain formatter.
func NewFormatter(locale string) Formatter {
	if locale == "" {
		return Formatter{}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}
	}
	return Formatter{printer: message.NewPrinter(tag)}
}

// Amount formats a monetary value with two decimals.
func (f Formatter) Amount(v float64) string {
	if f.printer == nil {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return f.printer.Sprintf("%.2f", v)
}

// Int formats a count.
func (f Formatter) Int(v int) string {
	if f.printer == nil {
		return strconv.Itoa(v)
	}
	return f.printer.Sprintf("%d", v)
}

func formatDate(d ar.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(time.DateOnly)
}

// WriteInvoicesCSV emits one line per reconciled invoice row.
func WriteInvoicesCSV(w io.Writer, rows []ar.InvoiceRow, f Formatter) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{
		"Invoice", "Buyer", "Project", "Unit", "Issue Date", "Due Date",
		"Status", "Days Overdue", "Total", "Paid", "Remaining",
	}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.InvoiceNumber,
			row.BuyerName,
			row.ProjectName,
			row.UnitNumber,
			formatDate(row.IssueDate),
			formatDate(row.DueDate),
			string(row.EffectiveStatus),
			f.Int(row.DaysOverdue),
			f.Amount(row.TotalAmount.Float()),
			f.Amount(row.Balance.TotalPaid),
			f.Amount(row.Balance.Remaining),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSummaryCSV serialises the invoice collection summary as metric/value pairs.
func WriteSummaryCSV(w io.Writer, stats ar.SummaryStats, f Formatter) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Invoices", f.Int(stats.Total)},
		{"Draft", f.Int(stats.Draft)},
		{"Paid", f.Int(stats.Paid)},
		{"Pending", f.Int(stats.Pending)},
		{"Overdue", f.Int(stats.Overdue)},
		{"Cancelled", f.Int(stats.Cancelled)},
		{"Total Amount", f.Amount(stats.TotalAmount)},
		{"Paid Amount", f.Amount(stats.PaidAmount)},
		{"Pending Amount", f.Amount(stats.PendingAmount)},
		{"Collected", f.Amount(stats.TotalPaidAmount)},
		{"Outstanding", f.Amount(stats.OutstandingAmount)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteAgingCSV prints aging buckets to CSV.
func WriteAgingCSV(w io.Writer, report ar.AgingReport, f Formatter) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Bucket", "Amount"}); err != nil {
		return err
	}
	buckets := [][]string{
		{"Current", f.Amount(report.Current)},
		{"1-30", f.Amount(report.Bucket30)},
		{"31-60", f.Amount(report.Bucket60)},
		{"61-90", f.Amount(report.Bucket90)},
		{"90+", f.Amount(report.Bucket120)},
		{"Total", f.Amount(report.Total)},
	}
	for _, bucket := range buckets {
		if err := writer.Write(bucket); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
