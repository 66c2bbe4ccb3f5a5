package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/estatedesk/estatedesk/internal/ar"
	"github.com/estatedesk/estatedesk/internal/platform/db"
)

const (
	selectBuyers = `SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(email, ''), COALESCE(phone, ''),
		COALESCE(credit_score, 0)::int8, created_at::timestamptz, COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''),
		COALESCE(zip_code, ''), COALESCE(country, '')
		FROM buyers ORDER BY id`
	selectUnits = `SELECT id, COALESCE(project_id, 0), COALESCE(unit_number, ''), COALESCE(type, ''), COALESCE(bedrooms, 0)::int8,
		COALESCE(bathrooms, 0)::int8, COALESCE(area, 0)::text, COALESCE(price, 0)::text, COALESCE(status, ''),
		sold_to, reserved_by
		FROM units ORDER BY id`
	selectProjects = `SELECT id, COALESCE(name, ''), COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''),
		COALESCE(zip_code, ''), COALESCE(country, ''), COALESCE(total_units, 0)::int8
		FROM projects ORDER BY id`
	selectInvoices = `SELECT id, COALESCE(invoice_number, ''), buyer_id, unit_id, project_id,
		COALESCE(total_amount, 0)::text, COALESCE(tax_amount, 0)::text, issue_date::timestamptz, due_date::timestamptz, paid_date::timestamptz,
		COALESCE(status, ''), COALESCE(description, ''), COALESCE(notes, '')
		FROM invoices ORDER BY id`
	selectPayments = `SELECT id, invoice_id, buyer_id, unit_id, COALESCE(amount, 0)::text,
		COALESCE(payment_method, ''), payment_date::timestamptz, COALESCE(status, ''), COALESCE(transaction_id, ''),
		COALESCE(notes, '')
		FROM payments ORDER BY id`
)

// PostgresLoader reads the collections from a read replica of the sales database.
type PostgresLoader struct {
	db    db.TxBeginner
	clock func() time.Time
}

// NewPostgresLoader constructs a loader over a pool.
func NewPostgresLoader(pool db.TxBeginner) *PostgresLoader {
	return &PostgresLoader{db: pool, clock: func() time.Time { return time.Now().UTC() }}
}

// Load reads every collection inside one read-only transaction.
func (l *PostgresLoader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		buyers   []ar.Buyer
		units    []ar.Unit
		projects []ar.Project
		invoices []ar.Invoice
		payments []ar.Payment
	)
	err := db.WithReadOnlyTx(ctx, l.db, func(tx pgx.Tx) error {
		var err error
		if buyers, err = queryAll(ctx, tx, selectBuyers, scanBuyer); err != nil {
			return fmt.Errorf("buyers: %w", err)
		}
		if units, err = queryAll(ctx, tx, selectUnits, scanUnit); err != nil {
			return fmt.Errorf("units: %w", err)
		}
		if projects, err = queryAll(ctx, tx, selectProjects, scanProject); err != nil {
			return fmt.Errorf("projects: %w", err)
		}
		if invoices, err = queryAll(ctx, tx, selectInvoices, scanInvoice); err != nil {
			return fmt.Errorf("invoices: %w", err)
		}
		if payments, err = queryAll(ctx, tx, selectPayments, scanPayment); err != nil {
			return fmt.Errorf("payments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: %v", ErrUpstream, err)
	}
	return New("postgres", l.clock(), buyers, units, projects, invoices, payments), nil
}

func queryAll[T any](ctx context.Context, tx pgx.Tx, query string, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

func scanBuyer(row pgx.CollectableRow) (ar.Buyer, error) {
	var b ar.Buyer
	var creditScore int64
	var createdAt pgtype.Timestamptz
	err := row.Scan(&b.ID, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &creditScore, &createdAt,
		&b.Address, &b.City, &b.State, &b.ZipCode, &b.Country)
	b.CreditScore = ar.Count(creditScore)
	b.CreatedAt = dateFrom(createdAt)
	return b, err
}

func scanUnit(row pgx.CollectableRow) (ar.Unit, error) {
	var u ar.Unit
	var bedrooms, bathrooms int64
	var area, price, status string
	var soldTo, reservedBy pgtype.Int8
	err := row.Scan(&u.ID, &u.ProjectID, &u.UnitNumber, &u.Type, &bedrooms, &bathrooms, &area, &price,
		&status, &soldTo, &reservedBy)
	u.Bedrooms = ar.Count(bedrooms)
	u.Bathrooms = ar.Count(bathrooms)
	u.Area = ar.ParseAmount(area)
	u.Price = ar.ParseAmount(price)
	u.Status = ar.ParseUnitStatus(status)
	u.SoldTo = idFrom(soldTo)
	u.ReservedBy = idFrom(reservedBy)
	return u, err
}

func scanProject(row pgx.CollectableRow) (ar.Project, error) {
	var p ar.Project
	var totalUnits int64
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.City, &p.State, &p.ZipCode, &p.Country, &totalUnits)
	p.TotalUnits = ar.Count(totalUnits)
	return p, err
}

func scanInvoice(row pgx.CollectableRow) (ar.Invoice, error) {
	var inv ar.Invoice
	var buyerID, unitID, projectID pgtype.Int8
	var total, tax string
	var issued, due, paid pgtype.Timestamptz
	var status string
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &buyerID, &unitID, &projectID, &total, &tax,
		&issued, &due, &paid, &status, &inv.Description, &inv.Notes)
	inv.BuyerID = idFrom(buyerID)
	inv.UnitID = idFrom(unitID)
	inv.ProjectID = idFrom(projectID)
	inv.TotalAmount = ar.ParseAmount(total)
	inv.TaxAmount = ar.ParseAmount(tax)
	inv.IssueDate = dateFrom(issued)
	inv.DueDate = dateFrom(due)
	inv.PaidDate = dateFrom(paid)
	inv.Status = ar.ParseInvoiceStatus(status)
	return inv, err
}

func scanPayment(row pgx.CollectableRow) (ar.Payment, error) {
	var p ar.Payment
	var invoiceID, buyerID, unitID pgtype.Int8
	var amount, method, status string
	var paidAt pgtype.Timestamptz
	err := row.Scan(&p.ID, &invoiceID, &buyerID, &unitID, &amount, &method, &paidAt, &status,
		&p.TransactionID, &p.Notes)
	p.InvoiceID = idFrom(invoiceID)
	p.BuyerID = idFrom(buyerID)
	p.UnitID = idFrom(unitID)
	p.Amount = ar.ParseAmount(amount)
	p.PaymentMethod = ar.ParsePaymentMethod(method)
	p.PaymentDate = dateFrom(paidAt)
	p.Status = ar.ParsePaymentStatus(status)
	return p, err
}

func idFrom(v pgtype.Int8) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}

func dateFrom(v pgtype.Timestamptz) ar.Date {
	if !v.Valid {
		return ar.Date{}
	}
	return ar.NewDate(v.Time.UTC())
}
