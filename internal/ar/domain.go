package ar

import (
	"encoding/json"
	"strings"
)

// InvoiceStatus enumerates invoice statuses.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// PaymentStatus enumerates payment statuses.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod enumerates the ways a buyer can settle an invoice.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodCheck        PaymentMethod = "check"
	MethodMortgage     PaymentMethod = "mortgage"
	MethodOther        PaymentMethod = "other"
)

// UnitStatus enumerates unit sale states.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitSold      UnitStatus = "sold"
)

// UnknownProject is the display fallback for invoices whose project cannot be resolved.
const UnknownProject = "Unknown Project"

// ParseInvoiceStatus normalises raw status strings. Unknown values are kept verbatim.
func ParseInvoiceStatus(raw string) InvoiceStatus {
	return InvoiceStatus(normalizeEnum(raw))
}

// ParsePaymentStatus normalises raw payment status strings.
func ParsePaymentStatus(raw string) PaymentStatus {
	return PaymentStatus(normalizeEnum(raw))
}

// ParsePaymentMethod normalises raw payment method strings ("Bank Transfer" -> bank_transfer).
func ParsePaymentMethod(raw string) PaymentMethod {
	return PaymentMethod(normalizeEnum(raw))
}

// ParseUnitStatus normalises raw unit status strings.
func ParseUnitStatus(raw string) UnitStatus {
	return UnitStatus(normalizeEnum(raw))
}

func normalizeEnum(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

// Invoice model.
type Invoice struct {
	ID            int64         `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	BuyerID       int64         `json:"buyerId"`
	UnitID        int64         `json:"unitId"`
	ProjectID     int64         `json:"projectId"`
	TotalAmount   Amount        `json:"totalAmount"`
	TaxAmount     Amount        `json:"taxAmount"`
	IssueDate     Date          `json:"issueDate"`
	DueDate       Date          `json:"dueDate"`
	PaidDate      Date          `json:"paidDate"`
	Status        InvoiceStatus `json:"status"`
	Description   string        `json:"description,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// UnmarshalJSON accepts the issuedDate alias and normalises the status.
func (i *Invoice) UnmarshalJSON(data []byte) error {
	type plain Invoice
	aux := struct {
		*plain
		IssuedDate Date   `json:"issuedDate"`
		Status     string `json:"status"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if i.IssueDate.IsZero() {
		i.IssueDate = aux.IssuedDate
	}
	i.Status = ParseInvoiceStatus(aux.Status)
	return nil
}

// Payment model. InvoiceID is zero for payments booked directly against a unit or buyer.
type Payment struct {
	ID            int64         `json:"id"`
	InvoiceID     int64         `json:"invoiceId"`
	BuyerID       int64         `json:"buyerId"`
	UnitID        int64         `json:"unitId"`
	Amount        Amount        `json:"amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentDate   Date          `json:"paymentDate"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// UnmarshalJSON normalises the enum fields.
func (p *Payment) UnmarshalJSON(data []byte) error {
	type plain Payment
	aux := struct {
		*plain
		PaymentMethod string `json:"paymentMethod"`
		Status        string `json:"status"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.PaymentMethod = ParsePaymentMethod(aux.PaymentMethod)
	p.Status = ParsePaymentStatus(aux.Status)
	return nil
}

// Buyer model.
type Buyer struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CreditScore Count  `json:"creditScore"`
	CreatedAt   Date   `json:"createdAt"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// UnmarshalJSON accepts the phoneNumber alias.
func (b *Buyer) UnmarshalJSON(data []byte) error {
	type plain Buyer
	aux := struct {
		*plain
		PhoneNumber string `json:"phoneNumber"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if b.Phone == "" {
		b.Phone = aux.PhoneNumber
	}
	return nil
}

// FullName joins first and last name.
func (b *Buyer) FullName() string {
	if b == nil {
		return ""
	}
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// Unit model. SoldTo and ReservedBy reference buyers; zero means unset.
type Unit struct {
	ID         int64      `json:"id"`
	ProjectID  int64      `json:"projectId"`
	UnitNumber string     `json:"unitNumber"`
	Type       string     `json:"type,omitempty"`
	Bedrooms   Count      `json:"bedrooms,omitempty"`
	Bathrooms  Count      `json:"bathrooms,omitempty"`
	Area       Amount     `json:"area"`
	Price      Amount     `json:"price"`
	Status     UnitStatus `json:"status"`
	SoldTo     int64      `json:"soldTo,omitempty"`
	ReservedBy int64      `json:"reservedBy,omitempty"`
}

// UnmarshalJSON normalises the unit status.
func (u *Unit) UnmarshalJSON(data []byte) error {
	type plain Unit
	aux := struct {
		*plain
		Status string `json:"status"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.Status = ParseUnitStatus(aux.Status)
	return nil
}

// Project model.
type Project struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZipCode    string `json:"zipCode,omitempty"`
	Country    string `json:"country,omitempty"`
	TotalUnits Count  `json:"totalUnits,omitempty"`
}
