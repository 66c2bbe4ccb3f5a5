package analytichttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/estatedesk/estatedesk/internal/analytics"
	"github.com/estatedesk/estatedesk/internal/ar"
)

var validate = validator.New()

var errBadNumber = errors.New("must be a positive integer")

type invoiceParams struct {
	Search         string `validate:"max=100"`
	Status         string `validate:"omitempty,oneof=draft pending paid overdue cancelled"`
	BuyerID        int64  `validate:"gte=0"`
	ProjectID      int64  `validate:"gte=0"`
	From           string `validate:"omitempty,datetime=2006-01-02"`
	To             string `validate:"omitempty,datetime=2006-01-02"`
	Sort           string `validate:"omitempty,oneof=number amount dueDate issueDate status"`
	Order          string `validate:"omitempty,oneof=asc desc"`
	IncludePending bool
}

type paymentParams struct {
	Search  string `validate:"max=100"`
	Status  string `validate:"omitempty,oneof=completed pending failed refunded"`
	Method  string `validate:"omitempty,oneof=cash bank_transfer credit_card check mortgage other"`
	BuyerID int64  `validate:"gte=0"`
	From    string `validate:"omitempty,datetime=2006-01-02"`
	To      string `validate:"omitempty,datetime=2006-01-02"`
}

func parseInvoiceParams(r *http.Request) (invoiceParams, error) {
	values := r.URL.Query()
	params := invoiceParams{
		Search: strings.TrimSpace(values.Get("q")),
		Status: string(ar.ParseInvoiceStatus(values.Get("status"))),
		From:   strings.TrimSpace(values.Get("from")),
		To:     strings.TrimSpace(values.Get("to")),
		Sort:   strings.TrimSpace(values.Get("sort")),
		Order:  strings.ToLower(strings.TrimSpace(values.Get("order"))),
	}
	var err error
	if params.BuyerID, err = parseID(values.Get("buyer_id")); err != nil {
		return params, fmt.Errorf("buyer_id %w", err)
	}
	if params.ProjectID, err = parseID(values.Get("project_id")); err != nil {
		return params, fmt.Errorf("project_id %w", err)
	}
	if params.IncludePending, err = parseBool(values.Get("include_pending")); err != nil {
		return params, fmt.Errorf("include_pending %w", err)
	}
	return params, nil
}

func (p invoiceParams) query() (analytics.InvoiceQuery, error) {
	from, to, err := dayRange(p.From, p.To)
	if err != nil {
		return analytics.InvoiceQuery{}, err
	}
	return analytics.InvoiceQuery{
		Filter: ar.InvoiceFilter{
			Search:    p.Search,
			Status:    ar.InvoiceStatus(p.Status),
			BuyerID:   p.BuyerID,
			ProjectID: p.ProjectID,
			From:      from,
			To:        to,
		},
		Sort:           ar.ParseSortKey(p.Sort),
		Desc:           p.Order == "desc",
		IncludePending: p.IncludePending,
	}, nil
}

func parsePaymentParams(r *http.Request) (paymentParams, error) {
	values := r.URL.Query()
	params := paymentParams{
		Search: strings.TrimSpace(values.Get("q")),
		Status: string(ar.ParsePaymentStatus(values.Get("status"))),
		Method: string(ar.ParsePaymentMethod(values.Get("method"))),
		From:   strings.TrimSpace(values.Get("from")),
		To:     strings.TrimSpace(values.Get("to")),
	}
	var err error
	if params.BuyerID, err = parseID(values.Get("buyer_id")); err != nil {
		return params, fmt.Errorf("buyer_id %w", err)
	}
	return params, nil
}

// filter assumes the params passed validation, so the dates parse.
func (p paymentParams) filter() ar.PaymentFilter {
	from, to, _ := dayRange(p.From, p.To)
	return ar.PaymentFilter{
		Search:  p.Search,
		Status:  ar.PaymentStatus(p.Status),
		Method:  ar.PaymentMethod(p.Method),
		BuyerID: p.BuyerID,
		From:    from,
		To:      to,
	}
}

func dayRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if rawFrom != "" {
		if from, err = time.Parse(time.DateOnly, rawFrom); err != nil {
			return from, to, fmt.Errorf("from: %w", err)
		}
	}
	if rawTo != "" {
		if to, err = time.Parse(time.DateOnly, rawTo); err != nil {
			return from, to, fmt.Errorf("to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, errors.New("to must not be before from")
	}
	return from, to, nil
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadNumber
	}
	return id, nil
}

func parseBool(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// describeValidation renders validator errors as "field: rule" pairs.
func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if field == "" {
			field = "value"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(field), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
