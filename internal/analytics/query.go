package analytics

import (
	"net/url"
	"strconv"
	"time"

	"github.com/estatedesk/estatedesk/internal/ar"
)

// InvoiceQuery selects and orders invoices for a dashboard report.
type InvoiceQuery struct {
	Filter         ar.InvoiceFilter
	Sort           ar.SortKey
	Desc           bool
	IncludePending bool
}

// PaymentQuery selects payments for the payment summary.
type PaymentQuery struct {
	Filter ar.PaymentFilter
}

// BuyerQuery selects buyers for the buyer list.
type BuyerQuery struct {
	Filter ar.BuyerFilter
}

// UnitQuery scopes the unit summary to a project when ProjectID is set.
type UnitQuery struct {
	ProjectID int64
}

func (q InvoiceQuery) policy() ar.Policy {
	return ar.Policy{IncludePending: q.IncludePending}
}

// token renders the query as a canonical string for cache keys.
func (q InvoiceQuery) token() string {
	v := url.Values{}
	setString(v, "q", normalizeSearch(q.Filter.Search))
	setString(v, "status", string(q.Filter.Status))
	setID(v, "buyer", q.Filter.BuyerID)
	setID(v, "project", q.Filter.ProjectID)
	setDay(v, "from", q.Filter.From)
	setDay(v, "to", q.Filter.To)
	setString(v, "sort", string(q.Sort))
	if q.Desc {
		v.Set("desc", "1")
	}
	if q.IncludePending {
		v.Set("pending", "1")
	}
	return encodeToken(v)
}

func (q PaymentQuery) token() string {
	v := url.Values{}
	setString(v, "q", normalizeSearch(q.Filter.Search))
	setString(v, "status", string(q.Filter.Status))
	setString(v, "method", string(q.Filter.Method))
	setID(v, "buyer", q.Filter.BuyerID)
	setDay(v, "from", q.Filter.From)
	setDay(v, "to", q.Filter.To)
	return encodeToken(v)
}

func (q BuyerQuery) token() string {
	v := url.Values{}
	setString(v, "q", normalizeSearch(q.Filter.Search))
	return encodeToken(v)
}

func (q UnitQuery) token() string {
	v := url.Values{}
	setID(v, "project", q.ProjectID)
	return encodeToken(v)
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setID(v url.Values, key string, id int64) {
	if id != 0 {
		v.Set(key, strconv.FormatInt(id, 10))
	}
}

func setDay(v url.Values, key string, t time.Time) {
	if !t.IsZero() {
		v.Set(key, t.Format(time.DateOnly))
	}
}

func encodeToken(v url.Values) string {
	if len(v) == 0 {
		return "-"
	}
	return v.Encode()
}
