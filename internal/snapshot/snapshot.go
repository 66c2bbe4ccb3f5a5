package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/estatedesk/estatedesk/internal/ar"
)

// ErrUpstream indicates the snapshot source could not be read.
var ErrUpstream = errors.New("snapshot: upstream unavailable")

// Loader reads a full snapshot of the dashboard collections.
//
//go:generate mockgen -destination=mocks/mock_loader.go -source=snapshot.go Loader
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot is an immutable copy of every collection a dashboard page reads.
// Callers must not mutate the slices. ID is derived from the content, so two
// processes that load identical data agree on it and share cache entries.
type Snapshot struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time

	Buyers   []ar.Buyer
	Units    []ar.Unit
	Projects []ar.Project
	Invoices []ar.Invoice
	Payments []ar.Payment

	indexOnce sync.Once
	index     *ar.Index
}

// New assembles a snapshot and builds its lookup index.
func New(source string, loadedAt time.Time, buyers []ar.Buyer, units []ar.Unit, projects []ar.Project, invoices []ar.Invoice, payments []ar.Payment) *Snapshot {
	buyers, units, projects = orEmpty(buyers), orEmpty(units), orEmpty(projects)
	invoices, payments = orEmpty(invoices), orEmpty(payments)
	return &Snapshot{
		ID:       contentID(buyers, units, projects, invoices, payments),
		Source:   source,
		LoadedAt: loadedAt,
		Buyers:   buyers,
		Units:    units,
		Projects: projects,
		Invoices: invoices,
		Payments: payments,
		index:    ar.NewIndex(buyers, units, projects, invoices),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func contentID(buyers []ar.Buyer, units []ar.Unit, projects []ar.Project, invoices []ar.Invoice, payments []ar.Payment) uuid.UUID {
	raw, err := json.Marshal(struct {
		Buyers   []ar.Buyer   `json:"buyers"`
		Units    []ar.Unit    `json:"units"`
		Projects []ar.Project `json:"projects"`
		Invoices []ar.Invoice `json:"invoices"`
		Payments []ar.Payment `json:"payments"`
	}{buyers, units, projects, invoices, payments})
	if err != nil {
		return uuid.New()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, raw)
}

// Index returns the foreign key index for the snapshot.
func (s *Snapshot) Index() *ar.Index {
	if s == nil {
		return nil
	}
	s.indexOnce.Do(func() {
		if s.index == nil {
			s.index = ar.NewIndex(s.Buyers, s.Units, s.Projects, s.Invoices)
		}
	})
	return s.index
}

// Counts reports collection sizes for logging.
func (s *Snapshot) Counts() map[string]int {
	if s == nil {
		return map[string]int{}
	}
	return map[string]int{
		"buyers":   len(s.Buyers),
		"units":    len(s.Units),
		"projects": len(s.Projects),
		"invoices": len(s.Invoices),
		"payments": len(s.Payments),
	}
}

// Empty returns a snapshot with no records, used before the first load succeeds.
func Empty(now time.Time) *Snapshot {
	return New("empty", now, nil, nil, nil, nil, nil)
}
