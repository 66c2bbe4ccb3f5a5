package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/estatedesk/estatedesk/internal/ar"
)

// FileLoader reads an exported snapshot document from disk. The document holds
// one array per collection: {"buyers": [...], "units": [...], ...}.
type FileLoader struct {
	path  string
	clock func() time.Time
}

// NewFileLoader constructs a loader for path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path, clock: func() time.Time { return time.Now().UTC() }}
}

// Load reads and decodes the file.
func (l *FileLoader) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUpstream, l.path, err)
	}
	var doc struct {
		Buyers   json.RawMessage `json:"buyers"`
		Units    json.RawMessage `json:"units"`
		Projects json.RawMessage `json:"projects"`
		Invoices json.RawMessage `json:"invoices"`
		Payments json.RawMessage `json:"payments"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUpstream, l.path, err)
	}

	var (
		buyers   []ar.Buyer
		units    []ar.Unit
		projects []ar.Project
		invoices []ar.Invoice
		payments []ar.Payment
	)
	for name, target := range map[string]struct {
		raw  json.RawMessage
		dest interface{}
	}{
		"buyers":   {doc.Buyers, &buyers},
		"units":    {doc.Units, &units},
		"projects": {doc.Projects, &projects},
		"invoices": {doc.Invoices, &invoices},
		"payments": {doc.Payments, &payments},
	} {
		if err := decodeCollection(target.raw, target.dest); err != nil {
			return nil, fmt.Errorf("%w: decode %s.%s: %v", ErrUpstream, l.path, name, err)
		}
	}
	return New("file", l.clock(), buyers, units, projects, invoices, payments), nil
}
