package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/estatedesk/estatedesk/internal/ar"
)

const maxBodyBytes = 64 << 20

// RESTLoader reads the collections from the sales backend's JSON API.
type RESTLoader struct {
	baseURL    string
	token      string
	httpClient *http.Client
	clock      func() time.Time
}

// NewRESTLoader constructs a loader for baseURL. token is sent as a bearer
// credential when non-empty.
func NewRESTLoader(baseURL, token string, timeout time.Duration) *RESTLoader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTLoader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Load fetches all five collections concurrently. Any failure aborts the load.
func (l *RESTLoader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		buyers   []ar.Buyer
		units    []ar.Unit
		projects []ar.Project
		invoices []ar.Invoice
		payments []ar.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.fetch(gctx, "/buyers", &buyers) })
	g.Go(func() error { return l.fetch(gctx, "/units", &units) })
	g.Go(func() error { return l.fetch(gctx, "/projects", &projects) })
	g.Go(func() error { return l.fetch(gctx, "/invoices", &invoices) })
	g.Go(func() error { return l.fetch(gctx, "/payments", &payments) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New("rest", l.clock(), buyers, units, projects, invoices, payments), nil
}

func (l *RESTLoader) fetch(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: GET %s returned status %d", ErrUpstream, path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrUpstream, path, err)
	}
	if err := decodeCollection(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}

// decodeCollection accepts either a bare JSON array or an envelope with the
// array under "data". null and empty bodies decode as an empty collection.
func decodeCollection(body []byte, dest interface{}) error {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		raw = bytes.TrimSpace(envelope.Data)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return nil
		}
	}
	return json.Unmarshal(raw, dest)
}
