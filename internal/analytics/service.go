package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/estatedesk/estatedesk/internal/ar"
	"github.com/estatedesk/estatedesk/internal/snapshot"
)

var (
	// ErrBuyerNotFound indicates the buyer id is not in the current snapshot.
	ErrBuyerNotFound = errors.New("analytics: buyer not found")
	// ErrInvoiceNotFound indicates the invoice id is not in the current snapshot.
	ErrInvoiceNotFound = errors.New("analytics: invoice not found")
)

const (
	defaultNowBucket   = time.Minute
	defaultLoadTimeout = 30 * time.Second
	loadFlightKey      = "snapshot:load"
	initFlightKey      = "snapshot:init"
)

// Options tunes a Service. Zero values select defaults.
type Options struct {
	// NowBucket is the granularity "now" is truncated to. Reports computed
	// within one bucket share a cache entry.
	NowBucket   time.Duration
	LoadTimeout time.Duration
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Service serves dashboard reports from the latest snapshot, memoising each
// report in Redis.
type Service struct {
	loader      snapshot.Loader
	cache       *Cache
	logger      *slog.Logger
	bucket      time.Duration
	loadTimeout time.Duration
	clock       func() time.Time

	current  atomic.Pointer[snapshot.Snapshot]
	lastBump atomic.Int64
	group    singleflight.Group
}

// NewService wires a snapshot Loader with a Cache helper.
func NewService(loader snapshot.Loader, cache *Cache, opts Options) *Service {
	s := &Service{
		loader:      loader,
		cache:       cache,
		logger:      opts.Logger,
		bucket:      opts.NowBucket,
		loadTimeout: opts.LoadTimeout,
		clock:       opts.Clock,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.bucket <= 0 {
		s.bucket = defaultNowBucket
	}
	if s.loadTimeout <= 0 {
		s.loadTimeout = defaultLoadTimeout
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// SnapshotInfo describes the snapshot currently served.
type SnapshotInfo struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loadedAt"`
	Counts   map[string]int `json:"counts"`
	Changed  bool           `json:"changed"`
}

func infoOf(snap *snapshot.Snapshot) SnapshotInfo {
	if snap == nil {
		return SnapshotInfo{Counts: map[string]int{}}
	}
	return SnapshotInfo{ID: snap.ID.String(), Source: snap.Source, LoadedAt: snap.LoadedAt, Counts: snap.Counts()}
}

// Current reports the snapshot in use without loading one.
func (s *Service) Current() (SnapshotInfo, bool) {
	snap := s.current.Load()
	return infoOf(snap), snap != nil
}

// Refresh reloads the snapshot. When the content changed, the cache version is
// bumped so every process drops its memoised reports. On failure the previous
// snapshot keeps being served.
func (s *Service) Refresh(ctx context.Context) (SnapshotInfo, error) {
	prev := s.current.Load()
	snap, err := s.reload(ctx)
	if err != nil {
		return infoOf(prev), err
	}
	info := infoOf(snap)
	if prev != nil && prev.ID == snap.ID {
		return info, nil
	}
	info.Changed = true
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
		return info, nil
	}
	s.lastBump.Store(ver)
	return info, nil
}

// HandleBump reloads the snapshot after another process bumped the cache version.
func (s *Service) HandleBump(ctx context.Context, version int64) {
	if version != 0 && version == s.lastBump.Load() {
		return
	}
	if _, err := s.reload(ctx); err != nil {
		s.logger.Warn("reload after cache bump", slog.Int64("version", version), slog.Any("error", err))
	}
}

// Listen subscribes to cache bumps from other processes until ctx ends.
func (s *Service) Listen(ctx context.Context) error {
	return s.cache.ListenForInvalidation(ctx, s.logger, s.HandleBump)
}

// RunRefresher refreshes the snapshot every interval until ctx ends.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("scheduled snapshot refresh", slog.Any("error", err))
			}
		}
	}
}

// reload runs one shared load for all concurrent callers. The load is
// detached from the caller's cancellation and bounded by loadTimeout.
func (s *Service) reload(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.load(ctx, loadFlightKey, false)
}

// ensureLoaded loads the first snapshot unless another caller already did.
func (s *Service) ensureLoaded(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.load(ctx, initFlightKey, true)
}

func (s *Service) load(ctx context.Context, flightKey string, onlyIfMissing bool) (*snapshot.Snapshot, error) {
	v, err, _ := s.buildOnce(ctx, flightKey, func() (interface{}, error) {
		if onlyIfMissing {
			if snap := s.current.Load(); snap != nil {
				return snap, nil
			}
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		snap, err := s.loader.Load(loadCtx)
		if err != nil {
			recordSnapshotFailure()
			attrs := []any{slog.Any("error", err)}
			if prev := s.current.Load(); prev != nil {
				attrs = append(attrs, slog.String("serving", prev.ID.String()))
			}
			s.logger.Warn("snapshot load failed", attrs...)
			return nil, err
		}
		s.current.Store(snap)
		recordSnapshotLoad(snap.LoadedAt)
		counts := snap.Counts()
		s.logger.Info("snapshot loaded",
			slog.String("snapshot_id", snap.ID.String()),
			slog.String("source", snap.Source),
			slog.Int("invoices", counts["invoices"]),
			slog.Int("payments", counts["payments"]),
		)
		return snap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: load snapshot: %w", err)
	}
	return v.(*snapshot.Snapshot), nil
}

// scope returns the snapshot to read and the bucketed "now" for one request.
func (s *Service) scope(ctx context.Context) (*snapshot.Snapshot, time.Time, error) {
	now := s.clock().UTC().Truncate(s.bucket)
	if snap := s.current.Load(); snap != nil {
		return snap, now, nil
	}
	snap, err := s.ensureLoaded(ctx)
	return snap, now, err
}

// memo serves report from the cache or builds it once. Cache outages degrade
// to direct computation.
func (s *Service) memo(ctx context.Context, report, params string, snap *snapshot.Snapshot, now time.Time, dest interface{}, build func() interface{}) error {
	start := time.Now()
	defer func() { observeBuildDuration(report, time.Since(start)) }()

	key, err := s.cache.BuildKey(ctx, "dashboard", report, snap.ID.String(), params, strconv.FormatInt(now.Unix(), 10))
	if err == nil {
		var hit bool
		hit, err = s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (interface{}, error) {
			v, err, _ := s.buildOnce(ctx, key, func() (interface{}, error) { return build(), nil })
			return v, err
		})
		if err == nil {
			if hit {
				recordCacheHit(report)
			} else {
				recordCacheMiss(report)
			}
			return nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.logger.Warn("dashboard cache unavailable", slog.String("report", report), slog.Any("error", err))
	recordCacheMiss(report)
	return roundTrip(build(), dest)
}

// InvoiceSummary returns the collection summary for the invoices matching q.
func (s *Service) InvoiceSummary(ctx context.Context, q InvoiceQuery) (ar.SummaryStats, error) {
	var out ar.SummaryStats
	snap, now, err := s.scope(ctx)
	if err != nil {
		return out, err
	}
	err = s.memo(ctx, "invoice_summary", q.token(), snap, now, &out, func() interface{} {
		invoices := ar.FilterInvoices(snap.Invoices, snap.Index(), q.Filter, now)
		return ar.SummarizeWithPolicy(invoices, snap.Payments, now, q.policy())
	})
	return out, err
}

// Invoices returns the reconciled rows for the invoices matching q in q's order.
func (s *Service) Invoices(ctx context.Context, q InvoiceQuery) ([]ar.InvoiceRow, error) {
	var out []ar.InvoiceRow
	snap, now, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	err = s.memo(ctx, "invoices", q.token(), snap, now, &out, func() interface{} {
		idx := snap.Index()
		invoices := ar.FilterInvoices(snap.Invoices, idx, q.Filter, now)
		ar.SortInvoices(invoices, q.Sort, q.Desc)
		return ar.Reconcile(invoices, snap.Payments, idx, now, q.policy())
	})
	return out, err
}

// Invoice returns one reconciled row.
func (s *Service) Invoice(ctx context.Context, id int64, includePending bool) (ar.InvoiceRow, error) {
	snap, now, err := s.scope(ctx)
	if err != nil {
		return ar.InvoiceRow{}, err
	}
	idx := snap.Index()
	inv := idx.Invoice(id)
	if inv == nil {
		return ar.InvoiceRow{}, fmt.Errorf("%w: %d", ErrInvoiceNotFound, id)
	}
	rows := ar.Reconcile([]ar.Invoice{*inv}, snap.Payments, idx, now, ar.Policy{IncludePending: includePending})
	return rows[0], nil
}

// PaymentSummary rolls up the payments matching q.
func (s *Service) PaymentSummary(ctx context.Context, q PaymentQuery) (ar.PaymentSummary, error) {
	var out ar.PaymentSummary
	snap, now, err := s.scope(ctx)
	if err != nil {
		return out, err
	}
	err = s.memo(ctx, "payment_summary", q.token(), snap, now, &out, func() interface{} {
		return ar.SummarizePayments(ar.FilterPayments(snap.Payments, snap.Index(), q.Filter))
	})
	return out, err
}

// Buyers summarises every buyer matching q.
func (s *Service) Buyers(ctx context.Context, q BuyerQuery) ([]ar.BuyerSummary, error) {
	var out []ar.BuyerSummary
	snap, now, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	err = s.memo(ctx, "buyers", q.token(), snap, now, &out, func() interface{} {
		return ar.SummarizeBuyers(ar.FilterBuyers(snap.Buyers, q.Filter), snap.Invoices, snap.Payments, snap.Units)
	})
	return out, err
}

// BuyerSummary summarises one buyer's holdings and receivables.
func (s *Service) BuyerSummary(ctx context.Context, buyerID int64) (ar.BuyerSummary, error) {
	var out ar.BuyerSummary
	snap, now, err := s.scope(ctx)
	if err != nil {
		return out, err
	}
	buyer := snap.Index().Buyer(buyerID)
	if buyer == nil {
		return out, fmt.Errorf("%w: %d", ErrBuyerNotFound, buyerID)
	}
	err = s.memo(ctx, "buyer_summary", strconv.FormatInt(buyerID, 10), snap, now, &out, func() interface{} {
		return ar.SummarizeBuyer(*buyer, snap.Invoices, snap.Payments, snap.Units)
	})
	return out, err
}

// UnitSummary rolls up unit inventory, optionally for one project.
func (s *Service) UnitSummary(ctx context.Context, q UnitQuery) (ar.UnitSummary, error) {
	var out ar.UnitSummary
	snap, now, err := s.scope(ctx)
	if err != nil {
		return out, err
	}
	err = s.memo(ctx, "unit_summary", q.token(), snap, now, &out, func() interface{} {
		if q.ProjectID == 0 {
			return ar.SummarizeUnits(snap.Units)
		}
		units := make([]ar.Unit, 0)
		for _, u := range snap.Units {
			if u.ProjectID == q.ProjectID {
				units = append(units, u)
			}
		}
		return ar.SummarizeUnits(units)
	})
	return out, err
}

// ProjectSummary rolls up unit inventory per project.
func (s *Service) ProjectSummary(ctx context.Context) ([]ar.ProjectSummary, error) {
	var out []ar.ProjectSummary
	snap, now, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	err = s.memo(ctx, "project_summary", "-", snap, now, &out, func() interface{} {
		return ar.SummarizeProjects(snap.Projects, snap.Units)
	})
	return out, err
}

// Aging buckets the open balances of the invoices matching q. Balances always
// use completed payments only.
func (s *Service) Aging(ctx context.Context, q InvoiceQuery) (ar.AgingReport, error) {
	var out ar.AgingReport
	snap, now, err := s.scope(ctx)
	if err != nil {
		return out, err
	}
	q.IncludePending = false
	err = s.memo(ctx, "aging", q.token(), snap, now, &out, func() interface{} {
		return ar.Aging(ar.FilterInvoices(snap.Invoices, snap.Index(), q.Filter, now), snap.Payments, now)
	})
	return out, err
}

// Warmup refreshes the snapshot and precomputes the unfiltered reports for
// the current bucket.
func (s *Service) Warmup(ctx context.Context) (SnapshotInfo, error) {
	info, err := s.Refresh(ctx)
	if err != nil {
		return info, err
	}
	if _, err := s.InvoiceSummary(ctx, InvoiceQuery{}); err != nil {
		return info, fmt.Errorf("warm invoice summary: %w", err)
	}
	if _, err := s.PaymentSummary(ctx, PaymentQuery{}); err != nil {
		return info, fmt.Errorf("warm payment summary: %w", err)
	}
	if _, err := s.UnitSummary(ctx, UnitQuery{}); err != nil {
		return info, fmt.Errorf("warm unit summary: %w", err)
	}
	if _, err := s.ProjectSummary(ctx); err != nil {
		return info, fmt.Errorf("warm project summary: %w", err)
	}
	if _, err := s.Aging(ctx, InvoiceQuery{}); err != nil {
		return info, fmt.Errorf("warm aging: %w", err)
	}
	return info, nil
}

func normalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
