package app

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const testModeEnv = "ESTATEDESK_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the ESTATEDESK_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

// Background is the part of the dashboard service that runs for the lifetime
// of the server.
type Background interface {
	Listen(ctx context.Context) error
	RunRefresher(ctx context.Context, interval time.Duration)
}

// StartBackground subscribes to cache bumps and starts the periodic refresher.
// Both stop when ctx ends. Nothing starts in test mode.
func StartBackground(ctx context.Context, svc Background, cfg *Config, logger *slog.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	if svc == nil || InTestMode() {
		return &wg
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := svc.Listen(ctx); err != nil {
		logger.Warn("subscribe to dashboard cache bumps", slog.Any("error", err))
	}
	interval := time.Duration(0)
	if cfg != nil {
		interval = cfg.RefreshInterval
	}
	if interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RunRefresher(ctx, interval)
		}()
	}
	return &wg
}
