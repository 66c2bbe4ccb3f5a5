package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBackground struct {
	listened  atomic.Int32
	refreshed atomic.Int32
}

func (f *fakeBackground) Listen(ctx context.Context) error {
	f.listened.Add(1)
	return nil
}

func (f *fakeBackground) RunRefresher(ctx context.Context, interval time.Duration) {
	f.refreshed.Add(1)
	<-ctx.Done()
}

func TestStartBackground(t *testing.T) {
	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	t.Cleanup(RefreshTestMode)

	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeBackground{}
	wg := StartBackground(ctx, svc, &Config{RefreshInterval: time.Minute}, nil)
	cancel()
	wg.Wait()

	require.Equal(t, int32(1), svc.listened.Load())
	require.Equal(t, int32(1), svc.refreshed.Load())
}

func TestStartBackgroundSkippedInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	t.Cleanup(RefreshTestMode)

	svc := &fakeBackground{}
	StartBackground(context.Background(), svc, &Config{RefreshInterval: time.Minute}, nil).Wait()
	require.Zero(t, svc.listened.Load())
	require.True(t, InTestMode())
}
