package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRenderedRequiresParallelism(t *testing.T) {
	t.Parallel()

	_, err := NewRendered(RenderedConfig{}, zap.NewNop())
	require.ErrorIs(t, err, ErrRendererDisabled)

	r, err := NewRendered(RenderedConfig{MaxParallel: 2}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, DefaultUserAgent, r.cfg.UserAgent)
	require.Equal(t, 30*time.Second, r.cfg.NavigationTimeout)
	require.Equal(t, time.Second, r.cfg.SettleDelay)
}

func TestRenderedNilReceiver(t *testing.T) {
	t.Parallel()

	var r *Rendered
	_, err := r.Fetch(context.Background(), "https://techcorp.com/jobs/1")
	require.ErrorIs(t, err, ErrRendererDisabled)
	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRenderedShutdownBeforeLaunch(t *testing.T) {
	t.Parallel()

	r, err := NewRendered(RenderedConfig{MaxParallel: 1}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRenderedFetchAfterShutdown(t *testing.T) {
	t.Parallel()

	r, err := NewRendered(RenderedConfig{MaxParallel: 1}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))

	// Teardown consumes the launch slot, so no browser starts afterwards.
	_, err = r.Fetch(context.Background(), "https://techcorp.com/jobs/1")
	require.ErrorIs(t, err, ErrNoContent)
	require.NoError(t, r.Shutdown(context.Background()), "repeat shutdown is a no-op")
}

func TestRenderedSlotAcquisition(t *testing.T) {
	t.Parallel()

	r, err := NewRendered(RenderedConfig{MaxParallel: 1}, zap.NewNop())
	require.NoError(t, err)

	release, err := r.acquireSlot(context.Background())
	require.NoError(t, err)

	// The only slot is held; a canceled waiter must not block.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.acquireSlot(ctx)
	require.ErrorIs(t, err, context.Canceled)

	release()
	release2, err := r.acquireSlot(context.Background())
	require.NoError(t, err)
	release2()
}

func TestRenderedDomainBudget(t *testing.T) {
	t.Parallel()

	r, err := NewRendered(RenderedConfig{MaxParallel: 1, DomainQPS: 0.001}, zap.NewNop())
	require.NoError(t, err)

	// First call consumes the burst token immediately.
	require.NoError(t, r.waitDomainBudget(context.Background(), "https://techcorp.com/jobs/1"))

	// A different domain has its own budget.
	require.NoError(t, r.waitDomainBudget(context.Background(), "https://acme.io/jobs/2"))

	// The second call for the first domain has to wait far longer than the
	// context allows.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, r.waitDomainBudget(ctx, "https://techcorp.com/jobs/1"))

	require.Error(t, r.waitDomainBudget(context.Background(), "::bad::"))
}

func TestRenderedBudgetDisabled(t *testing.T) {
	t.Parallel()

	r, err := NewRendered(RenderedConfig{MaxParallel: 1}, zap.NewNop())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.waitDomainBudget(context.Background(), "https://techcorp.com/jobs/1"))
	}
}
