package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/wicket/internal/cart"
	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/service"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockLookup implements OrderLookup and records when each call started.
type mockLookup struct {
	mu      sync.Mutex
	calls   []time.Time
	confirm int // attempt that returns the order, 0 = never
	// confirmRef, if set, is confirmed on its first lookup
	confirmRef string
	err     error
	delay   time.Duration
	active  int
	overlap bool
}

func (m *mockLookup) GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error) {
	m.mu.Lock()
	m.calls = append(m.calls, time.Now())
	n := len(m.calls)
	m.active++
	if m.active > 1 {
		m.overlap = true
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if (m.confirm > 0 && n == m.confirm) || (m.confirmRef != "" && ref == m.confirmRef) {
		return &domain.Order{ID: "ord_" + ref, Reference: ref, Status: domain.OrderStatusConfirmed}, nil
	}
	return nil, m.err
}

func (m *mockLookup) callTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.calls...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, msg)
}

func (n *recordingNotifier) Error(msg string) {}

type recordingNavigator struct {
	mu     sync.Mutex
	routes []service.Route
}

func (n *recordingNavigator) Navigate(to service.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, to)
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

// ============================================================================
// Test Harness
// ============================================================================

const testInterval = 5 * time.Millisecond

type pollerHarness struct {
	poller    *PaymentPoller
	lookup    *mockLookup
	store     *cart.Store
	notifier  *recordingNotifier
	navigator *recordingNavigator
	metrics   *telemetry.BusinessMetrics
}

func newPollerHarness(t *testing.T, lookup *mockLookup) *pollerHarness {
	t.Helper()

	h := &pollerHarness{
		lookup:    lookup,
		store:     cart.New(nil),
		notifier:  &recordingNotifier{},
		navigator: &recordingNavigator{},
		metrics:   telemetry.NewBusinessMetrics("test", prometheus.NewRegistry()),
	}
	h.store.Add(cart.ProductRef{ProductID: "p1", Title: "Bat", Price: 1500})

	h.poller = NewPaymentPoller(lookup, h.store, h.notifier, h.navigator, PollConfig{
		Interval:      testInterval,
		MaxAttempts:   30,
		NoticeAttempt: 15,
		RedirectDelay: 10 * time.Millisecond,
	}, nil, h.metrics)
	return h
}

// ============================================================================
// Tests
// ============================================================================

func TestPaymentPoller_EmptyReferenceStaysIdle(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{})

	err := h.poller.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, PollIdle, h.poller.State())
	assert.Empty(t, h.lookup.callTimes())
}

func TestPaymentPoller_StopsAfterMaxAttempts(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{})

	err := h.poller.Run(context.Background(), "ref-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaymentUnconfirmed))
	assert.Equal(t, PollFailed, h.poller.State())

	calls := h.lookup.callTimes()
	require.Len(t, calls, 30)
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), testInterval, "attempt %d came too early", i+1)
	}

	// nothing fires once the loop has ended
	time.Sleep(10 * testInterval)
	assert.Len(t, h.lookup.callTimes(), 30)

	// the cart is kept and the message never claims the payment failed
	assert.Equal(t, 1, h.store.Snapshot().Units())
	require.Len(t, h.notifier.warns, 1)
	assert.Contains(t, h.notifier.warns[0], "order history")
	assert.NotContains(t, h.notifier.warns[0], "failed")
	assert.Equal(t, []string{stillVerifyingMsg}, h.notifier.infos)
	assert.Equal(t, 0, h.navigator.count())

	assert.Equal(t, 30.0, testutil.ToFloat64(h.metrics.PaymentPollAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.PaymentPollOutcome.WithLabelValues("timeout")))
}

func TestPaymentPoller_LookupErrorsAreSilent(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{err: errors.New("connection reset"), confirm: 3})

	require.NoError(t, h.poller.Run(context.Background(), "ref-1"))
	assert.Equal(t, PollSuccess, h.poller.State())
	assert.Empty(t, h.notifier.warns)
}

func TestPaymentPoller_EarlySuccess(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{confirm: 5})

	err := h.poller.Run(context.Background(), "ref-1")
	require.NoError(t, err)

	assert.Equal(t, PollSuccess, h.poller.State())
	assert.Equal(t, 5, h.poller.Attempts())
	assert.True(t, h.store.Snapshot().IsEmpty())
	require.NotNil(t, h.poller.Order())
	assert.Equal(t, "ord_ref-1", h.poller.Order().ID)

	time.Sleep(10 * testInterval)
	assert.Len(t, h.lookup.callTimes(), 5)

	require.Equal(t, 1, h.navigator.count())
	assert.Equal(t, service.Route{View: service.ViewOrderConfirmation, OrderID: "ord_ref-1"}, h.navigator.routes[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.PaymentPollOutcome.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CartCleared.WithLabelValues("payment_confirmed")))
}

func TestPaymentPoller_SlowLookupsNeverOverlap(t *testing.T) {
	lookup := &mockLookup{delay: 3 * testInterval, confirm: 4}
	h := newPollerHarness(t, lookup)

	require.NoError(t, h.poller.Run(context.Background(), "ref-1"))

	lookup.mu.Lock()
	defer lookup.mu.Unlock()
	assert.False(t, lookup.overlap)
	assert.Len(t, lookup.calls, 4)
}

func TestPaymentPoller_StopTearsDown(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{})

	h.poller.Watch(context.Background(), "ref-1")
	time.Sleep(4 * testInterval)
	h.poller.Stop()

	n := len(h.lookup.callTimes())
	assert.Less(t, n, 30)

	time.Sleep(10 * testInterval)
	assert.Len(t, h.lookup.callTimes(), n, "no lookup after teardown")
	assert.Equal(t, PollIdle, h.poller.State())
	assert.Equal(t, 1, h.store.Snapshot().Units())
}

func TestPaymentPoller_WatchNewReferenceRestarts(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{confirmRef: "ref-2"})

	h.poller.Watch(context.Background(), "ref-1")
	time.Sleep(3 * testInterval)

	// same reference keeps the running loop
	h.poller.Watch(context.Background(), "ref-1")
	assert.Equal(t, PollChecking, h.poller.State())

	h.poller.Watch(context.Background(), "ref-2")
	h.poller.Wait()

	assert.Equal(t, PollSuccess, h.poller.State())
	assert.Equal(t, "ord_ref-2", h.poller.Order().ID)
}

func TestPaymentPoller_WatchSameReferenceAfterFailure(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{})
	h.poller.config.MaxAttempts = 2

	h.poller.Watch(context.Background(), "ref-1")
	h.poller.Wait()
	require.Equal(t, PollFailed, h.poller.State())
	require.Len(t, h.lookup.callTimes(), 2)

	// coming back to the view retries the same reference
	h.poller.Watch(context.Background(), "ref-1")
	h.poller.Wait()

	assert.Equal(t, PollFailed, h.poller.State())
	assert.Len(t, h.lookup.callTimes(), 4)
}

func TestPaymentPoller_TeardownDuringRedirectSkipsNavigation(t *testing.T) {
	h := newPollerHarness(t, &mockLookup{confirm: 1})
	h.poller.config.RedirectDelay = time.Hour

	h.poller.Watch(context.Background(), "ref-1")
	require.Eventually(t, func() bool { return h.poller.State() == PollSuccess }, time.Second, time.Millisecond)

	h.poller.Stop()
	assert.Equal(t, 0, h.navigator.count())
	assert.True(t, h.store.Snapshot().IsEmpty())
}

func TestNewPaymentPoller_Defaults(t *testing.T) {
	p := NewPaymentPoller(&mockLookup{}, cart.New(nil), nil, nil, PollConfig{}, nil, nil)

	assert.Equal(t, 2*time.Second, p.config.Interval)
	assert.Equal(t, 30, p.config.MaxAttempts)
	assert.Equal(t, 15, p.config.NoticeAttempt)
	assert.Equal(t, 1500*time.Millisecond, p.config.RedirectDelay)
}
