// Package worker runs the background loops of the storefront client.
//
// PaymentPoller confirms an asynchronous payment by looking the order up by
// its reference until the backend has recorded it or the attempts run out.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dukerupert/wicket/internal/cart"
	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/service"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// PollState is the outcome of a payment confirmation loop.
type PollState string

const (
	// PollIdle is the state before a loop starts and after a torn-down one.
	PollIdle     PollState = "IDLE"
	PollChecking PollState = "CHECKING"
	PollSuccess  PollState = "SUCCESS"
	PollFailed   PollState = "FAILED"
)

// ErrPaymentUnconfirmed is returned when every attempt ran without the
// order appearing. The payment may still have gone through.
var ErrPaymentUnconfirmed = domain.Errorf(domain.EUNAVAILABLE, "",
	"We couldn't confirm your payment yet. If money was deducted, your order will appear shortly. Please check your order history.")

const stillVerifyingMsg = "Still verifying your payment. This can take up to a minute."

// OrderLookup finds an order by its payment reference. A nil order with a
// nil error means the backend has not recorded it yet.
type OrderLookup interface {
	GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error)
}

// PollConfig holds poller timing.
type PollConfig struct {
	// Interval separates the end of one lookup from the start of the next
	Interval time.Duration

	// MaxAttempts bounds the number of lookups
	MaxAttempts int

	// NoticeAttempt is the attempt after which the user is told the check is
	// still running. Zero disables the notice.
	NoticeAttempt int

	// RedirectDelay is shown on the success state before navigating
	RedirectDelay time.Duration
}

// PaymentPoller confirms one payment reference at a time.
type PaymentPoller struct {
	config    PollConfig
	lookup    OrderLookup
	store     *cart.Store
	notifier  service.Notifier
	navigator service.Navigator
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics

	mu       sync.Mutex
	state    PollState
	attempts int
	order    *domain.Order
	ref      string
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPaymentPoller creates a poller. Zero config values take the defaults:
// a 2s interval, 30 attempts, a notice after attempt 15 and a 1.5s redirect.
func NewPaymentPoller(
	lookup OrderLookup,
	store *cart.Store,
	notifier service.Notifier,
	navigator service.Navigator,
	config PollConfig,
	logger *slog.Logger,
	metrics *telemetry.BusinessMetrics,
) *PaymentPoller {
	// Set defaults
	if config.Interval <= 0 {
		config.Interval = 2 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 30
	}
	if config.NoticeAttempt == 0 {
		config.NoticeAttempt = 15
	}
	if config.RedirectDelay <= 0 {
		config.RedirectDelay = 1500 * time.Millisecond
	}
	if notifier == nil {
		notifier = service.NopNotifier{}
	}
	if navigator == nil {
		navigator = service.NopNavigator{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PaymentPoller{
		config:    config,
		lookup:    lookup,
		store:     store,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger.With("component", "payment_poller"),
		metrics:   metrics,
		state:     PollIdle,
	}
}

// Run polls for ref until the order appears, the attempts run out or ctx
// is done. An empty ref leaves the poller idle and returns at once.
//
// Each lookup runs inline and the next one is scheduled only after it
// returns, so lookups never overlap however slow the backend is.
func (p *PaymentPoller) Run(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	p.mu.Lock()
	p.state = PollChecking
	p.attempts = 0
	p.order = nil
	p.mu.Unlock()

	p.logger.Info("payment poller starting",
		"reference", ref,
		"interval", p.config.Interval,
		"max_attempts", p.config.MaxAttempts,
	)

	timer := time.NewTimer(p.config.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return p.abandon(ref, ctx.Err())
		case <-timer.C:
		}

		p.mu.Lock()
		p.attempts = attempt
		p.mu.Unlock()
		p.metrics.PaymentPollAttempt()

		order, err := p.lookup.GetOrderByReference(ctx, ref)
		if ctx.Err() != nil {
			return p.abandon(ref, ctx.Err())
		}

		switch {
		case err != nil:
			// lookup failures count as "not yet"
			p.logger.Debug("payment lookup failed", "reference", ref, "attempt", attempt, "error", err)
		case order != nil:
			return p.confirm(ctx, ref, order, attempt)
		}

		if attempt == p.config.NoticeAttempt {
			p.notifier.Info(stillVerifyingMsg)
		}

		timer.Reset(p.config.Interval)
	}

	return p.giveUp(ref)
}

// Watch runs the loop for ref in the background. A loop for a different
// reference is torn down first. A loop still running for ref is kept, while
// one that already ended is started again.
func (p *PaymentPoller) Watch(ctx context.Context, ref string) {
	p.mu.Lock()
	if p.cancel != nil && p.ref == ref {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.Stop()

	if ref == "" {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.ref = ref
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer p.release(done)
		defer telemetry.RecoverWithSentry()
		_ = p.Run(loopCtx, ref)
	}()
}

// release forgets a loop that ended on its own, so a later Watch for the
// same reference starts a fresh one.
func (p *PaymentPoller) release(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != done {
		return
	}
	p.cancel()
	p.cancel, p.done, p.ref = nil, nil, ""
}

// Stop tears down the background loop and waits for it to exit. No lookup
// is issued after Stop returns.
func (p *PaymentPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done, p.ref = nil, nil, ""
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the background loop, if any, has finished.
func (p *PaymentPoller) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// State returns the current state.
func (p *PaymentPoller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns the number of lookups made by the current loop.
func (p *PaymentPoller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Order returns the confirmed order once the state is PollSuccess.
func (p *PaymentPoller) Order() *domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order
}

func (p *PaymentPoller) confirm(ctx context.Context, ref string, order *domain.Order, attempt int) error {
	p.store.Clear()
	p.metrics.CartClear("payment_confirmed")
	p.metrics.PaymentPollDone("success")

	p.mu.Lock()
	p.state = PollSuccess
	p.order = order
	p.mu.Unlock()

	p.logger.Info("payment confirmed", "reference", ref, "order_id", order.ID, "attempt", attempt)
	p.notifier.Info("Payment confirmed")

	redirect := time.NewTimer(p.config.RedirectDelay)
	defer redirect.Stop()

	select {
	case <-ctx.Done():
		// torn down while showing the success state
		return nil
	case <-redirect.C:
	}

	p.navigator.Navigate(service.Route{View: service.ViewOrderConfirmation, OrderID: order.ID})
	return nil
}

func (p *PaymentPoller) giveUp(ref string) error {
	p.mu.Lock()
	p.state = PollFailed
	p.mu.Unlock()

	p.logger.Warn("payment not confirmed", "reference", ref, "attempts", p.config.MaxAttempts)
	p.metrics.PaymentPollDone("timeout")
	telemetry.CaptureMessage("payment confirmation timed out", sentry.LevelWarning, map[string]interface{}{
		"reference": ref,
		"attempts":  p.config.MaxAttempts,
	})

	p.notifier.Warn(domain.ErrorMessage(ErrPaymentUnconfirmed))
	return ErrPaymentUnconfirmed
}

func (p *PaymentPoller) abandon(ref string, err error) error {
	p.mu.Lock()
	p.state = PollIdle
	p.mu.Unlock()

	p.logger.Debug("payment poller stopped", "reference", ref)
	p.metrics.PaymentPollDone("cancelled")
	return err
}
