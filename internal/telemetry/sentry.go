package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// SentryConfig selects where client errors are reported.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate of zero reports every error.
	SampleRate float64

	// TracesSampleRate of zero turns tracing off.
	TracesSampleRate float64

	Debug bool
}

// reporting is set once InitSentry has a working client. Every helper
// below is a no-op until then.
var reporting atomic.Bool

// InitSentry starts error reporting and returns a flush to run on exit.
// A missing DSN leaves reporting off rather than failing startup.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	reporting.Store(false)
	noop := func() {}

	if !cfg.Enabled {
		logger.Info("error reporting disabled")
		return noop, nil
	}
	if cfg.DSN == "" {
		logger.Warn("SENTRY_DSN not set, error reporting disabled")
		return noop, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubEvent(event)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initializing sentry: %w", err)
	}
	reporting.Store(true)

	logger.Info("error reporting enabled",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return func() { sentry.Flush(flushTimeout) }, nil
}

// scrubEvent drops credentials from request headers before an event leaves
// the machine.
func scrubEvent(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	if event.Request != nil {
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
	}
	return event
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return reporting.Load()
}

func withExtras(scope *sentry.Scope, extras []map[string]interface{}) {
	for _, m := range extras {
		for k, v := range m {
			scope.SetExtra(k, v)
		}
	}
}

// CaptureError reports err with optional extras.
func CaptureError(err error, extras ...map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		withExtras(scope, extras)
		sentry.CaptureException(err)
	})
}

// CaptureMessage reports a condition that is not a Go error, such as a
// payment that could not be confirmed.
func CaptureMessage(message string, level sentry.Level, extras ...map[string]interface{}) {
	if !IsEnabled() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		withExtras(scope, extras)
		sentry.CaptureMessage(message)
	})
}

// SetUser tags later events with the signed-in customer.
func SetUser(id, email string) {
	if !IsEnabled() {
		return
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: id, Email: email})
	})
}

// ClearUser untags events after logout.
func ClearUser() {
	if !IsEnabled() {
		return
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{})
	})
}

func AddBreadcrumb(category, message string, data map[string]interface{}) {
	if !IsEnabled() {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Data:     data,
		Level:    sentry.LevelInfo,
	})
}

// StartSpan opens a span under ctx. Call finish when the operation ends.
func StartSpan(ctx context.Context, operation, description string) (context.Context, func()) {
	if !IsEnabled() {
		return ctx, func() {}
	}
	span := sentry.StartSpan(ctx, operation)
	span.Description = description
	return span.Context(), span.Finish
}

// RecoverWithSentry reports a panic and panics again. Defer it at the top
// of background goroutines.
func RecoverWithSentry() {
	r := recover()
	if r == nil {
		return
	}
	if IsEnabled() {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(flushTimeout)
	}
	panic(r)
}

// HTTPTransport records a span for each backend request.
type HTTPTransport struct {
	Transport http.RoundTripper
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	if !IsEnabled() {
		return next.RoundTrip(req)
	}

	span := sentry.StartSpan(req.Context(), "http.client")
	span.Description = req.Method + " " + req.URL.Path
	defer span.Finish()

	resp, err := next.RoundTrip(req)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	span.SetData("http.status_code", resp.StatusCode)
	return resp, nil
}
