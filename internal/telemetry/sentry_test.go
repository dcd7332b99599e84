package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSentry_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cleanup, err := InitSentry(SentryConfig{Enabled: false}, logger)
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	cleanup()
	assert.False(t, IsEnabled())

	// enabled without a DSN degrades to disabled
	cleanup, err = InitSentry(SentryConfig{Enabled: true}, logger)
	require.NoError(t, err)
	cleanup()
	assert.False(t, IsEnabled())

	// capture helpers are safe no-ops while disabled
	CaptureError(errors.New("boom"), map[string]interface{}{"k": "v"})
	SetUser("u1", "a@b.c")
	ClearUser()
	AddBreadcrumb("cart", "add", nil)
}

func TestHTTPTransport_PassesThroughWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestScrubEvent(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{Headers: map[string]string{
			"Authorization": "Bearer tok-123",
			"Cookie":        "sid=1",
			"Accept":        "application/json",
		}},
	}

	got := scrubEvent(event)
	require.NotNil(t, got)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, got.Request.Headers)

	assert.Nil(t, scrubEvent(nil))
}
