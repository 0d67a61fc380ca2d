//go:build !integration

package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/infra/metrics"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestServer(t *testing.T) {
	metrics.MustRegister()

	t.Run("should report a healthy store", func(t *testing.T) {
		// Arrange
		s := NewServer(config.HTTPConfig{}, pingFunc(func(context.Context) error { return nil }), newTestLogger())
		rec := httptest.NewRecorder()

		// Act
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("trace id header missing")
		}
	})

	t.Run("should return 503 when the store is down", func(t *testing.T) {
		s := NewServer(config.HTTPConfig{}, pingFunc(func(context.Context) error { return errors.New("database is locked") }), newTestLogger())
		rec := httptest.NewRecorder()

		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("should expose prometheus metrics", func(t *testing.T) {
		metrics.IncTelegramUpdate("text")
		s := NewServer(config.HTTPConfig{}, pingFunc(func(context.Context) error { return nil }), newTestLogger())
		srv := httptest.NewServer(s.Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/metrics")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "telegram_updates_received_total") {
			t.Errorf("metrics not exposed: %d", resp.StatusCode)
		}
	})

	t.Run("should recover from handler panics", func(t *testing.T) {
		h := Recover(newTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("should not listen when disabled", func(t *testing.T) {
		s := NewServer(config.HTTPConfig{Port: 0}, pingFunc(func(context.Context) error { return nil }), newTestLogger())
		if err := s.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := s.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
	})

	t.Run("should stay stopped when shut down before it starts", func(t *testing.T) {
		// Arrange
		s := NewServer(config.HTTPConfig{Port: 18099}, pingFunc(func(context.Context) error { return nil }), newTestLogger())
		if err := s.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}

		// Act
		done := make(chan error, 1)
		go func() { done <- s.Start() }()

		// Assert
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Start kept serving after Shutdown")
		}
	})
}
