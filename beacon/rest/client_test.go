package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beacon-chat/beacon-go/beacon"
)

// fasthttp.Client speaks plain HTTP/1.1, so a standard net/http/httptest
// server is a faithful stand-in for the REST API without a live network.

func TestDoDecodesSuccessfulResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.Header().Set("X-RateLimit-Reset", "9999999999")
		w.Write([]byte(`{"url":"wss://gateway.example/"}`))
	}))
	defer server.Close()

	client := NewClient(beacon.Config{Token: "t", UserAgent: "test"}, server.URL)

	resp, err := client.Do(context.Background(), "/gateway", "GET", "/gateway", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := resp.Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if body.URL != "wss://gateway.example/" {
		t.Fatalf("unexpected url: %q", body.URL)
	}
}

func TestDoRetriesOnceOnTransportFailure(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n == 1 {
			// simulate a dropped connection on the first attempt.
			hijacker, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hijacker.Hijack()
				conn.Close()

				return
			}
		}

		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.Header().Set("X-RateLimit-Reset", "9999999999")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(beacon.Config{Token: "t", UserAgent: "test", Retries: 1}, server.URL)

	_, err := client.Do(context.Background(), "/a", "GET", "/a", nil)
	if err != nil {
		t.Fatalf("expected retry to succeed, got: %v", err)
	}

	if attempts != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", attempts)
	}
}

func TestDoSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.Header().Set("X-RateLimit-Reset", "9999999999")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}))
	defer server.Close()

	client := NewClient(beacon.Config{Token: "t", UserAgent: "test"}, server.URL)

	_, err := client.Do(context.Background(), "/missing", "GET", "/missing", nil)

	var statusErr *beacon.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v (%T)", err, err)
	}

	if statusErr.Status != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", statusErr.Status)
	}

	decoded, ok := statusErr.Decoded.(map[string]any)
	if !ok {
		t.Fatalf("expected Decoded to hold the parsed body, got %T", statusErr.Decoded)
	}

	if decoded["message"] != "not found" {
		t.Fatalf("unexpected decoded body: %v", decoded)
	}
}

func TestDoRateLimitFallsBackToBodyRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "0")
		// reset already due, so the route bucket does not park the retry.
		w.Header().Set("X-RateLimit-Reset", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after":0.01}`))
	}))
	defer server.Close()

	client := NewClient(beacon.Config{Token: "t", UserAgent: "test", Retries: 1}, server.URL)

	start := time.Now()
	_, err := client.Do(context.Background(), "/busy", "GET", "/busy", nil)

	var rateLimited *beacon.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected RateLimitedError, got %v (%T)", err, err)
	}

	if rateLimited.RetryAfter <= 0 {
		t.Fatalf("expected RetryAfter to be derived from the body, got %v", rateLimited.RetryAfter)
	}

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected two body-derived waits, elapsed only %v", elapsed)
	}
}

func TestDoSurfacesRateLimitedAfterRetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "0")
		// reset already due, so the route bucket does not park the retry.
		w.Header().Set("X-RateLimit-Reset", "0")
		w.Header().Set("Retry-After", "0.01")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(beacon.Config{Token: "t", UserAgent: "test", Retries: 1}, server.URL)

	start := time.Now()
	_, err := client.Do(context.Background(), "/busy", "GET", "/busy", nil)

	var rateLimited *beacon.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected RateLimitedError, got %v (%T)", err, err)
	}

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected two Retry-After waits, elapsed only %v", elapsed)
	}
}
