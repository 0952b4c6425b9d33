package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func sse(events ...string) string {
	var sb strings.Builder
	for _, e := range events {
		fmt.Fprintf(&sb, "event: x\ndata: %s\n\n", e)
	}
	return sb.String()
}

func textDelta(s string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]string{"type": "text_delta", "text": s},
	})
	return string(b)
}

func newTestClient(url string) *Client {
	c := NewClient("test-key", "test-model").WithBaseURL(url)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func collect(t *testing.T, c *Client) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := c.Stream(context.Background(), Request{
		System:    "sys",
		Messages:  []Turn{{Role: "user", Content: "hi"}},
		MaxTokens: 64,
	}, func(s string) error {
		sb.WriteString(s)
		return nil
	})
	return sb.String(), err
}

func TestClient_StreamsTextDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream || req.System != "sys" || req.MaxTokens != 64 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sse(
			`{"type":"message_start"}`,
			textDelta("Rate "),
			`{"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{}"}}`,
			textDelta("parity."),
			`{"type":"message_stop"}`,
		)))
	}))
	defer srv.Close()

	got, err := collect(t, newTestClient(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Rate parity." {
		t.Errorf("expected %q, got %q", "Rate parity.", got)
	}
}

func TestClient_RetriesBeforeFirstByte(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sse(textDelta("ok"), `{"type":"message_stop"}`)))
	}))
	defer srv.Close()

	got, err := collect(t, newTestClient(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls.Load() != 3 {
		t.Errorf("expected ok after 3 calls, got %q after %d", got, calls.Load())
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"type":"invalid_request_error"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := collect(t, newTestClient(srv.URL))
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryable(err) {
		t.Errorf("400 should not be retryable: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

func TestClient_NoRetryAfterFirstByte(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(sse(
			textDelta("partial"),
			`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`,
		)))
	}))
	defer srv.Close()

	got, err := collect(t, newTestClient(srv.URL))
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "partial" {
		t.Errorf("expected delivered text to be kept, got %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retry after text was delivered, got %d calls", calls.Load())
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := collect(t, newTestClient(srv.URL))
	if err == nil || !IsRetryable(err) {
		t.Fatalf("expected wrapped retryable error, got %v", err)
	}
	if int(calls.Load()) != MaxRetries+1 {
		t.Errorf("expected %d calls, got %d", MaxRetries+1, calls.Load())
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}
