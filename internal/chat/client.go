// Package chat proxies teaching-assistant conversations to the Anthropic
// Messages API and streams the reply text back to the reader.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// Request is one completion call.
type Request struct {
	System    string
	Messages  []Turn
	MaxTokens int
}

// Turn is a validated conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Streamer produces reply text incrementally. onText is called once per
// text delta, in order.
type Streamer interface {
	Stream(ctx context.Context, req Request, onText func(string) error) error
}

// Client calls the Anthropic Messages API with streaming enabled.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		// No overall timeout: replies stream for as long as the model writes.
		// The request context bounds the call instead.
		httpClient: &http.Client{},
		backoff:    Backoff,
	}
}

// WithBaseURL points the client at a different API host.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type messagesRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system,omitempty"`
	Messages  []Turn `json:"messages"`
	Stream    bool   `json:"stream"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Stream sends req and forwards text deltas to onText. Transient failures
// are retried until the first delta has been delivered; after that an error
// is returned as is, since the caller has already written part of a reply.
func (c *Client) Stream(ctx context.Context, req Request, onText func(string) error) error {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  req.Messages,
		Stream:    true,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		started, err := c.streamOnce(ctx, body, onText)
		if err == nil {
			return nil
		}
		lastErr = err
		if started || !IsRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("anthropic api: retries exhausted: %w", lastErr)
}

func (c *Client) streamOnce(ctx context.Context, body []byte, onText func(string) error) (started bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return false, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}
		return false, fmt.Errorf("anthropic api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return started, fmt.Errorf("decode stream event: %w", err)
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta == nil || ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
				continue
			}
			started = true
			if err := onText(ev.Delta.Text); err != nil {
				return started, err
			}
		case "error":
			if ev.Error == nil {
				return started, fmt.Errorf("anthropic stream error")
			}
			if ev.Error.Type == "overloaded_error" || ev.Error.Type == "api_error" {
				return started, &RetryableError{Message: ev.Error.Type + ": " + ev.Error.Message}
			}
			return started, fmt.Errorf("anthropic error: %s: %s", ev.Error.Type, ev.Error.Message)
		case "message_stop":
			return started, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return started, fmt.Errorf("read stream: %w", err)
	}
	return started, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
