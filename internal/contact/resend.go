package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendBaseURL = "https://api.resend.com"

// ResendMailer sends email through the Resend REST API.
type ResendMailer struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{
		apiKey:     apiKey,
		baseURL:    resendBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL points the mailer at a different API host.
func (m *ResendMailer) WithBaseURL(u string) *ResendMailer {
	m.baseURL = strings.TrimRight(u, "/")
	return m
}

func (m *ResendMailer) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
