// Package email sends transactional mail through a Resend-compatible HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
)

// ErrSendFailed is returned for every delivery failure. The provider's
// response is included in the wrapped message but callers only see this
// generic error.
var ErrSendFailed = errors.New("email send failed")

// Message is one outgoing email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send posts msg to the provider and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (id string, err error) {
	defer func() { metrics.EmailSendTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	if len(msg.To) == 0 {
		return "", fmt.Errorf("%w: no recipients", ErrSendFailed)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("%w: marshal message: %v", ErrSendFailed, err)
	}

	url := fmt.Sprintf("%s/emails", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrSendFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrSendFailed, err)
	}
	return out.ID, nil
}
