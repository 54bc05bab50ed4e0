// Package gateway talks to a PayPal-shaped dispute REST API. Client serves both as the dispute
// source and as the response sink.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/dispute"
)

const (
	disputesPath       = "/v1/customer/disputes"
	requestIDHeader    = "PayPal-Request-Id"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 2048
)

// ErrUnauthorized is returned when the API rejects the configured token.
var ErrUnauthorized = errors.New("gateway: unauthorized")

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type Client struct {
	base   string
	token  string
	client *http.Client
	log    zerolog.Logger
}

// Receipt is the API's acknowledgement of a sent message.
type Receipt struct {
	ID         string    `json:"id"`
	DisputeID  string    `json:"dispute_id"`
	ReceivedAt time.Time `json:"received_at"`
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("gateway: base URL: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{base: base, token: cfg.Token, client: client, log: cfg.Logger}, nil
}

// ListDisputes fetches every dispute the API reports.
func (c *Client) ListDisputes(ctx context.Context) ([]dispute.Dispute, error) {
	body, err := c.do(ctx, http.MethodGet, disputesPath, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: list disputes: %w", err)
	}
	disputes, err := dispute.DecodeList(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: list disputes: %w", err)
	}
	return disputes, nil
}

// SubmitResponse sends the submission as the seller's message on the dispute, keyed by its
// RequestID so a resent submission is stored once.
func (c *Client) SubmitResponse(ctx context.Context, sub desk.Submission) error {
	_, err := c.SendMessage(ctx, sub.DisputeID, sub.Text, sub.RequestID)
	return err
}

// SendMessage posts text under requestID and returns the receipt. An empty requestID gets a
// fresh key.
func (c *Client) SendMessage(ctx context.Context, disputeID, text, requestID string) (Receipt, error) {
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return Receipt{}, err
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	path := fmt.Sprintf("%s/%s/send-message", disputesPath, url.PathEscape(disputeID))
	body, err := c.do(ctx, http.MethodPost, path, payload, http.Header{requestIDHeader: []string{requestID}})
	if err != nil {
		return Receipt{}, fmt.Errorf("gateway: send message to %s: %w", disputeID, err)
	}
	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("gateway: send message to %s: decode receipt: %w", disputeID, err)
	}
	c.log.Info().
		Str("dispute_id", disputeID).
		Str("request_id", requestID).
		Str("receipt_id", receipt.ID).
		Msg("response delivered")
	return receipt, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, header http.Header) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api call")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", dispute.ErrNotFound, apiMessage(body))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, apiMessage(body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("dispute API error: %s (%s)", resp.Status, apiMessage(body))
	}
	return body, nil
}

// apiMessage pulls the human-readable message out of an error body.
func apiMessage(body []byte) string {
	var parsed struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Name != "" {
			return parsed.Name + ": " + parsed.Message
		}
		return parsed.Message
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
