package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrService marks failures of the remote billing service.
var ErrService = errors.New("billing service failed")

// Session is the billing provider's answer to a session request: either a
// session id to resume checkout with, or a URL to send the user to.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client is a thin HTTP client for the billing API that creates checkout
// and customer-portal sessions. Calls are fire-and-forget: a failure
// surfaces as an error with no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a billing client. The baseURL should be the root URL of the
// billing API (e.g. https://billing.example.com/api).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckoutSession starts a checkout for the given price on behalf of
// the given user and returns the provider's session.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID, userID string) (Session, error) {
	return c.post(ctx, "/create-checkout-session", map[string]string{
		"priceId": priceID,
		"userId":  userID,
	})
}

// CreatePortalSession opens a customer-portal session for managing an
// existing subscription.
func (c *Client) CreatePortalSession(ctx context.Context, userID string) (Session, error) {
	return c.post(ctx, "/create-portal-session", map[string]string{
		"userId": userID,
	})
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (Session, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Session{}, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data),
	)
	if err != nil {
		return Session{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: calling %s: %v", ErrService, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, fmt.Errorf("%w: reading response: %v", ErrService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Session{}, fmt.Errorf("%w: %s returned HTTP %d: %s",
			ErrService, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return Session{}, fmt.Errorf("%w: decoding session: %v", ErrService, err)
	}
	if session.ID == "" && session.URL == "" {
		return Session{}, fmt.Errorf("%w: response carried neither session id nor url", ErrService)
	}

	return session, nil
}
