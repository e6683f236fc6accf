// Package remote is the client for the hosted row store backing the app.
// Rows live in per-kind tables (transactions, goals, tax_entries,
// user_profiles) scoped by the authenticated owner; the service enforces
// row-level isolation out of band, we only thread the session through.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrNotAuthenticated is returned when a call needs a session and none
	// (or an expired one) is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrWriteFailed covers network and service errors during persistence.
	ErrWriteFailed = errors.New("remote write failed")
)

// Session identifies the authenticated owner for a call. A nil session means
// unauthenticated.
type Session struct {
	Owner string
	Token string
}

// Authenticated reports whether the session can be used for remote calls.
func (s *Session) Authenticated() bool {
	return s != nil && s.Owner != "" && s.Token != ""
}

// Client talks to the hosted backend's REST surface.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
}

func New(baseURL, apiKey string, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// do performs one row-store request. out may be nil when the response body is
// not needed.
func (c *Client) do(ctx context.Context, session *Session, method, table, query string, body, out any) error {
	if !session.Authenticated() {
		return ErrNotAuthenticated
	}

	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(table))
	if query != "" {
		u += "?" + query
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrNotAuthenticated
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("remote request rejected", "table", table, "method", method, "status", resp.StatusCode, "body", string(payload))
		return fmt.Errorf("%w: %s %s returned %d", ErrWriteFailed, method, table, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func ownerFilter(session *Session) string {
	return "owner=eq." + url.QueryEscape(session.Owner)
}

func idFilter(id string) string {
	return "id=eq." + url.QueryEscape(id)
}
