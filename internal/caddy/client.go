// Package caddy implements a client for the Caddy admin API, covering the
// small slice of it devmesh needs: wildcard domain discovery, route
// create/delete by ID, named-server management, and the read endpoints the
// status dashboard aggregates.
package caddy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultAdminURL is where a locally running Caddy listens by default.
const DefaultAdminURL = "http://localhost:2019"

// Discovery and read calls are speculative probes against a proxy that may
// not be running, so they get a short timeout. Mutating calls get a longer
// one but are never retried: the route-create POST is not idempotent and a
// retry could register a duplicate route.
const (
	readTimeout   = 2 * time.Second
	mutateTimeout = 5 * time.Second
)

const maxErrorBodyBytes = 4096

// Client talks to one Caddy admin endpoint.
type Client struct {
	adminURL string
	log      *slog.Logger

	readClient   *http.Client
	mutateClient *http.Client
}

// New creates a Client for the admin API at adminURL (e.g.
// "http://localhost:2019").
func New(adminURL string, logger *slog.Logger) *Client {
	return &Client{
		adminURL:     strings.TrimSuffix(adminURL, "/"),
		log:          logger,
		readClient:   &http.Client{Timeout: readTimeout},
		mutateClient: &http.Client{Timeout: mutateTimeout},
	}
}

// AdminURL returns the normalized admin base URL.
func (c *Client) AdminURL() string {
	return c.adminURL
}

// getJSON issues a read GET and decodes the 200 response body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.getRaw(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// getRaw issues a read GET and returns the 200 response body.
func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adminURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.readClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

// sendJSON issues a mutating request (POST/PUT/DELETE) with an optional
// JSON body and drains the response. Any 2xx status counts as success.
func (c *Client) sendJSON(ctx context.Context, method, path string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.adminURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.mutateClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return fmt.Errorf("admin API returned %d", resp.StatusCode)
	}
	return fmt.Errorf("admin API returned %d: %s", resp.StatusCode, msg)
}
