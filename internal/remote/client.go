// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package remote reads customers and table availability from the read-only
// HTTP/JSON source.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/internal/model"
	"github.com/toeirei/seatmaster/internal/retry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL       = "https://s3-eu-west-1.amazonaws.com/quandoo-assessment"
	DefaultCustomersPath = "customer-list.json"
	DefaultTablesPath    = "table-map.json"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Snapshot is one consistent read of both remote documents.
type Snapshot struct {
	Customers []model.Customer
	Tables    []model.Table
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// DecodeError reports a response body that is not the expected JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.URL, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Client fetches the remote documents. The zero value is not usable; use New.
type Client struct {
	http          *http.Client
	baseURL       string
	customersPath string
	tablesPath    string
	policy        retry.Policy
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. with an httptest server client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPaths overrides the document paths below the base URL. Empty values
// keep the defaults.
func WithPaths(customers, tables string) Option {
	return func(c *Client) {
		if customers != "" {
			c.customersPath = customers
		}
		if tables != "" {
			c.tablesPath = tables
		}
	}
}

// WithRetry sets the attempt budget and initial backoff. Rate-limited
// responses wait four times the initial backoff.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.policy.MaxAttempts = maxAttempts
		c.policy.InitialBackoff = backoff
		c.policy.RateLimitBackoff = 4 * backoff
	}
}

// New returns a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:          &http.Client{Timeout: 10 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		customersPath: DefaultCustomersPath,
		tablesPath:    DefaultTablesPath,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
			MaxBackoff:       30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		logging.L.Warn("remote request failed, retrying", "attempt", attempt, "backoff", backoff, "err", err)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

type customerDTO struct {
	FirstName string `json:"customerFirstName"`
	LastName  string `json:"customerLastName"`
	ID        int    `json:"id"`
}

// Customers fetches the customer list.
func (c *Client) Customers(ctx context.Context) ([]model.Customer, error) {
	var dtos []customerDTO
	if err := c.getJSON(ctx, c.customersPath, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.Customer, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.Customer{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName})
	}
	return out, nil
}

// Tables fetches the availability bitmap. Table numbers are bitmap positions.
func (c *Client) Tables(ctx context.Context) ([]model.Table, error) {
	var bits []bool
	if err := c.getJSON(ctx, c.tablesPath, &bits); err != nil {
		return nil, err
	}
	out := make([]model.Table, 0, len(bits))
	for i, b := range bits {
		out = append(out, model.Table{Number: i, Available: b})
	}
	return out, nil
}

// Snapshot fetches both documents concurrently. It fails if either fails.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers, err := c.Customers(gctx)
		if err != nil {
			return fmt.Errorf("customers: %w", err)
		}
		snap.Customers = customers
		return nil
	})
	g.Go(func() error {
		tables, err := c.Tables(gctx)
		if err != nil {
			return fmt.Errorf("tables: %w", err)
		}
		snap.Tables = tables
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	return retry.DoVoid(ctx, c.policy, classify, func() error {
		return c.fetch(ctx, url, dest)
	})
}

func (c *Client) fetch(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dest); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	logging.L.Debug("remote fetch", "url", url, "elapsed", time.Since(start))
	return nil
}

// classify decides whether a failed request is worth another attempt.
func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) && !isTimeout(err) {
		return retry.Stop
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests:
			return retry.After
		case se.Code >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return retry.Stop
	}
	return retry.Retry
}

// isTimeout reports a client-side request timeout, which is transient even
// though it surfaces as a deadline error.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
