// Package sheets fetches signup rows from a Google Sheets CSV export.
package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// One export request per 2 seconds; also paces retries.
	requestInterval = 2 * time.Second

	// HTTP client settings.
	defaultTimeout = 30 * time.Second

	// Attempts per fetch, counting the first one.
	maxAttempts = 3

	exportHost = "docs.google.com"
)

// Client is a rate-limited Google Sheets CSV export client.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a new export client. A non-positive timeout falls
// back to the 30s default.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
		logger:  logger,
	}
}

// FetchTable downloads the sheet tab identified by sheetID and gid and
// parses it. Transient upstream failures are retried; the error returned
// after the last attempt wears the usual sentinels (ErrNotFound,
// ErrForbidden, ErrRateLimited, ErrServer).
func (c *Client) FetchTable(ctx context.Context, sheetID, gid string) (*Table, error) {
	table, err := c.fetchWithURL(ctx, exportURL(sheetID, gid))
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %s: %w", sheetID, err)
	}
	return table, nil
}

// exportURL builds the CSV export URL for one tab of a spreadsheet.
func exportURL(sheetID, gid string) string {
	query := url.Values{}
	query.Set("format", "csv")
	query.Set("gid", gid)

	u := url.URL{
		Scheme:   "https",
		Host:     exportHost,
		Path:     "/spreadsheets/d/" + sheetID + "/export",
		RawQuery: query.Encode(),
	}
	return u.String()
}

// fetchWithURL fetches and parses a CSV export from a full URL (split
// out so tests can point it at a local server).
func (c *Client) fetchWithURL(ctx context.Context, rawURL string) (*Table, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, err := c.doAttempt(ctx, rawURL)
		if err == nil {
			return parseTable(bytes.NewReader(body))
		}
		if ctx.Err() != nil || attempt >= maxAttempts || !isTransient(err) {
			return nil, err
		}

		c.logger.Warn("sheet fetch failed, retrying",
			"attempt", attempt,
			"error", err,
		)
	}
}

// doAttempt executes one export request.
func (c *Client) doAttempt(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "tally-sync/1.0")

	c.logger.Debug("sheet export request", "url", rawURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// A private sheet redirects to the login page, which comes back
		// as 200 text/html instead of the CSV payload.
		if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			return nil, ErrForbidden
		}
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusForbidden:
		return nil, ErrForbidden
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// isTransient reports whether another attempt could succeed.
func isTransient(err error) bool {
	if errors.Is(err, ErrServer) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
