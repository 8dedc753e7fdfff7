// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	// maxDescriptorBytes is the upper bound on descriptor responses (10 MB).
	maxDescriptorBytes = 10 << 20

	// defaultTimeout bounds a whole request, including the body transfer.
	defaultTimeout = 5 * time.Minute

	// progressChunk is the copy buffer size; progress is reported once per chunk.
	progressChunk = 32 << 10
)

// ErrUnexpectedStatus is the sentinel error wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type (
	// StatusError is returned when the server answers with a non-200 status.
	StatusError struct {
		URL        string // Redacted request URL
		StatusCode int
	}

	// Progress describes how much of a download has completed. Total is -1
	// when the server did not announce a length.
	Progress struct {
		Done  int64
		Total int64
	}

	// ProgressFunc receives download progress. It is called from the
	// downloading goroutine and must not block.
	ProgressFunc func(Progress)

	// Client performs HTTP transfers against a release server.
	Client struct {
		httpClient *http.Client
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns ErrUnexpectedStatus so callers can use errors.Is for detection.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Percent returns the completed share in the range [0, 100], or -1 when the
// total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Done) * 100 / float64(p.Total)
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the overall request timeout of the default HTTP client.
// It has no effect when combined with WithHTTPClient.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 && cl.httpClient == http.DefaultClient {
			cl.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a Client. Without options it uses a dedicated
// http.Client with a five minute timeout and the "web2board" User-Agent.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  "web2board",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == http.DefaultClient {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

// Fetch returns the body of a small document such as a version descriptor.
// Bodies larger than 10 MB are rejected.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", redactURL(rawURL), err)
	}
	if len(body) > maxDescriptorBytes {
		return nil, fmt.Errorf("reading %s: response exceeds %d bytes", redactURL(rawURL), maxDescriptorBytes)
	}
	return body, nil
}

// Download streams the resource at rawURL into dst, creating or truncating
// it. A partially written dst is removed on failure. progress may be nil.
func (c *Client) Download(ctx context.Context, rawURL, dst string, progress ProgressFunc) (err error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", dst, closeErr)
		}
		if err != nil {
			// Best-effort removal of partially written file.
			_ = os.Remove(dst)
		}
	}()

	if err := copyWithProgress(ctx, f, resp.Body, resp.ContentLength, progress); err != nil {
		return fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	return nil
}

// get issues a GET request and returns the response when the status is 200.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", redactURL(rawURL), err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", redactURL(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: redactURL(rawURL), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// copyWithProgress copies src to dst in fixed-size chunks, reporting the
// running total after each chunk and stopping early when ctx is canceled.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) error {
	if total <= 0 {
		total = -1
	}
	buf := make([]byte, progressChunk)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			done += int64(n)
			if progress != nil {
				progress(Progress{Done: done, Total: total})
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages, preventing accidental exposure of tokens or sensitive data.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
