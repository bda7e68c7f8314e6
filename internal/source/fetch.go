package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxFetchBytes = 5 << 20

// StatusError is a non-2xx upstream response after retries were exhausted.
// Adapters inspect the code to tell a flaky origin (5xx, degrade to
// link-only) from everything else.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch failed %d: %s", e.Code, e.URL)
}

// IsServerError reports whether err carries an upstream 5xx status.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

// Client is the fetching primitive both adapters share: bounded-timeout GET
// with linear-backoff retry.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	Retries    int
}

func NewClient(timeout time.Duration, userAgent string, retries int) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		Retries:    retries,
	}
}

// FetchText performs one GET. A non-2xx response is a hard failure returned
// as *StatusError.
func (c *Client) FetchText(ctx context.Context, url string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, URL: url}
	}

	b, err := readAllLimit(resp.Body, maxFetchBytes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FetchTextWithRetry retries FetchText with a delay that grows linearly with
// the attempt number. The last error, StatusError included, is returned
// as-is so callers can still inspect the status.
func (c *Client) FetchTextWithRetry(ctx context.Context, url string, headers map[string]string) (string, error) {
	var lastErr error
	for i := 0; i <= c.Retries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, time.Duration(500*i)*time.Millisecond); err != nil {
				return "", err
			}
		}
		text, err := c.FetchText(ctx, url, headers)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func readAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: max}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("response too large")
	}
	return b, nil
}
