package resilience

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response is kept on StatusError.
const maxErrorBody = 2048

// StatusError is a non-2xx response from the downstream.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resilience: upstream status %d", e.Code)
}

// Client sends JSON requests through a breaker with a per-attempt timeout.
// MaxAttempts of 1 (the default) disables retries.
type Client struct {
	HTTP        *http.Client
	Breaker     *Breaker
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
	Header      http.Header
}

// GetJSON issues a GET and decodes a 2xx body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	return c.do(ctx, http.MethodGet, url, nil, dst)
}

// PostJSON encodes body, POSTs it and decodes a 2xx response into dst.
func (c *Client) PostJSON(ctx context.Context, url string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("resilience: encode body: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, payload, dst)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, dst any) error {
	if c == nil || c.HTTP == nil {
		return errors.New("resilience: http client not configured")
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.Breaker != nil && !c.Breaker.Allow(ctx) {
			BreakerRejectedTotal.WithLabelValues(c.target()).Inc()
			return ErrOpenCircuit
		}
		started := time.Now()
		err := c.once(ctx, method, url, payload, dst)
		UpstreamDuration.WithLabelValues(c.target(), outcomeOf(err)).Observe(time.Since(started).Seconds())
		if c.Breaker != nil {
			c.Breaker.Report(ctx, !retryable(err))
		}
		if err == nil || !retryable(err) {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(c.BaseBackoff, attempt, c.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (c *Client) target() string {
	if c.Breaker == nil {
		return "default"
	}
	return c.Breaker.targetLabel()
}

func (c *Client) once(ctx context.Context, method, url string, payload []byte, dst any) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	for key, values := range c.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("resilience: decode response: %w", err)
	}
	return nil
}

// retryable reports transport errors and 5xx responses. 4xx means the
// downstream is healthy and the request is wrong.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled)
}
