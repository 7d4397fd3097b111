// Package httpjson posts JSON documents to model-serving endpoints and hands
// back the raw reply for the caller to decode.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout = 45 * time.Second
	// MaxResponseBytes caps how much of a reply is read.
	MaxResponseBytes = 8 << 20
)

// StatusError reports a non-2xx reply. Body holds what the server sent.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

type Client struct {
	http   *http.Client
	header http.Header
	logger *slog.Logger
}

// New wraps hc. A nil hc gets DefaultTimeout. header is sent with every
// request after the defaults, so it may override Content-Type.
func New(hc *http.Client, header http.Header, logger *slog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: hc, header: header.Clone(), logger: logger}
}

// Post encodes body, sends it to url and returns the reply body. On a non-2xx
// status the body is returned together with a *StatusError.
func (c *Client) Post(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	for k, vs := range c.header {
		req.Header[k] = vs
	}

	logger := c.logger.With("req_id", reqID, "url", url)
	start := time.Now()
	logger.Debug("http.request", "bytes", len(payload))

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, &StatusError{Code: resp.StatusCode, Body: raw}
	}
	return raw, nil
}
