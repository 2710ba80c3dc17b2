package webhook

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
	"unicode/utf8"
)

const userAgent = "arnsnotify-webhook/1.0"

// Sender posts JSON payloads to webhook endpoints with retries and optional
// circuit breaking. Use NewSender to create instances.
type Sender struct {
	client *http.Client
}

func NewSender() *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewSenderWithClient uses client for every request. A nil client falls back
// to NewSender defaults.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		return NewSender()
	}
	return &Sender{client: client}
}

// Send marshals data to JSON and POSTs it to webhookURL.
// A json.RawMessage or []byte value is sent as is.
//
// Non-2xx responses surface as *StatusError wrapped in ErrPermanentFailure
// (most 4xx) or ErrWebhookDeliveryFailed (after retries are exhausted).
func (s *Sender) Send(ctx context.Context, webhookURL string, data any, opts ...SendOption) error {
	payload, err := encodePayload(data)
	if err != nil {
		return err
	}

	if err := validateInputs(webhookURL, payload); err != nil {
		return err
	}

	cfg := newSendConfig(opts)
	if cfg.breaker != nil && !cfg.breaker.Allow() {
		return ErrCircuitOpen
	}

	var lastErr error
	for n := 1; n <= cfg.retries+1; n++ {
		if n > 1 {
			if err := sleep(ctx, cfg.backoff(n-1)); err != nil {
				return err
			}
		}

		att := s.post(ctx, webhookURL, payload, cfg)
		att.Number = n
		if cfg.observe != nil {
			cfg.observe(att)
		}
		if cfg.breaker != nil {
			if att.OK() {
				cfg.breaker.RecordSuccess()
			} else {
				cfg.breaker.RecordFailure()
			}
		}

		if att.OK() {
			return nil
		}
		lastErr = att.Err
		if isPermanentError(att.StatusCode) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, lastErr)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrWebhookDeliveryFailed, cfg.retries+1, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func encodePayload(data any) ([]byte, error) {
	switch v := data.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return payload, nil
}

func validateInputs(webhookURL string, payload []byte) error {
	if webhookURL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	return nil
}

func (s *Sender) post(ctx context.Context, webhookURL string, payload []byte, cfg *sendConfig) Attempt {
	began := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return Attempt{Elapsed: time.Since(began), Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header = cfg.header.Clone()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		att := Attempt{Elapsed: time.Since(began), Err: fmt.Errorf("%w: %w", ErrTemporaryFailure, err)}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			att.Err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return att
	}
	defer func() { _ = resp.Body.Close() }()

	att := Attempt{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	att.Elapsed = time.Since(began)
	if att.OK() {
		return att
	}

	att.Err = &StatusError{StatusCode: resp.StatusCode, Body: bodySnippet(body, 200)}
	return att
}

// bodySnippet flattens body to one line of valid UTF-8 no longer than limit
// bytes, cut on a rune boundary.
func bodySnippet(body []byte, limit int) string {
	s := strings.ToValidUTF8(strings.ReplaceAll(string(body), "\n", " "), "\uFFFD")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// isPermanentError reports 4xx responses that will not change on retry.
// 408, 425 and 429 are retried.
func isPermanentError(statusCode int) bool {
	if statusCode < 400 || statusCode >= 500 {
		return false
	}
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}
