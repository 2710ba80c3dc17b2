package arns

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultResolveTimeout is the hard limit on one resolver call.
const DefaultResolveTimeout = 10 * time.Second

// ResolverClient looks up the owner and root transaction of a name with
// GET {baseURL}/{name}.
type ResolverClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewResolverClient uses DefaultResolveTimeout when timeout is not positive.
func NewResolverClient(baseURL string, timeout time.Duration, client *http.Client) *ResolverClient {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &ResolverClient{baseURL: strings.TrimRight(baseURL, "/"), client: client, timeout: timeout}
}

// Resolve fails with ErrResolverFailed on timeout, transport error, non-2xx
// status or an undecodable body. It never retries.
func (c *ResolverClient) Resolve(ctx context.Context, name string) (Ownership, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(name), nil)
	if err != nil {
		return Ownership{}, fmt.Errorf("%w: %w", ErrResolverFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Ownership{}, fmt.Errorf("%w: %s: %w", ErrResolverFailed, name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Ownership{}, fmt.Errorf("%w: %s: status %d", ErrResolverFailed, name, resp.StatusCode)
	}

	var o Ownership
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		return Ownership{}, fmt.Errorf("%w: %s: decode: %w", ErrResolverFailed, name, err)
	}
	return o, nil
}
