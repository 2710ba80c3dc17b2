package arns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

type RecordType string

const (
	RecordLease    RecordType = "lease"
	RecordPermabuy RecordType = "permabuy"
)

// Record is one registry entry. Timestamps are unix milliseconds; permabuy
// records carry no EndTimestamp.
type Record struct {
	Name           string     `json:"name"`
	ProcessID      string     `json:"processId"`
	Type           RecordType `json:"type"`
	StartTimestamp int64      `json:"startTimestamp"`
	EndTimestamp   *int64     `json:"endTimestamp,omitempty"`
	UndernameLimit int        `json:"undernameLimit,omitempty"`
	PurchasePrice  float64    `json:"purchasePrice,omitempty"`
}

// Leased reports whether the record is a lease with a finite end.
func (r Record) Leased() bool {
	return r.Type == RecordLease && r.EndTimestamp != nil && *r.EndTimestamp > 0
}

type PageRequest struct {
	Cursor    string
	Limit     int
	SortBy    string
	SortOrder string
	Type      RecordType
}

type Page struct {
	Items      []Record
	NextCursor string
	HasMore    bool
}

// UnmarshalJSON accepts items either as an array of records or as an object
// keyed by name. Keyed items are returned in name order.
func (p *Page) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items      json.RawMessage `json:"items"`
		NextCursor *string         `json:"nextCursor"`
		HasMore    bool            `json:"hasMore"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.HasMore = raw.HasMore
	p.NextCursor = ""
	if raw.NextCursor != nil {
		p.NextCursor = *raw.NextCursor
	}
	p.Items = nil

	items := bytes.TrimSpace(raw.Items)
	switch {
	case len(items) == 0 || bytes.Equal(items, []byte("null")):
		return nil
	case items[0] == '[':
		return json.Unmarshal(items, &p.Items)
	case items[0] == '{':
		var keyed map[string]Record
		if err := json.Unmarshal(items, &keyed); err != nil {
			return err
		}
		for _, name := range slices.Sorted(maps.Keys(keyed)) {
			r := keyed[name]
			if r.Name == "" {
				r.Name = name
			}
			p.Items = append(p.Items, r)
		}
		return nil
	default:
		return fmt.Errorf("%w: items must be an array or an object", ErrInvalidRegistryPage)
	}
}

// RegistryClient reads leased records from the registry HTTP API.
type RegistryClient struct {
	baseURL string
	client  *http.Client
}

func NewRegistryClient(baseURL string, client *http.Client) *RegistryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RegistryClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// GetLeasedRecords fetches one page. Any transport, status or decoding
// failure is wrapped in ErrRegistryUnavailable.
func (c *RegistryClient) GetLeasedRecords(ctx context.Context, req PageRequest) (Page, error) {
	q := url.Values{}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.SortBy != "" {
		q.Set("sortBy", req.SortBy)
	}
	if req.SortOrder != "" {
		q.Set("sortOrder", req.SortOrder)
	}
	if req.Type != "" {
		q.Set("type", string(req.Type))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, fmt.Errorf("%w: status %d: %s", ErrRegistryUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("%w: %w: %w", ErrRegistryUnavailable, ErrInvalidRegistryPage, err)
	}
	return page, nil
}
