package arns_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/svc/arns"
)

func TestPage_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("array", func(t *testing.T) {
		var p arns.Page
		require.NoError(t, json.Unmarshal([]byte(`{
			"items":[{"name":"a","processId":"p1","type":"lease","startTimestamp":1,"endTimestamp":2}],
			"nextCursor":"a","hasMore":true}`), &p))
		require.Len(t, p.Items, 1)
		assert.Equal(t, "a", p.Items[0].Name)
		assert.True(t, p.Items[0].Leased())
		assert.Equal(t, "a", p.NextCursor)
		assert.True(t, p.HasMore)
	})

	t.Run("keyed by name", func(t *testing.T) {
		var p arns.Page
		require.NoError(t, json.Unmarshal([]byte(`{
			"items":{"zeta":{"type":"lease","endTimestamp":5},"alpha":{"type":"permabuy"}},
			"nextCursor":null,"hasMore":false}`), &p))
		require.Len(t, p.Items, 2)
		assert.Equal(t, "alpha", p.Items[0].Name)
		assert.False(t, p.Items[0].Leased())
		assert.Equal(t, "zeta", p.Items[1].Name)
		assert.Empty(t, p.NextCursor)
	})

	t.Run("invalid items", func(t *testing.T) {
		var p arns.Page
		err := json.Unmarshal([]byte(`{"items":"nope"}`), &p)
		assert.ErrorIs(t, err, arns.ErrInvalidRegistryPage)
	})
}

func TestRegistryClient_GetLeasedRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "c1", q.Get("cursor"))
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "name", q.Get("sortBy"))
		assert.Equal(t, "asc", q.Get("sortOrder"))
		assert.Equal(t, "lease", q.Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"name":"b","type":"lease","endTimestamp":10}],"nextCursor":"b","hasMore":true}`))
	}))
	defer srv.Close()

	page, err := arns.NewRegistryClient(srv.URL, srv.Client()).GetLeasedRecords(context.Background(), arns.PageRequest{
		Cursor: "c1", Limit: 100, SortBy: "name", SortOrder: "asc", Type: arns.RecordLease,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b", page.NextCursor)
}

func TestRegistryClient_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream", http.StatusBadGateway)
		}},
		{"body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"items":`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := arns.NewRegistryClient(srv.URL, srv.Client()).GetLeasedRecords(context.Background(), arns.PageRequest{})
			assert.ErrorIs(t, err, arns.ErrRegistryUnavailable)
		})
	}
}

func TestResolverClient_Resolve(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ardrive":
			_, _ = w.Write([]byte(`{"owner":"alice","txId":"tx1"}`))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := arns.NewResolverClient(srv.URL, 50*time.Millisecond, srv.Client())

	o, err := c.Resolve(context.Background(), "ardrive")
	require.NoError(t, err)
	assert.Equal(t, arns.Ownership{Owner: "alice", RootTxID: "tx1"}, o)

	_, err = c.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, arns.ErrResolverFailed)

	start := time.Now()
	_, err = c.Resolve(context.Background(), "slow")
	assert.ErrorIs(t, err, arns.ErrResolverFailed)
	assert.Less(t, time.Since(start), time.Second)
}
