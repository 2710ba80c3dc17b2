package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/pkg/binder"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var p payload
	err := binder.JSON()(newRequest(`{"name":"ardrive","count":2}`, "application/json; charset=utf-8"), &p)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "ardrive", Count: 2}, p)
}

func TestJSON_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		opts        []binder.JSONOption
		want        error
	}{
		{"missing content type", `{}`, "", nil, binder.ErrMissingContentType},
		{"wrong media type", `{}`, "text/plain", nil, binder.ErrUnsupportedMediaType},
		{"malformed", `{"name":`, "application/json", nil, binder.ErrFailedToParseJSON},
		{"unknown field", `{"nope":1}`, "application/json", nil, binder.ErrFailedToParseJSON},
		{"trailing data", `{} {}`, "application/json", nil, binder.ErrFailedToParseJSON},
		{"empty", ``, "application/json", nil, binder.ErrFailedToParseJSON},
		{"too large", `{"name":"0123456789"}`, "application/json", []binder.JSONOption{binder.WithMaxSize(8)}, binder.ErrFailedToParseJSON},
		{"optional empty", ``, "application/json", []binder.JSONOption{binder.Optional()}, binder.ErrBinderNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := binder.JSON(tt.opts...)(newRequest(tt.body, tt.contentType), &p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJSON_AllowUnknownFields(t *testing.T) {
	t.Parallel()

	var p payload
	err := binder.JSON(binder.AllowUnknownFields())(newRequest(`{"name":"a","extra":true}`, "application/json"), &p)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)
}
