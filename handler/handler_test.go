package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/handler"
	"github.com/dmitrymomot/arnsnotify/pkg/binder"
	"github.com/dmitrymomot/arnsnotify/pkg/requestid"
)

type createReq struct {
	Name string `json:"name"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.Envelope {
	t.Helper()
	var env handler.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func serve(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWrap(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(ctx handler.Context, req createReq) handler.Response {
		if req.Name == "" {
			v := handler.ValidationError{}
			v.Add("name", "required")
			return handler.JSONError(v)
		}
		return handler.JSON(req, handler.WithStatus(http.StatusCreated), handler.WithMeta(map[string]any{"k": "v"}))
	}, handler.WithBinders(binder.JSON()))

	t.Run("bound", func(t *testing.T) {
		rec := serve(h, `{"name":"ardrive"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		env := decode(t, rec)
		assert.Equal(t, map[string]any{"name": "ardrive"}, env.Data)
		assert.Equal(t, "v", env.Meta["k"])
		assert.Nil(t, env.Error)
	})

	t.Run("validation", func(t *testing.T) {
		rec := serve(h, `{"name":""}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decode(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "validation_error", env.Error.Code)
		assert.Equal(t, []string{"required"}, env.Error.Details["name"])
	})

	t.Run("bind error", func(t *testing.T) {
		rec := serve(h, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decode(t, rec).Error.Code)
	})
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
	rec := serve(h, `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode(t, rec).Error.Code)
}

func TestErrorToDetail(t *testing.T) {
	t.Parallel()

	status, d := handler.ErrorToDetail(handler.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", d.Code)

	status, d = handler.ErrorToDetail(errors.New("pq: password=secret"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, d.Message, "secret")

	status, _ = handler.ErrorToDetail(binder.ErrUnsupportedMediaType)
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := requestid.Middleware(handler.Wrap(
		func(handler.Context, createReq) handler.Response { return nil },
		handler.WithBinders(binder.JSON()),
		handler.WithErrorHandler(handler.NewErrorHandler(log)),
	))

	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"bogus":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestid.Header, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request error", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, float64(http.StatusBadRequest), entry["status_code"])
	assert.Equal(t, "/things", entry["path"])
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	v := handler.ValidationError{}
	assert.True(t, v.Empty())
	v.Add("b", "bad")
	v.Add("a", "missing")
	assert.Equal(t, "validation failed: a: missing; b: bad", v.Error())
}
