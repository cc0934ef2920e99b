package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(NewHandler(false, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := map[string]Check{"db": func(context.Context) error { return nil }}
	assert.Equal(t, http.StatusOK, serve(NewHandler(false, ok), "/ready").Code)

	failing := map[string]Check{"db": func(context.Context) error { return errors.New("down") }}
	rec := serve(NewHandler(false, failing), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "db: down", rec.Body.String())
}

func TestMetricsToggle(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(NewHandler(false, nil), "/metrics").Code)
	assert.Equal(t, http.StatusOK, serve(NewHandler(true, nil), "/metrics").Code)
}
