package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestReadyz(t *testing.T) {
	h := New()
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.Readyz).Code)

	h.SetReady(0)
	assert.False(t, h.Ready())
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.Readyz).Code)

	h.SetReady(3)
	assert.True(t, h.Ready())
	assert.Equal(t, http.StatusOK, serve(h.Readyz).Code)

	h.SetNotReady()
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.Readyz).Code)
}

func TestHealthz(t *testing.T) {
	rec := serve(New().Healthz)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
