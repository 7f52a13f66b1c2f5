package track

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"linktrack/impl/core"
	"linktrack/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *database.SQLite) {
	store, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := core.New(store, "https://go.example.com", log)

	router := chi.NewRouter()
	router.Get("/track", Redirect(log, c))
	return router, store
}

func TestRedirect_Found(t *testing.T) {
	router, store := newTestRouter(t)
	id, err := store.CreateLink("https://tiktok.com/@x/video/1?foo=bar", 100, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/track?id=%d&campaign=spring", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code, "redirect must be temporary")

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	q := loc.Query()
	assert.Equal(t, []string{"bar"}, q["foo"])
	assert.Equal(t, []string{"telegram_bot"}, q["utm_source"])
	assert.Equal(t, []string{"spring"}, q["utm_campaign"])

	clicks, err := store.CountClicks(id)
	require.NoError(t, err)
	assert.Equal(t, 1, clicks)
}

func TestRedirect_WithReferrer(t *testing.T) {
	router, store := newTestRouter(t)
	id, err := store.CreateLink("https://tiktok.com/@x/video/1", 100, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/track?id=%d&ref=42", id), nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	refs, err := store.CountReferrals(42)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)
}

func TestRedirect_InvalidId(t *testing.T) {
	router, store := newTestRouter(t)
	id, err := store.CreateLink("https://tiktok.com/@x/video/1", 100, "")
	require.NoError(t, err)

	for _, raw := range []string{"", "abc", "-5"} {
		req := httptest.NewRequest(http.MethodGet, "/track?id="+url.QueryEscape(raw), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "raw id %q", raw)
	}

	clicks, err := store.CountClicks(id)
	require.NoError(t, err)
	assert.Equal(t, 0, clicks)
}

func TestRedirect_UnknownLink(t *testing.T) {
	router, store := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/track?id=9999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	clicks, err := store.CountClicks(9999)
	require.NoError(t, err)
	assert.Equal(t, 0, clicks)
}

func TestSourceIp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/track", nil)
	req.RemoteAddr = "192.0.2.7:54321"
	assert.Equal(t, "192.0.2.7", sourceIp(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", sourceIp(req))
}
