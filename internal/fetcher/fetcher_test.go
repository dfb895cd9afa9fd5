package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const entryPage = `<html><body><div id="old-content">entry body</div></body></html>`

func TestFetchPage(t *testing.T) {
	var sessionPosts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/default.aspx" && r.URL.RawQuery == "nav=control":
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "on", r.PostForm.Get("xs8"))
			sessionPosts.Add(1)
		case r.URL.Path == "/id/131210":
			fmt.Fprint(w, entryPage)
		case r.URL.Path == "/id/404":
			http.NotFound(w, r)
		case r.URL.Path == "/id/500":
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/id/666":
			// 200 with an error page instead of entry content.
			fmt.Fprint(w, `<html><body><p>no such entry</p></body></html>`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
	}))
	defer srv.Close()

	f := New(srv.URL, 5*time.Second, newTestLogger())
	ctx := context.Background()

	body, err := f.FetchPage(ctx, 131210)
	require.NoError(t, err)
	assert.Contains(t, string(body), "old-content")

	_, err = f.FetchPage(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	_, err = f.FetchPage(ctx, 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEntryNotFound)

	_, err = f.FetchPage(ctx, 666)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	// The settings form is posted once per session, not per fetch.
	assert.Equal(t, int32(1), sessionPosts.Load())
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery == "nav=control" {
			return
		}
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("search") {
		case "แมว":
			w.Header().Set("Location", "http://www.thai-language.com/id/131210")
			w.WriteHeader(http.StatusFound)
		default:
			// No single match: the site answers with the search page.
			fmt.Fprint(w, `<html><body>search results</body></html>`)
		}
	}))
	defer srv.Close()

	f := New(srv.URL, 5*time.Second, newTestLogger())
	ctx := context.Background()

	ref, err := f.Lookup(ctx, "แมว")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryRef{ID: 131210}, ref)

	_, err = f.Lookup(ctx, "no-such-word")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}
