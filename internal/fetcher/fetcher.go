// Package fetcher is the network boundary: it retrieves raw entry pages
// from thai-language.com and resolves word searches. No retry or backoff
// happens here; a failed fetch is the caller's problem.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

// maxPageSize caps how much of a response body is read (5MB).
const maxPageSize = 5 * 1024 * 1024

// sessionSettings is the site's display-settings form. Posting it once
// per session makes every subsequent page render with the
// transliteration rows we scrape (t-i Enhanced and Paiboon on, audio
// streaming and the Royal Institute content off).
var sessionSettings = url.Values{
	"audio":        {"0"},
	"audio_enc":    {"mp3"},
	"streaming":    {"off"},
	"xlitshowmode": {"0"},
	"xlitsystem":   {"15"},
	"xs0":          {"on"},
	"xs1":          {"off"},
	"xs2":          {"off"},
	"xs8":          {"on"},
	"xs3":          {"off"},
	"submitted":    {"save+changes"},
	"licensetype":  {"on"},
	"xmp_ena":      {"on"},
	"smp_ena":      {"on"},
	"racycontent":  {"on"},
	"gaycontent":   {"on"},
	"ridcontent":   {"off"},
}

// Fetcher retrieves pages from the dictionary site over one cookie
// session. Safe for concurrent use.
type Fetcher struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger

	mu          sync.Mutex
	sessionInit bool
}

// New creates a Fetcher for the given site root (domain.BaseURL for the
// real thing, an httptest server in tests).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	jar, _ := cookiejar.New(nil)
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			// Redirects carry meaning here: a search that matches one
			// word answers with a Location header we parse ourselves.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logger.With("component", "fetcher"),
	}
}

// ensureSession posts the display settings once before the first page
// request.
func (f *Fetcher) ensureSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionInit {
		return nil
	}

	reqURL := f.baseURL + "/default.aspx?nav=control"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(sessionSettings.Encode()))
	if err != nil {
		return fmt.Errorf("session: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("session: unexpected status %d", resp.StatusCode)
	}

	f.log.DebugContext(ctx, "session initialized")
	f.sessionInit = true
	return nil
}

// FetchPage retrieves the raw HTML of one entry page.
//
// A missing entry fails with ErrEntryNotFound. The site sometimes
// answers such requests with a 200 page that just lacks the entry
// content, so the body is inspected, not only the status code.
func (f *Fetcher) FetchPage(ctx context.Context, id domain.EntryID) ([]byte, error) {
	if err := f.ensureSession(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/id/%d", f.baseURL, id)
	f.log.InfoContext(ctx, "fetching entry", slog.Int("id", int(id)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("entry %d: create request: %w", id, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("entry %d: %w", id, domain.ErrEntryNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entry %d: unexpected status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("entry %d: read body: %w", id, err)
	}

	if !bytes.Contains(body, []byte("old-content")) {
		return nil, fmt.Errorf("entry %d: %w", id, domain.ErrEntryNotFound)
	}

	return body, nil
}

// Lookup resolves a word through the site's search form. A single match
// answers with a redirect to the entry page; anything else is treated as
// not found.
func (f *Fetcher) Lookup(ctx context.Context, word string) (domain.EntryRef, error) {
	if err := f.ensureSession(ctx); err != nil {
		return domain.EntryRef{}, err
	}

	form := url.Values{
		"tmode":  {"0"},
		"emode":  {"0"},
		"search": {word},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/default.aspx", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.EntryRef{}, fmt.Errorf("lookup %q: create request: %w", word, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f.log.InfoContext(ctx, "looking up word", slog.String("word", word))

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.EntryRef{}, fmt.Errorf("lookup %q: %w", word, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))

	if resp.StatusCode != http.StatusFound {
		return domain.EntryRef{}, fmt.Errorf("lookup %q: %w", word, domain.ErrEntryNotFound)
	}

	location := resp.Header.Get("Location")
	ref, ok := domain.ParseEntryURL(location)
	if !ok {
		return domain.EntryRef{}, fmt.Errorf("lookup %q: unexpected redirect to %q", word, location)
	}
	return ref, nil
}
