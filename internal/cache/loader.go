package cache

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
	"github.com/abbradar/anki-thai-dictionary/internal/parser"
)

// PageFetcher retrieves raw entry pages (the network boundary).
type PageFetcher interface {
	FetchPage(ctx context.Context, id domain.EntryID) ([]byte, error)
}

// EntryStore persists parsed entries across runs.
type EntryStore interface {
	GetEntry(id domain.EntryID) (*domain.DictionaryEntry, bool, error)
	PutEntry(requested domain.EntryID, entry *domain.DictionaryEntry) error
}

// Loader produces parsed entries: persistent store first, then a fetch
// and parse. Its Load method is the FetchFunc a batch Cache wraps.
type Loader struct {
	pages PageFetcher
	store EntryStore // nil disables persistence
	log   *slog.Logger
}

// NewLoader creates a Loader; store may be nil.
func NewLoader(pages PageFetcher, store EntryStore, logger *slog.Logger) *Loader {
	return &Loader{
		pages: pages,
		store: store,
		log:   logger.With("component", "loader"),
	}
}

// Load resolves one entry id to a parsed entry.
func (l *Loader) Load(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error) {
	if l.store != nil {
		entry, ok, err := l.store.GetEntry(id)
		if err != nil {
			return nil, err
		}
		if ok {
			return entry, nil
		}
	}

	body, err := l.pages.FetchPage(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", id, err)
	}
	// Pages without a canonical link keep the requested id.
	if entry.ID == 0 {
		entry.ID = id
	}

	if l.store != nil {
		// Cache failures cost a refetch later, nothing more.
		if err := l.store.PutEntry(id, entry); err != nil {
			l.log.WarnContext(ctx, "failed to cache entry",
				slog.Int("id", int(id)), slog.String("error", err.Error()))
		}
	}

	return entry, nil
}
