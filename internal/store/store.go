// Package store keeps parsed entries in a sqlite database between runs,
// so a re-fill of a deck does not refetch pages it already saw.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

//go:embed schema.sql
var schema string

// schemaVersion is bumped whenever the cached representation changes;
// databases written by another version are dropped and rebuilt.
const schemaVersion = 1

// Store is the persistent entry cache.
type Store struct {
	db  *sql.DB
	sq  sq.StatementBuilderType
	log *slog.Logger
}

// New opens (or creates) the cache database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	s := &Store{
		db:  db,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		log: logger.With("component", "store"),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != 0 && version != schemaVersion {
		s.log.Warn("cache database from another version, resetting",
			slog.Int("found", version), slog.Int("want", schemaVersion))
		for _, table := range []string{"words", "redirects", "entries"} {
			if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("reset cache: %w", err)
			}
		}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetEntry looks an entry up by id, following recorded redirects.
// The second return value reports whether the entry was present.
func (s *Store) GetEntry(id domain.EntryID) (*domain.DictionaryEntry, bool, error) {
	var target int
	err := s.sq.Select("entry_id").From("redirects").Where(sq.Eq{"id": id}).
		RunWith(s.db).QueryRow().Scan(&target)
	switch {
	case err == nil:
		id = domain.EntryID(target)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("get redirect %d: %w", id, err)
	}

	var raw string
	err = s.sq.Select("data").From("entries").Where(sq.Eq{"id": id}).
		RunWith(s.db).QueryRow().Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get entry %d: %w", id, err)
	}

	var entry domain.DictionaryEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt row is dropped and refetched rather than fatal.
		s.log.Warn("dropping corrupt cache row", slog.Int("id", int(id)), slog.String("error", err.Error()))
		if _, derr := s.sq.Delete("entries").Where(sq.Eq{"id": id}).RunWith(s.db).Exec(); derr != nil {
			return nil, false, fmt.Errorf("drop corrupt entry %d: %w", id, derr)
		}
		return nil, false, nil
	}
	return &entry, true, nil
}

// PutEntry stores a parsed entry. When the entry's canonical id differs
// from the requested one, the redirect is recorded so later requests for
// either id hit the cache.
func (s *Store) PutEntry(requested domain.EntryID, entry *domain.DictionaryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry %d: %w", entry.ID, err)
	}

	_, err = s.sq.Insert("entries").
		Columns("id", "data", "fetched_at").
		Values(entry.ID, string(raw), time.Now()).
		Suffix("ON CONFLICT (id) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at").
		RunWith(s.db).Exec()
	if err != nil {
		return fmt.Errorf("put entry %d: %w", entry.ID, err)
	}

	if requested != entry.ID {
		_, err = s.sq.Insert("redirects").
			Columns("id", "entry_id").
			Values(requested, entry.ID).
			Suffix("ON CONFLICT (id) DO UPDATE SET entry_id = excluded.entry_id").
			RunWith(s.db).Exec()
		if err != nil {
			return fmt.Errorf("put redirect %d -> %d: %w", requested, entry.ID, err)
		}
	}

	_, err = s.sq.Insert("words").
		Columns("word", "entry_id").
		Values(entry.Word, entry.ID).
		Suffix("ON CONFLICT (word, entry_id) DO NOTHING").
		RunWith(s.db).Exec()
	if err != nil {
		return fmt.Errorf("put word %q: %w", entry.Word, err)
	}

	return nil
}

// LookupWord returns the ids of cached entries whose headword matches.
func (s *Store) LookupWord(word string) ([]domain.EntryID, error) {
	rows, err := s.sq.Select("entry_id").From("words").Where(sq.Eq{"word": word}).
		OrderBy("entry_id").RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("lookup word %q: %w", word, err)
	}
	defer rows.Close()

	var ids []domain.EntryID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan word row: %w", err)
		}
		ids = append(ids, domain.EntryID(id))
	}
	return ids, rows.Err()
}
