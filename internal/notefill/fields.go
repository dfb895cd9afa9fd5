// Package notefill derives flashcard note fields from parsed dictionary
// entries and applies them across a host note collection.
package notefill

import (
	"context"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

// LogicalField names an abstract field role. The host's concrete field
// names are bound to roles through a Mapping.
type LogicalField string

const (
	FieldID         LogicalField = "Id"
	FieldWord       LogicalField = "Word"
	FieldDefinition LogicalField = "Definition"
	FieldExtra      LogicalField = "Extra"
)

// writableFields are the roles a fill operation may write. The Id field
// is only ever read.
var writableFields = []LogicalField{FieldWord, FieldDefinition, FieldExtra}

// Mapping binds logical fields to the host note type's field names.
// An empty name leaves that logical field unmapped, which disables
// writing it. Scheme selects the transliteration used for Word.
type Mapping struct {
	ID         string
	Word       string
	Definition string
	Extra      string
	Scheme     string
}

// Name returns the concrete field name bound to f, and whether one is.
func (m Mapping) Name(f LogicalField) (string, bool) {
	var name string
	switch f {
	case FieldID:
		name = m.ID
	case FieldWord:
		name = m.Word
	case FieldDefinition:
		name = m.Definition
	case FieldExtra:
		name = m.Extra
	}
	return name, name != ""
}

// Note is the host note boundary: a bag of named text fields the filler
// reads ids from and writes derived values into. The host owns storage;
// SetField only has to record the new value.
type Note interface {
	ID() int64
	NoteType() string
	Has(field string) bool
	Field(field string) string
	SetField(field, value string)
}

// EntryProvider hands out parsed entries, normally the per-batch cache.
type EntryProvider interface {
	Entry(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error)
}
