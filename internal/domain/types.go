package domain

import "fmt"

// EntryID identifies one headword page on thai-language.com.
type EntryID int

// DefaultDefinition selects the entry's primary sense when no explicit
// definition index is given. Definition indexes on the site are 1-based,
// so zero is free to act as the sentinel.
const DefaultDefinition = 0

// EntryRef points at an entry and optionally at one of its definitions.
type EntryRef struct {
	ID         EntryID
	Definition int
}

// Definition is one sense of an entry, in page order. Index is 1-based
// and matches the position in DictionaryEntry.Definitions.
type Definition struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	PartOfSpeech string `json:"part_of_speech,omitempty"`
}

// DictionaryEntry is the parsed form of one entry page. Entries are
// immutable after parsing; caches hand out shared pointers.
type DictionaryEntry struct {
	ID               EntryID           `json:"id"`
	Word             string            `json:"word"`
	Transliterations map[string]string `json:"transliterations"`
	Definitions      []Definition      `json:"definitions"`
	Classifiers      []string          `json:"classifiers,omitempty"`
	Components       []string          `json:"components,omitempty"`
}

// DefinitionAt returns the definition selected by idx, treating
// DefaultDefinition as the entry's first sense.
func (e *DictionaryEntry) DefinitionAt(idx int) (Definition, error) {
	if idx == DefaultDefinition {
		idx = 1
	}
	if idx < 1 || idx > len(e.Definitions) {
		return Definition{}, fmt.Errorf("%w: definition %d of entry %d (entry has %d)",
			ErrDefinitionOutOfRange, idx, e.ID, len(e.Definitions))
	}
	return e.Definitions[idx-1], nil
}
