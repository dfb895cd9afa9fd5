package notefill

import (
	"fmt"
	"strings"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

// WordFormatter renders the Word field from an entry.
type WordFormatter interface {
	FormatWord(entry *domain.DictionaryEntry, scheme string) string
}

// DefinitionFormatter renders the Definition field from one selected
// definition.
type DefinitionFormatter interface {
	FormatDefinition(entry *domain.DictionaryEntry, def domain.Definition) string
}

// ExtraFormatter renders the Extra field from an entry's classifiers and
// components.
type ExtraFormatter interface {
	FormatExtra(entry *domain.DictionaryEntry) string
}

// Formatter maps an entry and a definition selection to field values.
// Each logical field's rendering is a separate capability a caller can
// replace without touching the resolution pipeline.
type Formatter struct {
	scheme     string
	word       WordFormatter
	definition DefinitionFormatter
	extra      ExtraFormatter
}

// Option customizes one formatting capability.
type Option func(*Formatter)

// WithWordFormatter replaces the Word rendering.
func WithWordFormatter(w WordFormatter) Option {
	return func(f *Formatter) { f.word = w }
}

// WithDefinitionFormatter replaces the Definition rendering.
func WithDefinitionFormatter(d DefinitionFormatter) Option {
	return func(f *Formatter) { f.definition = d }
}

// WithExtraFormatter replaces the Extra rendering.
func WithExtraFormatter(e ExtraFormatter) Option {
	return func(f *Formatter) { f.extra = e }
}

// NewFormatter creates a Formatter using scheme for Word transliteration
// and the default rendering for every field not overridden.
func NewFormatter(scheme string, opts ...Option) *Formatter {
	f := &Formatter{
		scheme:     scheme,
		word:       defaultWord{},
		definition: defaultDefinition{},
		extra:      defaultExtra{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatField renders one writable logical field. defIndex selects the
// definition for the Definition field (DefaultDefinition for the
// entry's first sense); an explicit index beyond the entry's senses
// fails with ErrDefinitionOutOfRange. Field roles outside Word,
// Definition and Extra fail with ErrUnsupportedField.
func (f *Formatter) FormatField(entry *domain.DictionaryEntry, defIndex int, field LogicalField) (string, error) {
	switch field {
	case FieldWord:
		return f.word.FormatWord(entry, f.scheme), nil
	case FieldDefinition:
		def, err := entry.DefinitionAt(defIndex)
		if err != nil {
			return "", err
		}
		return f.definition.FormatDefinition(entry, def), nil
	case FieldExtra:
		return f.extra.FormatExtra(entry), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedField, field)
	}
}

// defaultWord renders the transliteration under the configured scheme,
// falling back to the Thai script headword when the entry does not
// carry that scheme.
type defaultWord struct{}

func (defaultWord) FormatWord(entry *domain.DictionaryEntry, scheme string) string {
	if t, ok := entry.Transliterations[scheme]; ok {
		return t
	}
	return entry.Word
}

// defaultDefinition prefixes the bracketed part of speech when present.
type defaultDefinition struct{}

func (defaultDefinition) FormatDefinition(_ *domain.DictionaryEntry, def domain.Definition) string {
	if def.PartOfSpeech == "" {
		return def.Text
	}
	return fmt.Sprintf("[%s] %s", def.PartOfSpeech, def.Text)
}

// defaultExtra puts each non-empty group on its own line.
type defaultExtra struct{}

func (defaultExtra) FormatExtra(entry *domain.DictionaryEntry) string {
	var lines []string
	if len(entry.Classifiers) > 0 {
		lines = append(lines, "Classifier: "+strings.Join(entry.Classifiers, ", "))
	}
	if len(entry.Components) > 0 {
		lines = append(lines, "Components: "+strings.Join(entry.Components, " + "))
	}
	return strings.Join(lines, "\n")
}
