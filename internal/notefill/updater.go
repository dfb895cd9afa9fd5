package notefill

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

// tagRe strips markup around identifiers: decks commonly keep the Id
// field as a link to the entry page.
var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}

// Updater applies derived field values to host notes. One Updater
// serves one batch operation: the entry provider it wraps is a fresh
// per-batch cache and must not be shared with a concurrent batch.
type Updater struct {
	entries   EntryProvider
	formatter *Formatter
	mapping   Mapping
	log       *slog.Logger
}

// NewUpdater creates an Updater. A nil formatter selects the default
// rendering under the mapping's transliteration scheme.
func NewUpdater(entries EntryProvider, mapping Mapping, formatter *Formatter, logger *slog.Logger) *Updater {
	if formatter == nil {
		formatter = NewFormatter(mapping.Scheme)
	}
	return &Updater{
		entries:   entries,
		formatter: formatter,
		mapping:   mapping,
		log:       logger.With("component", "notefill"),
	}
}

// resolve reads the note's Id field and produces the referenced entry.
func (u *Updater) resolve(ctx context.Context, note Note) (domain.EntryRef, *domain.DictionaryEntry, error) {
	idField, ok := u.mapping.Name(FieldID)
	if !ok {
		return domain.EntryRef{}, nil, fmt.Errorf("%w: no Id field mapped", domain.ErrMalformedRef)
	}
	if !note.Has(idField) {
		return domain.EntryRef{}, nil, fmt.Errorf("%w: note %d has no %q field", domain.ErrMalformedRef, note.ID(), idField)
	}

	ref, err := domain.ParseRef(stripHTML(note.Field(idField)))
	if err != nil {
		return domain.EntryRef{}, nil, err
	}

	entry, err := u.entries.Entry(ctx, ref.ID)
	if err != nil {
		return domain.EntryRef{}, nil, err
	}
	return ref, entry, nil
}

// FillAllFields resolves the note's Id and overwrites every mapped
// writable field the note has. The update is all-or-nothing: values for
// all fields are computed before the first write, so a failure leaves
// the note untouched.
func (u *Updater) FillAllFields(ctx context.Context, note Note) error {
	ref, entry, err := u.resolve(ctx, note)
	if err != nil {
		return err
	}

	values := map[string]string{}
	for _, field := range writableFields {
		name, ok := u.mapping.Name(field)
		if !ok || !note.Has(name) {
			continue
		}
		value, err := u.formatter.FormatField(entry, ref.Definition, field)
		if err != nil {
			return err
		}
		values[name] = value
	}

	for name, value := range values {
		note.SetField(name, value)
	}

	u.log.DebugContext(ctx, "filled note",
		slog.Int64("note", note.ID()),
		slog.String("ref", ref.String()),
		slog.Int("fields", len(values)))
	return nil
}

// FillField resolves the note's Id and overwrites the one requested
// field. Requesting a role that is not writable, is unmapped, or is
// absent from the note fails with ErrUnsupportedField.
func (u *Updater) FillField(ctx context.Context, note Note, field LogicalField) error {
	switch field {
	case FieldWord, FieldDefinition, FieldExtra:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedField, field)
	}
	name, ok := u.mapping.Name(field)
	if !ok {
		return fmt.Errorf("%w: %q is not mapped", domain.ErrUnsupportedField, field)
	}
	if !note.Has(name) {
		return fmt.Errorf("%w: note %d has no %q field", domain.ErrUnsupportedField, note.ID(), name)
	}

	ref, entry, err := u.resolve(ctx, note)
	if err != nil {
		return err
	}

	value, err := u.formatter.FormatField(entry, ref.Definition, field)
	if err != nil {
		return err
	}
	note.SetField(name, value)
	return nil
}

// NoteFailure records one note's error within a batch.
type NoteFailure struct {
	NoteID int64
	Err    error
}

// Report summarizes one batch operation.
type Report struct {
	BatchID  uuid.UUID
	NoteType string
	Field    LogicalField
	Updated  int
	Skipped  int
	Failures []NoteFailure
}

// FillFieldInAllNotes applies FillField to every note of the given note
// type. A note's failure is recorded and does not stop the batch; notes
// of other types are skipped. Cancellation is honored between notes,
// never mid-note.
func (u *Updater) FillFieldInAllNotes(ctx context.Context, noteType string, field LogicalField, notes []Note) (*Report, error) {
	report := &Report{
		BatchID:  uuid.New(),
		NoteType: noteType,
		Field:    field,
	}

	u.log.InfoContext(ctx, "starting batch fill",
		slog.String("batch", report.BatchID.String()),
		slog.String("note_type", noteType),
		slog.String("field", string(field)),
		slog.Int("notes", len(notes)))

	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if note.NoteType() != noteType {
			report.Skipped++
			continue
		}
		if err := u.FillField(ctx, note, field); err != nil {
			u.log.WarnContext(ctx, "note fill failed",
				slog.String("batch", report.BatchID.String()),
				slog.Int64("note", note.ID()),
				slog.String("error", err.Error()))
			report.Failures = append(report.Failures, NoteFailure{NoteID: note.ID(), Err: err})
			continue
		}
		report.Updated++
	}

	u.log.InfoContext(ctx, "batch fill finished",
		slog.String("batch", report.BatchID.String()),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failures)))
	return report, nil
}
