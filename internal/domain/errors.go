package domain

import "errors"

// Sentinel errors shared by all layers. Callers match them with
// errors.Is after any amount of wrapping.
var (
	// ErrMalformedRef means a raw identifier string matched none of the
	// recognized grammars (bare id, id#definition, id##, entry URL).
	ErrMalformedRef = errors.New("malformed entry reference")

	// ErrEntryNotFound means the site has no entry for the requested id.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUnparseableEntry means a fetched page is missing the structural
	// markers an entry page is expected to have.
	ErrUnparseableEntry = errors.New("unparseable entry page")

	// ErrDefinitionOutOfRange means an explicit definition index exceeds
	// the number of definitions the entry actually has.
	ErrDefinitionOutOfRange = errors.New("definition index out of range")

	// ErrUnsupportedField means a logical field name is not one the
	// formatter can produce.
	ErrUnsupportedField = errors.New("unsupported field")
)
