package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BaseURL is the dictionary site all entry URLs resolve against.
const BaseURL = "http://www.thai-language.com"

// entryURLRe matches absolute and site-relative entry links. The host
// part is optional so hrefs scraped from the pages themselves ("/id/123")
// parse with the same expression.
var entryURLRe = regexp.MustCompile(`^(?:(?:https?://)?(?:www\.)?thai-language\.com)?/id/([0-9]+)(?:#def([0-9]+))?$`)

// ParseEntryURL extracts an entry reference from a thai-language.com
// entry link. Reports false for anything that is not such a link.
func ParseEntryURL(rawURL string) (EntryRef, bool) {
	m := entryURLRe.FindStringSubmatch(rawURL)
	if m == nil {
		return EntryRef{}, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil || id <= 0 {
		return EntryRef{}, false
	}
	ref := EntryRef{ID: EntryID(id), Definition: DefaultDefinition}
	if m[2] != "" {
		def, err := strconv.Atoi(m[2])
		if err != nil || def <= 0 {
			return EntryRef{}, false
		}
		ref.Definition = def
	}
	return ref, true
}

// ParseRef parses a user-supplied identifier into an entry reference.
// Recognized shapes, in precedence order:
//
//	entry URL, optionally with a #def<N> anchor
//	<id>#<definition>
//	<id>##  (explicit request for the default definition)
//	<id>
//
// Anything else fails with ErrMalformedRef.
func ParseRef(raw string) (EntryRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EntryRef{}, fmt.Errorf("%w: empty string", ErrMalformedRef)
	}

	if ref, ok := ParseEntryURL(raw); ok {
		return ref, nil
	}

	idPart, defPart, hasDef := strings.Cut(raw, "#")
	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 {
		return EntryRef{}, fmt.Errorf("%w: %q", ErrMalformedRef, raw)
	}
	ref := EntryRef{ID: EntryID(id), Definition: DefaultDefinition}
	if !hasDef {
		return ref, nil
	}
	// "<id>##" asks for the default definition explicitly; treated the
	// same as a bare id everywhere downstream.
	if defPart == "#" {
		return ref, nil
	}
	def, err := strconv.Atoi(defPart)
	if err != nil || def <= 0 {
		return EntryRef{}, fmt.Errorf("%w: %q", ErrMalformedRef, raw)
	}
	ref.Definition = def
	return ref, nil
}

// String renders the compact id#definition form ParseRef accepts.
func (r EntryRef) String() string {
	if r.Definition == DefaultDefinition {
		return strconv.Itoa(int(r.ID))
	}
	return fmt.Sprintf("%d#%d", r.ID, r.Definition)
}

// BuildEntryURL renders the canonical page URL for a reference.
func BuildEntryURL(ref EntryRef) string {
	url := fmt.Sprintf("%s/id/%d", BaseURL, ref.ID)
	if ref.Definition != DefaultDefinition {
		url += fmt.Sprintf("#def%d", ref.Definition)
	}
	return url
}
