// Package parser turns raw thai-language.com entry pages into
// DictionaryEntry values. The markup is not well-formed, so pages go
// through the x/net/html tree-builder (which repairs what it can) and
// are then walked with goquery selections.
package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

// partOfSpeechRe matches the bracketed word-class annotation in a
// definition header, e.g. "[noun]" or "[adjective, adverb]".
var partOfSpeechRe = regexp.MustCompile(`\[([a-zA-Z0-9-, ]*)\]`)

// Parse extracts a dictionary entry from an entry page.
//
// Only the headword and at least one definition are mandatory; every
// other section is optional and yields an empty value when absent.
// Missing structural markers fail with ErrUnparseableEntry.
func Parse(r io.Reader) (*domain.DictionaryEntry, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparseableEntry, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	content := doc.Find("div#old-content").First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("%w: entry container missing", domain.ErrUnparseableEntry)
	}

	entry := &domain.DictionaryEntry{
		Transliterations: map[string]string{},
	}

	// The canonical link carries the real entry id; the requested id may
	// have been a redirect.
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if ref, ok := domain.ParseEntryURL(strings.TrimSpace(href)); ok {
			entry.ID = ref.ID
		}
	}

	entry.Word = parseHeadword(content)
	if entry.Word == "" {
		return nil, fmt.Errorf("%w: headword missing", domain.ErrUnparseableEntry)
	}

	parseTransliterations(content, entry)

	if err := parseDefinitions(content, entry); err != nil {
		return nil, err
	}
	if len(entry.Definitions) == 0 {
		return nil, fmt.Errorf("%w: no definitions", domain.ErrUnparseableEntry)
	}

	return entry, nil
}

// parseHeadword reads the entry word from the header table. Entries with
// several spellings list them all; the first one wins.
func parseHeadword(content *goquery.Selection) string {
	return strings.TrimSpace(content.Find("span.th3").First().Text())
}

// parseTransliterations fills the scheme -> romanization map from the
// "pronunciation guide" table. Every scheme present on the page is
// captured; the formatter picks one later.
func parseTransliterations(content *goquery.Selection, entry *domain.DictionaryEntry) {
	table := content.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Find("td").First().Text()) == "pronunciation guide"
	}).First()
	if table.Length() == 0 {
		return
	}

	tableRows(table).Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			// Caption row.
			return
		}
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		scheme := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if scheme != "" && value != "" {
			entry.Transliterations[scheme] = value
		}
	})
}

// parseDefinitions walks the definitions table: blocks of rows separated
// by empty black-background rows. Each block starts with a single-cell
// header row, followed by two-cell field rows ("definition",
// "classifier", "components", ...).
func parseDefinitions(content *goquery.Selection, entry *domain.DictionaryEntry) error {
	table := findDefinitionsTable(content)
	if table.Length() == 0 {
		return fmt.Errorf("%w: definitions table missing", domain.ErrUnparseableEntry)
	}

	var rows []*goquery.Selection
	tableRows(table).Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, row)
	})

	var current *definitionBlock
	flush := func() {
		if current != nil && current.text != "" {
			entry.Definitions = append(entry.Definitions, domain.Definition{
				Index:        len(entry.Definitions) + 1,
				Text:         current.text,
				PartOfSpeech: current.partOfSpeech,
			})
		}
		current = nil
	}

	for i := 0; i < len(rows); i++ {
		row := rows[i]
		if strings.TrimSpace(row.Text()) == "" {
			// Separator row between definition blocks.
			flush()
			continue
		}

		cells := row.ChildrenFiltered("td, th")
		switch {
		case cells.Length() == 1:
			// Header row of a new definition block. Note sections and
			// rowspan continuations also arrive here; for them the
			// block simply never collects a definition and is dropped.
			flush()
			current = &definitionBlock{partOfSpeech: parsePartOfSpeech(cells.First())}
		case cells.Length() >= 2:
			name := strings.TrimSpace(cells.First().Text())
			value := cells.Last()
			// Fields spanning several rows announce it via rowspan on
			// the name cell; the continuation rows belong to the same
			// field and are consumed here.
			span := rowspan(cells.First())
			extra := rows[min(i+1, len(rows)):min(i+span, len(rows))]
			i += len(extra)
			handleField(entry, current, name, value, extra)
		}
	}
	flush()

	return nil
}

type definitionBlock struct {
	text         string
	partOfSpeech string
}

// handleField dispatches one named field row of a definition block.
// Unknown field names are ignored.
func handleField(entry *domain.DictionaryEntry, current *definitionBlock, name string, value *goquery.Selection, extra []*goquery.Selection) {
	switch name {
	case "definition":
		if current != nil && current.text == "" {
			current.text = strings.TrimSpace(value.Text())
		}
	case "classifier", "classifiers":
		entry.Classifiers = append(entry.Classifiers, fieldStrings(value, extra)...)
	case "components":
		entry.Components = append(entry.Components, fieldStrings(value, extra)...)
	}
}

// fieldStrings collects the display strings of a linked-entry field: the
// text of every entry link in the value cell and in any continuation
// rows. A cell without entry links contributes its plain text.
func fieldStrings(value *goquery.Selection, extra []*goquery.Selection) []string {
	var out []string
	collect := func(cell *goquery.Selection) {
		found := false
		cell.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			// "ttid" marks subcomponent popup links; skip those.
			if _, ok := link.Attr("ttid"); ok {
				return
			}
			href, _ := link.Attr("href")
			if _, ok := domain.ParseEntryURL(strings.TrimSpace(href)); !ok {
				return
			}
			if text := strings.TrimSpace(link.Text()); text != "" {
				out = append(out, text)
				found = true
			}
		})
		if !found {
			if text := strings.TrimSpace(cell.Text()); text != "" {
				out = append(out, text)
			}
		}
	}

	collect(value)
	for _, row := range extra {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() > 0 {
			collect(cells.Last())
		}
	}
	return out
}

// parsePartOfSpeech reads the bracketed word-class annotation from a
// definition header cell, e.g. the "[noun]" in small print.
func parsePartOfSpeech(cell *goquery.Selection) string {
	annotation := cell.Find(`span[style*="x-small"]`).First().Text()
	m := partOfSpeechRe.FindStringSubmatch(strings.TrimSpace(annotation))
	if m == nil {
		return ""
	}
	return m[1]
}

// findDefinitionsTable locates the table holding definition blocks: the
// one using black-background rows as horizontal separators.
func findDefinitionsTable(content *goquery.Selection) *goquery.Selection {
	return content.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		sep := tableRows(s).FilterFunction(func(_ int, row *goquery.Selection) bool {
			style, _ := row.Attr("style")
			style = strings.ReplaceAll(style, " ", "")
			return strings.Contains(style, "background-color:black")
		})
		return sep.Length() > 0
	}).First()
}

// tableRows returns the direct rows of a table, whether or not the
// tree-builder wrapped them in a tbody.
func tableRows(table *goquery.Selection) *goquery.Selection {
	rows := table.ChildrenFiltered("tbody").ChildrenFiltered("tr")
	if rows.Length() == 0 {
		rows = table.ChildrenFiltered("tr")
	}
	return rows
}

// rowspan reads a cell's rowspan attribute, defaulting to one row.
func rowspan(cell *goquery.Selection) int {
	raw, ok := cell.Attr("rowspan")
	if !ok {
		return 1
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &n); err != nil || n < 1 {
		return 1
	}
	return n
}
