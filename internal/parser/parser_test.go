package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

func parseFixture(t *testing.T, name string) *domain.DictionaryEntry {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	entry, err := Parse(f)
	require.NoError(t, err)
	return entry
}

func TestParseEntry(t *testing.T) {
	entry := parseFixture(t, "entry.html")

	assert.Equal(t, domain.EntryID(131210), entry.ID)
	assert.Equal(t, "แมว", entry.Word)

	assert.Equal(t, map[string]string{
		"Phonemic Thai": "แมว",
		"IPA":           "mɛːw",
		"Paiboon":       "maeo",
	}, entry.Transliterations)

	require.Len(t, entry.Definitions, 3)
	assert.Equal(t, domain.Definition{Index: 1, Text: "cat", PartOfSpeech: "noun"}, entry.Definitions[0])
	assert.Equal(t, domain.Definition{Index: 2, Text: "catlike; feline", PartOfSpeech: "adjective"}, entry.Definitions[1])
	assert.Equal(t, domain.Definition{Index: 3, Text: "nickname for a cat"}, entry.Definitions[2])

	assert.Equal(t, []string{"ตัว", "ฝูง"}, entry.Classifiers)
	assert.Equal(t, []string{"แม", "ว"}, entry.Components)
}

func TestParseEntryMinimal(t *testing.T) {
	// Optional sections missing: still a valid entry.
	page := `<html><head>
		<link rel="canonical" href="http://www.thai-language.com/id/42">
		</head><body><div id="old-content">
		<table width="100%"><tr><td><span class="th3">กา</span></td></tr></table>
		<table>
		<tr><td><a class="ord" name="def1"></a></td></tr>
		<tr><td>definition</td><td>crow</td></tr>
		<tr style="background-color:black"><td></td></tr>
		</table>
		</div></body></html>`

	entry, err := Parse(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, domain.EntryID(42), entry.ID)
	assert.Equal(t, "กา", entry.Word)
	assert.Empty(t, entry.Transliterations)
	require.Len(t, entry.Definitions, 1)
	assert.Equal(t, "crow", entry.Definitions[0].Text)
	assert.Empty(t, entry.Definitions[0].PartOfSpeech)
	assert.Empty(t, entry.Classifiers)
	assert.Empty(t, entry.Components)
}

func TestParseEntrySkipsNoteSections(t *testing.T) {
	// A header-less notes block between separators must not produce a
	// definition.
	page := `<html><body><div id="old-content">
		<table width="100%"><tr><td><span class="th3">ไก่</span></td></tr></table>
		<table>
		<tr><td>Royal Institute notes follow</td></tr>
		<tr><td>notes</td><td>some remark</td></tr>
		<tr style="background-color: black"><td></td></tr>
		<tr><td><a class="ord" name="def1"></a><span style="font-size:x-small">[noun]</span></td></tr>
		<tr><td>definition</td><td>chicken</td></tr>
		<tr style="background-color: black"><td></td></tr>
		</table>
		</div></body></html>`

	entry, err := Parse(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, entry.Definitions, 1)
	assert.Equal(t, "chicken", entry.Definitions[0].Text)
}

func TestParseUnparseable(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no entry container", `<html><body><p>Page Not Found</p></body></html>`},
		{"no headword", `<html><body><div id="old-content"><table><tr style="background-color:black"><td></td></tr></table></div></body></html>`},
		{"no definitions table", `<html><body><div id="old-content">
			<table width="100%"><tr><td><span class="th3">กา</span></td></tr></table>
			</div></body></html>`},
		{"empty definitions table", `<html><body><div id="old-content">
			<table width="100%"><tr><td><span class="th3">กา</span></td></tr></table>
			<table><tr style="background-color:black"><td></td></tr></table>
			</div></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.page))
			assert.ErrorIs(t, err, domain.ErrUnparseableEntry)
		})
	}
}
