package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://www.thai-language.com", cfg.Dictionary.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Dictionary.Timeout)
	assert.Equal(t, "http://127.0.0.1:8765", cfg.Anki.URL)
	assert.Equal(t, "Id", cfg.Fields.ID)
	assert.Equal(t, "Word", cfg.Fields.Word)
	assert.Equal(t, "Definition", cfg.Fields.Definition)
	assert.Equal(t, "Extra", cfg.Fields.Extra)
	assert.Equal(t, "Paiboon", cfg.Fields.Scheme)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("THAIDICT_BASE_URL", "http://dict.test")
	t.Setenv("THAIDICT_TIMEOUT", "5s")
	t.Setenv("THAIDICT_SCHEME", "IPA")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://dict.test", cfg.Dictionary.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Dictionary.Timeout)
	assert.Equal(t, "IPA", cfg.Fields.Scheme)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
dictionary:
  base_url: http://dict.test
  timeout: 10s
anki:
  note_type: Thai Words
fields:
  word: Headword
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://dict.test", cfg.Dictionary.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Dictionary.Timeout)
	assert.Equal(t, "Thai Words", cfg.Anki.NoteType)
	assert.Equal(t, "Headword", cfg.Fields.Word)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys still get defaults.
	assert.Equal(t, "Id", cfg.Fields.ID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Dictionary.Timeout = 0
	assert.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(LogConfig{Level: "debug", Format: "json"})
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))

	log = NewLogger(LogConfig{Level: "warn", Format: "text"})
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
}
