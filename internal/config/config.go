// Package config loads tool configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration.
type Config struct {
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Anki       AnkiConfig       `yaml:"anki"`
	Fields     FieldsConfig     `yaml:"fields"`
	Log        LogConfig        `yaml:"log"`
}

// DictionaryConfig holds the dictionary site and cache settings.
type DictionaryConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"THAIDICT_BASE_URL"   env-default:"http://www.thai-language.com"`
	Timeout   time.Duration `yaml:"timeout"    env:"THAIDICT_TIMEOUT"    env-default:"30s"`
	CachePath string        `yaml:"cache_path" env:"THAIDICT_CACHE_PATH"`
	NoCache   bool          `yaml:"no_cache"   env:"THAIDICT_NO_CACHE"   env-default:"false"`
}

// AnkiConfig holds the AnkiConnect endpoint and the note type the fill
// commands target.
type AnkiConfig struct {
	URL      string `yaml:"url"       env:"THAIDICT_ANKI_URL"  env-default:"http://127.0.0.1:8765"`
	NoteType string `yaml:"note_type" env:"THAIDICT_NOTE_TYPE" env-default:"Thai Vocabulary"`
}

// FieldsConfig binds logical field roles to the note type's field names
// and selects the transliteration scheme for the Word field. An empty
// name disables writing that field.
type FieldsConfig struct {
	ID         string `yaml:"id"         env:"THAIDICT_FIELD_ID"         env-default:"Id"`
	Word       string `yaml:"word"       env:"THAIDICT_FIELD_WORD"       env-default:"Word"`
	Definition string `yaml:"definition" env:"THAIDICT_FIELD_DEFINITION" env-default:"Definition"`
	Extra      string `yaml:"extra"      env:"THAIDICT_FIELD_EXTRA"      env-default:"Extra"`
	Scheme     string `yaml:"scheme"     env:"THAIDICT_SCHEME"           env-default:"Paiboon"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"THAIDICT_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"THAIDICT_LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from path and environment variables, with
// the environment taking precedence. An empty path falls back to
// THAIDICT_CONFIG, then to environment plus defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = os.Getenv("THAIDICT_CONFIG")
		explicit = path != ""
	}

	switch {
	case explicit:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings no fill operation can work without.
func (c *Config) Validate() error {
	if c.Dictionary.BaseURL == "" {
		return fmt.Errorf("dictionary base_url must not be empty")
	}
	if c.Dictionary.Timeout <= 0 {
		return fmt.Errorf("dictionary timeout must be positive")
	}
	if c.Fields.ID == "" {
		return fmt.Errorf("fields.id must not be empty")
	}
	if c.Anki.URL == "" {
		return fmt.Errorf("anki url must not be empty")
	}
	return nil
}
