package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abbradar/anki-thai-dictionary/internal/anki"
	"github.com/abbradar/anki-thai-dictionary/internal/cache"
	"github.com/abbradar/anki-thai-dictionary/internal/config"
	"github.com/abbradar/anki-thai-dictionary/internal/domain"
	"github.com/abbradar/anki-thai-dictionary/internal/fetcher"
	"github.com/abbradar/anki-thai-dictionary/internal/notefill"
	"github.com/abbradar/anki-thai-dictionary/internal/store"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "thaidict",
		Short: "Fill Anki notes from the thai-language.com dictionary",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(fillCmd())
	rootCmd.AddCommand(fillFieldCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the pieces a command needs. Close releases the entry
// store, if one is open.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	fetcher *fetcher.Fetcher
	store   *store.Store
	cache   *cache.Cache
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.Log)

	f := fetcher.New(cfg.Dictionary.BaseURL, cfg.Dictionary.Timeout, log)

	var st *store.Store
	if !cfg.Dictionary.NoCache {
		path := cfg.Dictionary.CachePath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache path: %w", err)
			}
			path = filepath.Join(home, ".thaidict", "cache.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		st, err = store.New(path, log)
		if err != nil {
			return nil, err
		}
	}

	loader := cache.NewLoader(f, st, log)
	return &app{
		cfg:     cfg,
		log:     log,
		fetcher: f,
		store:   st,
		cache:   cache.New(loader.Load),
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) mapping() notefill.Mapping {
	return notefill.Mapping{
		ID:         a.cfg.Fields.ID,
		Word:       a.cfg.Fields.Word,
		Definition: a.cfg.Fields.Definition,
		Extra:      a.cfg.Fields.Extra,
		Scheme:     a.cfg.Fields.Scheme,
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [ref]",
		Short: "Fetch and display a dictionary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.ParseRef(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.cache.Entry(cmd.Context(), ref.ID)
			if err != nil {
				return err
			}

			printEntry(entry, ref.Definition)
			return nil
		},
	}
}

func printEntry(entry *domain.DictionaryEntry, selected int) {
	fmt.Printf("Entry:   %d\n", entry.ID)
	fmt.Printf("Word:    %s\n", entry.Word)
	fmt.Printf("URL:     %s\n", domain.BuildEntryURL(domain.EntryRef{ID: entry.ID}))

	if len(entry.Transliterations) > 0 {
		fmt.Printf("\nPronunciation:\n")
		for scheme, value := range entry.Transliterations {
			fmt.Printf("  %-14s %s\n", scheme, value)
		}
	}

	fmt.Printf("\nDefinitions:\n")
	for _, def := range entry.Definitions {
		marker := " "
		if def.Index == selected {
			marker = "*"
		}
		if def.PartOfSpeech != "" {
			fmt.Printf("%s %d. [%s] %s\n", marker, def.Index, def.PartOfSpeech, def.Text)
		} else {
			fmt.Printf("%s %d. %s\n", marker, def.Index, def.Text)
		}
	}

	if len(entry.Classifiers) > 0 {
		fmt.Printf("\nClassifiers: %s\n", strings.Join(entry.Classifiers, ", "))
	}
	if len(entry.Components) > 0 {
		fmt.Printf("Components:  %s\n", strings.Join(entry.Components, " + "))
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [word]",
		Short: "Look up a Thai word and print its entry reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Check cached words first; fall back to a server-side search.
			if a.store != nil {
				ids, err := a.store.LookupWord(args[0])
				if err == nil && len(ids) > 0 {
					for _, id := range ids {
						fmt.Printf("%s  %s\n", domain.EntryRef{ID: id}, domain.BuildEntryURL(domain.EntryRef{ID: id}))
					}
					return nil
				}
			}

			ref, err := a.fetcher.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", ref, domain.BuildEntryURL(ref))
			return nil
		},
	}
}

// fetchNotes finds the notes matching query and wraps them for filling.
func fetchNotes(ctx context.Context, client *anki.Client, query string) ([]*anki.Note, error) {
	ids, err := client.FindNotes(ctx, query)
	if err != nil {
		return nil, err
	}
	infos, err := client.NotesInfo(ctx, ids)
	if err != nil {
		return nil, err
	}

	notes := make([]*anki.Note, 0, len(infos))
	for _, info := range infos {
		notes = append(notes, anki.NewNote(info))
	}
	return notes, nil
}

// prefetchRefs warms the entry cache from the notes' reference fields.
// Unparseable references are left for the fill pass to report.
func prefetchRefs(ctx context.Context, a *app, notes []*anki.Note) {
	var ids []domain.EntryID
	for _, note := range notes {
		if !note.Has(a.cfg.Fields.ID) {
			continue
		}
		ref, err := domain.ParseRef(note.Field(a.cfg.Fields.ID))
		if err != nil {
			continue
		}
		ids = append(ids, ref.ID)
	}
	if err := a.cache.Prefetch(ctx, ids, 4); err != nil {
		a.log.Warn("prefetch interrupted", "error", err)
	}
}

func fillCmd() *cobra.Command {
	var noteType string

	cmd := &cobra.Command{
		Use:   "fill [query]",
		Short: "Fill every mapped field of the matching notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if noteType == "" {
				noteType = a.cfg.Anki.NoteType
			}

			client := anki.NewClient(a.cfg.Anki.URL, a.log)
			notes, err := fetchNotes(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			prefetchRefs(cmd.Context(), a, notes)

			updater := notefill.NewUpdater(a.cache, a.mapping(), nil, a.log)

			var updated, skipped, failed int
			for _, note := range notes {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if note.NoteType() != noteType {
					skipped++
					continue
				}

				if err := updater.FillAllFields(cmd.Context(), note); err != nil {
					failed++
					fmt.Printf("note %d: %v\n", note.ID(), err)
					continue
				}

				changed := note.Changed()
				if len(changed) == 0 {
					skipped++
					continue
				}
				if err := client.UpdateNoteFields(cmd.Context(), note.ID(), changed); err != nil {
					failed++
					fmt.Printf("note %d: %v\n", note.ID(), err)
					continue
				}
				updated++
			}

			fmt.Printf("Updated %d, skipped %d, failed %d of %d notes.\n",
				updated, skipped, failed, len(notes))
			return nil
		},
	}

	cmd.Flags().StringVar(&noteType, "note-type", "", "note type to fill (defaults to config)")
	return cmd
}

func fillFieldCmd() *cobra.Command {
	var noteType string

	cmd := &cobra.Command{
		Use:   "fill-field [field] [query]",
		Short: "Refill a single field across the matching notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if noteType == "" {
				noteType = a.cfg.Anki.NoteType
			}

			client := anki.NewClient(a.cfg.Anki.URL, a.log)
			notes, err := fetchNotes(cmd.Context(), client, args[1])
			if err != nil {
				return err
			}
			prefetchRefs(cmd.Context(), a, notes)

			updater := notefill.NewUpdater(a.cache, a.mapping(), nil, a.log)

			batch := make([]notefill.Note, len(notes))
			for i, note := range notes {
				batch[i] = note
			}

			report, err := updater.FillFieldInAllNotes(cmd.Context(), noteType, notefill.LogicalField(args[0]), batch)
			if err != nil {
				return err
			}

			var written int
			for _, note := range notes {
				changed := note.Changed()
				if len(changed) == 0 {
					continue
				}
				if err := client.UpdateNoteFields(cmd.Context(), note.ID(), changed); err != nil {
					report.Failures = append(report.Failures, notefill.NoteFailure{NoteID: note.ID(), Err: err})
					continue
				}
				written++
			}

			fmt.Printf("Batch %s: field %s on %q\n", report.BatchID, report.Field, report.NoteType)
			fmt.Printf("Updated %d (%d written), skipped %d, failed %d.\n",
				report.Updated, written, report.Skipped, len(report.Failures))
			for _, failure := range report.Failures {
				fmt.Printf("  note %d: %v\n", failure.NoteID, failure.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&noteType, "note-type", "", "note type to fill (defaults to config)")
	return cmd
}
