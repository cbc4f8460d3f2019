package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hiAndrewQuinn/table2anki/internal/apkg"
	"github.com/hiAndrewQuinn/table2anki/internal/cache"
	"github.com/hiAndrewQuinn/table2anki/internal/deck"
	"github.com/hiAndrewQuinn/table2anki/internal/extract"
	"github.com/hiAndrewQuinn/table2anki/internal/fetch"
	"github.com/hiAndrewQuinn/table2anki/internal/preview"
	"github.com/hiAndrewQuinn/table2anki/internal/schema"
	"github.com/hiAndrewQuinn/table2anki/internal/source"
)

// ErrInputMissing is returned by Run when no HTML source was given.
var ErrInputMissing = source.ErrInputMissing

// App runs one conversion: acquire HTML, extract tables, assemble a deck and
// package it.
type App struct {
	cfg      Config
	getter   source.Getter
	packager deck.Packager
	newID    schema.IDFunc
}

// Option customizes an App.
type Option func(*App)

// WithIDFunc sets the id generator used for the deck and its schemas.
func WithIDFunc(f schema.IDFunc) Option { return func(a *App) { a.newID = f } }

// WithPackager replaces the .apkg writer.
func WithPackager(p deck.Packager) Option { return func(a *App) { a.packager = p } }

// WithGetter replaces the HTTP fetcher used for URL sources.
func WithGetter(g source.Getter) Option { return func(a *App) { a.getter = g } }

// New validates cfg, fills in the output path and deck name defaults, and
// prepares the URL fetcher. When a cache directory is configured it is
// cleared or purged here, before any fetch.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if cfg.DeckName == "" {
		cfg.DeckName = DefaultDeckName
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	client := &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.HTTPRetries + 1,
		PerRequestTimeout: cfg.HTTPTimeout,
	}
	if cfg.CacheDir != "" {
		hc := &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		if cfg.CacheClear {
			if err := hc.Clear(); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := hc.PurgeOlderThan(cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired cache entries")
			}
		}
		client.Cache = hc
	}

	a := &App{cfg: cfg, getter: client, packager: apkg.Writer{}, newID: schema.RandomID}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Convert acquires the HTML and builds the deck without writing anything.
func (a *App) Convert(ctx context.Context) (*deck.Deck, error) {
	html, err := source.Load(ctx, source.Request{HTML: a.cfg.HTML, File: a.cfg.File, URL: a.cfg.URL}, a.getter)
	if err != nil {
		return nil, err
	}

	tables := extract.Tables(html)
	log.Debug().Int("tables", len(tables)).Msg("extraction complete")

	d := deck.Assembler{NewID: a.newID, Name: a.cfg.DeckName}.New()
	for i, t := range tables {
		if a.cfg.Verbose {
			log.Info().Int("table", i+1).Msgf("Headers: %s", formatRow(t.Headers))
			log.Info().Int("table", i+1).Msgf("Data: %s", formatRows(t.Rows))
		}
		for j, row := range t.Rows {
			log.Debug().Int("table", i+1).Msgf("Row %d: %s", j+1, formatRow(row))
		}
		d.AddTable(t.Headers, t.Rows)
	}
	return d, nil
}

// Run converts and packages. In dry-run mode nothing is written.
func (a *App) Run(ctx context.Context) error {
	d, err := a.Convert(ctx)
	if err != nil {
		return err
	}
	if a.cfg.DryRun {
		log.Info().Int("tables", len(d.Groups)).Int("cards", d.Len()).Msg("dry run; no deck written")
		return nil
	}

	if err := deck.Save(ctx, a.packager, d, a.cfg.OutputPath); err != nil {
		return err
	}
	log.Info().Int("tables", len(d.Groups)).Int("cards", d.Len()).Msgf("Anki deck saved to %s.", a.cfg.OutputPath)

	if a.cfg.PDFPath != "" {
		if err := preview.WritePDF(d, a.cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf preview: %w", err)
		}
		log.Info().Str("path", a.cfg.PDFPath).Msg("PDF preview written")
	}
	return nil
}

func formatRow(row []string) string {
	quoted := make([]string, len(row))
	for i, v := range row {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatRows(rows [][]string) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = formatRow(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
