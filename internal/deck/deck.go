// Package deck collects cards from every extracted table into one deck and
// hands it to a packager.
package deck

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hiAndrewQuinn/table2anki/internal/card"
	"github.com/hiAndrewQuinn/table2anki/internal/extract"
	"github.com/hiAndrewQuinn/table2anki/internal/schema"
)

// DefaultName is the display name of generated decks.
const DefaultName = "HTML Table Deck"

// Group is the schema of one table together with the cards built from it.
type Group struct {
	Schema *schema.Schema
	Cards  []card.Card
}

// Deck is the unit handed to a Packager.
type Deck struct {
	ID     int64
	Name   string
	Groups []Group

	synth schema.Synthesizer
}

// Packager persists a deck at path.
type Packager interface {
	Package(ctx context.Context, d *Deck, path string) error
}

// PackagingError reports a failure to write the deck file.
type PackagingError struct {
	Path string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("package deck to %s: %v", e.Path, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

// Assembler creates decks. Zero values fall back to RandomID and DefaultName.
type Assembler struct {
	NewID schema.IDFunc
	Name  string
}

// New returns an empty deck with a fresh id.
func (a Assembler) New() *Deck {
	newID := a.NewID
	if newID == nil {
		newID = schema.RandomID
	}
	name := a.Name
	if name == "" {
		name = DefaultName
	}
	return &Deck{ID: newID(), Name: name, synth: schema.Synthesizer{NewID: newID}}
}

// Assemble builds a deck holding one group per table.
func (a Assembler) Assemble(tables []extract.Table) *Deck {
	d := a.New()
	for _, t := range tables {
		d.AddTable(t.Headers, t.Rows)
	}
	return d
}

// AddTable synthesizes a new schema for headers and appends its cards. Tables
// with identical headers still get separate schemas.
func (d *Deck) AddTable(headers []string, rows [][]string) Group {
	s := d.synth.Synthesize(headers)
	g := Group{Schema: s, Cards: card.Build(s, rows)}
	d.Groups = append(d.Groups, g)
	log.Debug().Int64("schema", s.ID).Str("name", s.Name).Int("cards", len(g.Cards)).Msg("added table to deck")
	return g
}

// Cards returns every card in group order.
func (d *Deck) Cards() []card.Card {
	out := make([]card.Card, 0, d.Len())
	for _, g := range d.Groups {
		out = append(out, g.Cards...)
	}
	return out
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Cards)
	}
	return n
}

// Save hands d to p and wraps any failure in a PackagingError.
func Save(ctx context.Context, p Packager, d *Deck, path string) error {
	if err := p.Package(ctx, d, path); err != nil {
		var pe *PackagingError
		if errors.As(err, &pe) {
			return err
		}
		return &PackagingError{Path: path, Err: err}
	}
	return nil
}
