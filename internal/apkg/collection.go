package apkg

import (
	"encoding/json"
	"strconv"

	"github.com/hiAndrewQuinn/table2anki/internal/deck"
	"github.com/hiAndrewQuinn/table2anki/internal/schema"
)

// schemaSQL is the Anki 2.1 collection layout (schema version 11).
var schemaSQL = []string{
	`CREATE TABLE col (
    id integer primary key,
    crt integer not null,
    mod integer not null,
    scm integer not null,
    ver integer not null,
    dty integer not null,
    usn integer not null,
    ls integer not null,
    conf text not null,
    models text not null,
    decks text not null,
    dconf text not null,
    tags text not null
)`,
	`CREATE TABLE notes (
    id integer primary key,
    guid text not null,
    mid integer not null,
    mod integer not null,
    usn integer not null,
    tags text not null,
    flds text not null,
    sfld integer not null,
    csum integer not null,
    flags integer not null,
    data text not null
)`,
	`CREATE TABLE cards (
    id integer primary key,
    nid integer not null,
    did integer not null,
    ord integer not null,
    mod integer not null,
    usn integer not null,
    type integer not null,
    queue integer not null,
    due integer not null,
    ivl integer not null,
    factor integer not null,
    reps integer not null,
    lapses integer not null,
    left integer not null,
    odue integer not null,
    odid integer not null,
    flags integer not null,
    data text not null
)`,
	`CREATE TABLE revlog (
    id integer primary key,
    cid integer not null,
    usn integer not null,
    ease integer not null,
    ivl integer not null,
    lastIvl integer not null,
    factor integer not null,
    time integer not null,
    type integer not null
)`,
	`CREATE TABLE graves (
    usn integer not null,
    oid integer not null,
    type integer not null
)`,
	`CREATE INDEX ix_notes_usn on notes (usn)`,
	`CREATE INDEX ix_cards_usn on cards (usn)`,
	`CREATE INDEX ix_revlog_usn on revlog (usn)`,
	`CREATE INDEX ix_cards_nid on cards (nid)`,
	`CREATE INDEX ix_cards_sched on cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_cid on revlog (cid)`,
	`CREATE INDEX ix_notes_csum on notes (csum)`,
}

const defaultCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}
`

const (
	latexPre  = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"
)

type modelField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type modelTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
	Afmt  string `json:"afmt"`
	Bqfmt string `json:"bqfmt"`
	Bafmt string `json:"bafmt"`
	Did   *int64 `json:"did"`
}

type model struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	Usn       int             `json:"usn"`
	Sortf     int             `json:"sortf"`
	Did       int64           `json:"did"`
	Tmpls     []modelTemplate `json:"tmpls"`
	Flds      []modelField    `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	LatexSvg  bool            `json:"latexsvg"`
	Req       [][]any         `json:"req"`
	Tags      []string        `json:"tags"`
	Vers      []any           `json:"vers"`
}

type deckJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	Collapsed bool   `json:"collapsed"`
	Conf      int    `json:"conf"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	LrnToday  [2]int `json:"lrnToday"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	TimeToday [2]int `json:"timeToday"`
}

func newDeckJSON(id int64, name string, mod int64) deckJSON {
	return deckJSON{ID: id, Name: name, Mod: mod, Usn: -1, Conf: 1, ExtendNew: 10, ExtendRev: 50}
}

func modelFor(s *schema.Schema, deckID, mod int64) model {
	flds := make([]modelField, len(s.Fields))
	ords := make([]int, len(s.Fields))
	for i, f := range s.Fields {
		flds[i] = modelField{Name: f, Ord: i, Font: "Arial", Media: []string{}, Size: 20}
		ords[i] = i
	}
	return model{
		ID:    s.ID,
		Name:  s.Name,
		Mod:   mod,
		Usn:   -1,
		Did:   deckID,
		Flds:  flds,
		Tmpls: []modelTemplate{{
			Name: s.Template.Name,
			Qfmt: s.Template.Question,
			Afmt: s.Template.Answer,
		}},
		CSS:       defaultCSS,
		LatexPre:  latexPre,
		LatexPost: latexPost,
		// The question shows every field, so any non-empty field yields a card.
		Req:  [][]any{{0, "any", ords}},
		Tags: []string{},
		Vers: []any{},
	}
}

// colJSON renders the conf, models, decks and dconf columns of the col row.
func colJSON(d *deck.Deck, groups []deck.Group, mod int64) (conf, models, decks, dconf string, err error) {
	ms := make(map[string]model, len(groups))
	var curModel string
	for _, g := range groups {
		key := strconv.FormatInt(g.Schema.ID, 10)
		if curModel == "" {
			curModel = key
		}
		ms[key] = modelFor(g.Schema, d.ID, mod)
	}
	ds := map[string]deckJSON{
		"1": newDeckJSON(1, "Default", 0),
		strconv.FormatInt(d.ID, 10): newDeckJSON(d.ID, d.Name, mod),
	}
	cf := map[string]any{
		"activeDecks":   []int64{1},
		"addToCur":      true,
		"collapseTime":  1200,
		"curDeck":       1,
		"curModel":      curModel,
		"dueCounts":     true,
		"estTimes":      true,
		"newBury":       true,
		"newSpread":     0,
		"nextPos":       1,
		"sortBackwards": false,
		"sortType":      "noteFld",
		"timeLim":       0,
	}
	dc := map[string]any{
		"1": map[string]any{
			"autoplay": true,
			"id":       1,
			"lapse": map[string]any{
				"delays": []int{10}, "leechAction": 0, "leechFails": 8, "minInt": 1, "mult": 0,
			},
			"maxTaken": 60,
			"mod":      0,
			"name":     "Default",
			"new": map[string]any{
				"bury": true, "delays": []int{1, 10}, "initialFactor": 2500,
				"ints": []int{1, 4, 7}, "order": 1, "perDay": 20, "separate": true,
			},
			"replayq": true,
			"rev": map[string]any{
				"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1,
				"maxIvl": 36500, "minSpace": 1, "perDay": 100,
			},
			"timer": 0,
			"usn":   0,
		},
	}
	for _, p := range []struct {
		dst *string
		v   any
	}{{&conf, cf}, {&models, ms}, {&decks, ds}, {&dconf, dc}} {
		b, err := json.Marshal(p.v)
		if err != nil {
			return "", "", "", "", err
		}
		*p.dst = string(b)
	}
	return conf, models, decks, dconf, nil
}
