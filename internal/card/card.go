// Package card turns data rows into cards bound to a schema.
package card

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hiAndrewQuinn/table2anki/internal/schema"
)

// Card holds one row's values, positionally aligned with its schema's fields.
type Card struct {
	Schema *schema.Schema
	Values []string
}

// Build returns one card per row, in row order. Short rows are padded with
// empty values and long rows are truncated to the schema's field count.
func Build(s *schema.Schema, rows [][]string) []Card {
	cards := make([]Card, 0, len(rows))
	for i, row := range rows {
		values, dropped := Reconcile(row, len(s.Fields))
		if dropped > 0 {
			log.Debug().Int("row", i+1).Int("dropped", dropped).Msg("row longer than header; extra cells ignored")
		} else if len(row) < len(s.Fields) {
			log.Debug().Int("row", i+1).Int("missing", len(s.Fields)-len(row)).Msg("row shorter than header; padding with empty fields")
		}
		cards = append(cards, Card{Schema: s, Values: values})
	}
	return cards
}

// Reconcile copies row into a slice of exactly n values and reports how many
// trailing cells were dropped.
func Reconcile(row []string, n int) ([]string, int) {
	out := make([]string, n)
	copy(out, row)
	if len(row) > n {
		return out, len(row) - n
	}
	return out, 0
}

// Field returns the value of the named field.
func (c Card) Field(name string) (string, bool) {
	i := c.Schema.Index(name)
	if i < 0 {
		return "", false
	}
	return c.Values[i], true
}

// Empty reports whether every value is blank.
func (c Card) Empty() bool {
	for _, v := range c.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Render substitutes field values into the schema's template and returns the
// question and answer sides.
func (c Card) Render() (string, string) {
	q := c.substitute(c.Schema.Template.Question, "")
	a := c.substitute(c.Schema.Template.Answer, q)
	return q, a
}

// substitute replaces {{Name}} references. Unknown names render empty.
func (c Card) substitute(tmpl, front string) string {
	var b strings.Builder
	for {
		start := strings.Index(tmpl, "{{")
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.Index(tmpl[start+2:], "}}")
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		b.WriteString(tmpl[:start])
		name := strings.TrimSpace(tmpl[start+2 : start+2+end])
		if name == schema.FrontSide {
			b.WriteString(front)
		} else if v, ok := c.Field(name); ok {
			b.WriteString(v)
		}
		tmpl = tmpl[start+2+end+2:]
	}
	return b.String()
}
