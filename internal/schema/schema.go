// Package schema derives a card schema (an Anki note type) from the header
// row of a table.
package schema

import (
	"fmt"
	"math/rand"
	"strings"
)

// IDFunc returns a fresh numeric identifier for a schema or deck.
type IDFunc func() int64

// RandomID draws from [1<<30, 1<<31), the range Anki recommends for
// hand-assigned model and deck ids. Collisions are not checked.
func RandomID() int64 {
	const lo, hi = int64(1) << 30, int64(1) << 31
	return lo + rand.Int63n(hi-lo)
}

const (
	// FrontSide is the placeholder Anki expands to the rendered question.
	FrontSide = "FrontSide"
	// QuestionSeparator separates fields on the question side.
	QuestionSeparator = "<br>"
	// AnswerDivider marks where the answer starts below the question.
	AnswerDivider = `<hr id="answer">`
	// TemplateName is the name of the single card template.
	TemplateName = "Card 1"
	// NameSuffix is appended to the joined headers to name a schema.
	NameSuffix = " Model"
)

// Template is the question/answer rendering of a schema.
type Template struct {
	Name     string
	Question string
	Answer   string
}

// Schema is the immutable field set and template shared by all cards built
// from one table.
type Schema struct {
	ID       int64
	Name     string
	Fields   []string
	Template Template
}

// Synthesizer builds schemas. A zero Synthesizer uses RandomID.
type Synthesizer struct {
	NewID IDFunc
}

// New synthesizes a schema with a random id.
func New(headers []string) *Schema {
	return Synthesizer{}.Synthesize(headers)
}

// Synthesize returns a new schema for headers. Every call gets its own id,
// even for identical headers.
func (s Synthesizer) Synthesize(headers []string) *Schema {
	newID := s.NewID
	if newID == nil {
		newID = RandomID
	}
	fields := FieldNames(headers)
	return &Schema{
		ID:       newID(),
		Name:     strings.Join(headers, ", ") + NameSuffix,
		Fields:   fields,
		Template: buildTemplate(fields),
	}
}

// Index returns the position of field name, or -1.
func (s *Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Placeholder returns the template reference for a field name.
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

func buildTemplate(fields []string) Template {
	refs := make([]string, len(fields))
	for i, f := range fields {
		refs[i] = Placeholder(f)
	}
	question := strings.Join(refs, QuestionSeparator)
	answer := Placeholder(FrontSide) + AnswerDivider + strings.Join(refs, "")
	return Template{Name: TemplateName, Question: question, Answer: answer}
}

// FieldNames turns raw header cells into usable, unique field names.
// Characters that would break placeholder substitution are removed, blanks
// become "Field N", and repeated names get a " (2)", " (3)" suffix so every
// column keeps its value.
func FieldNames(headers []string) []string {
	out := make([]string, 0, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := sanitize(h)
		if name == "" {
			name = fmt.Sprintf("Field %d", i+1)
		}
		// FrontSide is reserved by the answer template.
		if name == FrontSide {
			name = FrontSide + " (field)"
		}
		base := name
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		used[name] = true
		out = append(out, name)
	}
	return out
}

func sanitize(h string) string {
	h = strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', ':', '"':
			return -1
		case '\x1f', '\n', '\r', '\t':
			return ' '
		}
		return r
	}, h)
	h = strings.TrimSpace(h)
	h = strings.TrimLeft(h, "#/^")
	return strings.TrimSpace(h)
}
