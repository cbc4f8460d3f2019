package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seqIDs(start int64) IDFunc {
	next := start
	return func() int64 {
		id := next
		next++
		return id
	}
}

func TestSynthesize_Template(t *testing.T) {
	s := Synthesizer{NewID: seqIDs(42)}.Synthesize([]string{"Header 1", "Header 2", "Header 3"})
	if s.ID != 42 {
		t.Fatalf("expected injected id 42, got %d", s.ID)
	}
	if s.Name != "Header 1, Header 2, Header 3 Model" {
		t.Fatalf("unexpected name %q", s.Name)
	}
	want := Template{
		Name:     "Card 1",
		Question: "{{Header 1}}<br>{{Header 2}}<br>{{Header 3}}",
		Answer:   `{{FrontSide}}<hr id="answer">{{Header 1}}{{Header 2}}{{Header 3}}`,
	}
	if diff := cmp.Diff(want, s.Template); diff != "" {
		t.Fatalf("template (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Header 1", "Header 2", "Header 3"}, s.Fields); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
}

func TestSynthesize_EmptyHeaders(t *testing.T) {
	s := Synthesizer{NewID: seqIDs(1)}.Synthesize(nil)
	if len(s.Fields) != 0 {
		t.Fatalf("expected zero fields, got %v", s.Fields)
	}
	if s.Template.Question != "" {
		t.Fatalf("expected empty question, got %q", s.Template.Question)
	}
	if s.Template.Answer != `{{FrontSide}}<hr id="answer">` {
		t.Fatalf("unexpected answer %q", s.Template.Answer)
	}
}

func TestSynthesize_IdenticalHeadersGetDistinctIDs(t *testing.T) {
	h := []string{"A", "B"}
	a := New(h)
	b := New(h)
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both %d", a.ID)
	}
	if a == b {
		t.Fatalf("expected distinct schema values")
	}
}

func TestRandomID_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := RandomID()
		if id < 1<<30 || id >= 1<<31 {
			t.Fatalf("id out of range: %d", id)
		}
	}
}

func TestFieldNames(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"plain", []string{"Term", "Definition"}, []string{"Term", "Definition"}},
		{"braces removed", []string{"{{Term}}", "a:b"}, []string{"Term", "ab"}},
		{"leading markers stripped", []string{"#tag", "/close", "^caret"}, []string{"tag", "close", "caret"}},
		{"blank becomes positional", []string{"", "  ", "X"}, []string{"Field 1", "Field 2", "X"}},
		{"duplicates suffixed", []string{"A", "A", "A"}, []string{"A", "A (2)", "A (3)"}},
		{"suffix collision", []string{"A", "A (2)", "A"}, []string{"A", "A (2)", "A (3)"}},
		{"frontside reserved", []string{"FrontSide"}, []string{"FrontSide (field)"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, FieldNames(tc.in)); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	s := Synthesizer{NewID: seqIDs(1)}.Synthesize([]string{"A", "B"})
	if s.Index("B") != 1 || s.Index("C") != -1 {
		t.Fatalf("unexpected index results")
	}
}
