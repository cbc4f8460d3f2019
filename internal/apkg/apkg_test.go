package apkg

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hiAndrewQuinn/table2anki/internal/deck"
)

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func ids(start int64) func() int64 {
	next := start
	return func() int64 {
		id := next
		next++
		return id
	}
}

// openCollection unzips the package at path and returns the collection DB
// together with the archive's file names.
func openCollection(t *testing.T, path string) (*sql.DB, []string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	var names []string
	dbPath := filepath.Join(t.TempDir(), collectionName)
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name != collectionName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		out, err := os.Create(dbPath)
		if err != nil {
			t.Fatalf("create db: %v", err)
		}
		if _, err := io.Copy(out, rc); err != nil {
			t.Fatalf("copy db: %v", err)
		}
		rc.Close()
		out.Close()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, names
}

func TestPackage_WritesNotesAndCards(t *testing.T) {
	d := deck.Assembler{NewID: ids(5000)}.New()
	d.AddTable([]string{"Header A", "Header B"}, [][]string{{"Row 1, Cell A", "Row 1, Cell B"}})
	d.AddTable([]string{"Header 1"}, [][]string{{"Row 1, Cell 1 😀"}, {"Row 1, Cell 1 😀"}, {""}})

	out := filepath.Join(t.TempDir(), "output.apkg")
	if err := (Writer{Now: fixedNow}).Package(context.Background(), d, out); err != nil {
		t.Fatalf("package: %v", err)
	}
	db, names := openCollection(t, out)
	if diff := cmp.Diff([]string{collectionName, mediaName}, names); diff != "" {
		t.Fatalf("archive entries (-want +got):\n%s", diff)
	}

	rows, err := db.Query(`SELECT flds, mid, guid FROM notes ORDER BY id`)
	if err != nil {
		t.Fatalf("query notes: %v", err)
	}
	defer rows.Close()
	var flds []string
	var mids []int64
	guids := map[string]bool{}
	for rows.Next() {
		var f, g string
		var mid int64
		if err := rows.Scan(&f, &mid, &g); err != nil {
			t.Fatalf("scan: %v", err)
		}
		flds = append(flds, f)
		mids = append(mids, mid)
		guids[g] = true
	}
	want := []string{"Row 1, Cell A\x1fRow 1, Cell B", "Row 1, Cell 1 😀", "Row 1, Cell 1 😀", ""}
	if diff := cmp.Diff(want, flds); diff != "" {
		t.Fatalf("note fields (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{5001, 5002, 5002, 5002}, mids); diff != "" {
		t.Fatalf("note model ids (-want +got):\n%s", diff)
	}
	if len(guids) != 4 {
		t.Fatalf("expected 4 distinct guids, got %d", len(guids))
	}

	var cards int
	if err := db.QueryRow(`SELECT count(*) FROM cards WHERE did = ?`, d.ID).Scan(&cards); err != nil {
		t.Fatalf("count cards: %v", err)
	}
	if cards != 3 {
		t.Fatalf("expected 3 cards (empty note has none), got %d", cards)
	}

	var modelsJSON, decksJSON string
	if err := db.QueryRow(`SELECT models, decks FROM col`).Scan(&modelsJSON, &decksJSON); err != nil {
		t.Fatalf("read col: %v", err)
	}
	var models map[string]model
	if err := json.Unmarshal([]byte(modelsJSON), &models); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	m, ok := models[strconv.FormatInt(5001, 10)]
	if !ok {
		t.Fatalf("model 5001 missing from %v", modelsJSON)
	}
	if m.Name != "Header A, Header B Model" || len(m.Flds) != 2 || m.Flds[1].Name != "Header B" {
		t.Fatalf("unexpected model %+v", m)
	}
	if m.Tmpls[0].Qfmt != "{{Header A}}<br>{{Header B}}" {
		t.Fatalf("unexpected qfmt %q", m.Tmpls[0].Qfmt)
	}
	if !strings.Contains(decksJSON, `"HTML Table Deck"`) {
		t.Fatalf("deck name missing: %s", decksJSON)
	}
}

func TestPackage_EmptyDeck(t *testing.T) {
	d := deck.Assembler{NewID: ids(1)}.Assemble(nil)
	out := filepath.Join(t.TempDir(), "empty.apkg")
	if err := (Writer{Now: fixedNow}).Package(context.Background(), d, out); err != nil {
		t.Fatalf("package: %v", err)
	}
	db, _ := openCollection(t, out)
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
		t.Fatalf("count notes: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no notes, got %d", n)
	}
}

func TestPackage_SkipsFieldlessSchema(t *testing.T) {
	d := deck.Assembler{NewID: ids(1)}.New()
	d.AddTable(nil, [][]string{{"x"}})
	out := filepath.Join(t.TempDir(), "degenerate.apkg")
	if err := (Writer{Now: fixedNow}).Package(context.Background(), d, out); err != nil {
		t.Fatalf("package: %v", err)
	}
	db, _ := openCollection(t, out)
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
		t.Fatalf("count notes: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected fieldless table to be skipped, got %d notes", n)
	}
}

func TestPackage_UnwritableDestination(t *testing.T) {
	d := deck.Assembler{NewID: ids(1)}.New()
	d.AddTable([]string{"A"}, [][]string{{"1"}})
	out := filepath.Join(t.TempDir(), "missing-dir", "out.apkg")
	err := (Writer{Now: fixedNow}).Package(context.Background(), d, out)
	var pe *deck.PackagingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PackagingError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no output file, stat err = %v", statErr)
	}
}

func TestPackage_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	d := deck.Assembler{NewID: ids(1)}.New()
	d.AddTable([]string{"A"}, [][]string{{"1"}})
	if err := (Writer{Now: fixedNow}).Package(context.Background(), d, filepath.Join(dir, "out.apkg")); err != nil {
		t.Fatalf("package: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.apkg" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents: %v", names)
	}
}

func TestChecksumAndBase91(t *testing.T) {
	// sha1("abc") = a9993e36...
	if got := checksum("abc"); got != 0xa9993e36 {
		t.Fatalf("unexpected checksum %x", got)
	}
	if base91(0) != "a" || base91(91) != "ba" {
		t.Fatalf("unexpected base91 encoding: %q %q", base91(0), base91(91))
	}
}
