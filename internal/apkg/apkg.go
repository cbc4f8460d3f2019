// Package apkg writes decks as Anki package files: a zip archive holding a
// SQLite collection and an empty media map.
package apkg

import (
	"archive/zip"
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/hiAndrewQuinn/table2anki/internal/card"
	"github.com/hiAndrewQuinn/table2anki/internal/deck"
)

const (
	collectionName = "collection.anki2"
	mediaName      = "media"
	fieldSep       = "\x1f"
)

// Writer implements deck.Packager.
type Writer struct {
	// Now stamps modification times and seeds note/card ids. Defaults to time.Now.
	Now func() time.Time
}

var _ deck.Packager = Writer{}

func (w Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Package writes d to path. The archive is assembled in a temporary file next
// to path and renamed into place only on success, so a failed run never leaves
// a partial package behind.
func (w Writer) Package(ctx context.Context, d *deck.Deck, path string) (err error) {
	tmpDir, err := os.MkdirTemp("", "table2anki-*")
	if err != nil {
		return &deck.PackagingError{Path: path, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, collectionName)
	if err := w.writeCollection(ctx, dbPath, d); err != nil {
		return &deck.PackagingError{Path: path, Err: fmt.Errorf("write collection: %w", err)}
	}

	out, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &deck.PackagingError{Path: path, Err: err}
	}
	tmpName := out.Name()
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = writeArchive(out, dbPath); err != nil {
		return &deck.PackagingError{Path: path, Err: err}
	}
	if err = out.Sync(); err != nil {
		return &deck.PackagingError{Path: path, Err: err}
	}
	if err = out.Close(); err != nil {
		return &deck.PackagingError{Path: path, Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &deck.PackagingError{Path: path, Err: err}
	}
	log.Debug().Str("path", path).Int("cards", d.Len()).Msg("package written")
	return nil
}

func writeArchive(out io.Writer, dbPath string) error {
	zw := zip.NewWriter(out)
	f, err := zw.Create(collectionName)
	if err != nil {
		return err
	}
	db, err := os.Open(dbPath)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, db)
	db.Close()
	if err != nil {
		return fmt.Errorf("copy collection: %w", err)
	}
	m, err := zw.Create(mediaName)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(m, "{}"); err != nil {
		return err
	}
	return zw.Close()
}

func (w Writer) writeCollection(ctx context.Context, dbPath string, d *deck.Deck) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schemaSQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	now := w.now()
	mod := now.Unix()
	groups := packableGroups(d)
	conf, models, decks, dconf, err := colJSON(d, groups, mod)
	if err != nil {
		return fmt.Errorf("encode collection config: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO col VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		dayStart(now).Unix(), now.UnixMilli(), now.UnixMilli(), conf, models, decks, dconf,
	); err != nil {
		return fmt.Errorf("insert col: %w", err)
	}

	noteStmt, err := tx.PrepareContext(ctx, `INSERT INTO notes VALUES (?, ?, ?, ?, -1, '', ?, ?, ?, 0, '')`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()
	cardStmt, err := tx.PrepareContext(ctx, `INSERT INTO cards VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	noteID := now.UnixMilli()
	cardID := now.UnixMilli()
	pos := 0
	for gi, g := range groups {
		for ci, c := range g.Cards {
			pos++
			noteID++
			sfld := sortField(c)
			if _, err := noteStmt.ExecContext(ctx, noteID, guidFor(c, gi, ci), g.Schema.ID, mod,
				strings.Join(c.Values, fieldSep), sfld, checksum(sfld)); err != nil {
				return fmt.Errorf("insert note: %w", err)
			}
			// Anki only generates a card when some field on the question is filled.
			if c.Empty() {
				log.Debug().Int64("note", noteID).Msg("all fields empty; note has no card")
				continue
			}
			cardID++
			if _, err := cardStmt.ExecContext(ctx, cardID, noteID, d.ID, mod, pos); err != nil {
				return fmt.Errorf("insert card: %w", err)
			}
		}
	}
	return tx.Commit()
}

// packableGroups drops groups whose schema has no fields; Anki cannot import
// a note type without fields and such cards carry no data.
func packableGroups(d *deck.Deck) []deck.Group {
	out := make([]deck.Group, 0, len(d.Groups))
	for _, g := range d.Groups {
		if len(g.Schema.Fields) == 0 {
			log.Warn().Int64("schema", g.Schema.ID).Int("cards", len(g.Cards)).Msg("table has no header cells; skipped in package")
			continue
		}
		out = append(out, g)
	}
	return out
}

func dayStart(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, t.Location())
}

func sortField(c card.Card) string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

// checksum is the first 32 bits of sha1(s), as Anki stores in notes.csum.
func checksum(s string) int64 {
	sum := sha1.Sum([]byte(s))
	n, _ := strconv.ParseInt(hex.EncodeToString(sum[:4]), 16, 64)
	return n
}

const base91Table = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&()*+,-./:;<=>?@[]^_`{|}~"

// guidFor derives a note guid. The schema id and row position are mixed in
// so duplicate rows stay distinct notes.
func guidFor(c card.Card, group, row int) string {
	parts := append([]string{strconv.FormatInt(c.Schema.ID, 10), strconv.Itoa(group), strconv.Itoa(row)}, c.Values...)
	sum := sha256.Sum256([]byte(strings.Join(parts, "__")))
	return base91(binary.BigEndian.Uint64(sum[:8]))
}

func base91(n uint64) string {
	if n == 0 {
		return base91Table[:1]
	}
	var buf []byte
	for n > 0 {
		buf = append(buf, base91Table[n%91])
		n /= 91
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}
