package cache

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	metaSuffix = ".meta.json"
	bodySuffix = ".body"
)

// Clear deletes every cached page and leaves an empty directory behind,
// created with the same permissions Save would use.
func (c *HTTPCache) Clear() error {
	if c == nil || strings.TrimSpace(c.Dir) == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.RemoveAll(c.Dir); err != nil {
		return err
	}
	return c.ensureDir()
}

// PurgeOlderThan drops entries saved more than maxAge ago and returns how
// many were removed. Entries with unreadable metadata are left alone. A
// missing directory has nothing to purge.
func (c *HTTPCache) PurgeOlderThan(maxAge time.Duration) (int, error) {
	if c == nil || c.Dir == "" || maxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		key := strings.TrimSuffix(name, metaSuffix)
		savedAt, ok := c.savedAt(key)
		if !ok || !savedAt.Before(cutoff) {
			continue
		}
		// Meta goes first so a half-purged entry is never revalidated.
		if err := os.Remove(c.metaPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		_ = os.Remove(c.bodyPath(key))
		removed++
	}
	return removed, nil
}

func (c *HTTPCache) savedAt(key string) (time.Time, bool) {
	b, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return time.Time{}, false
	}
	e, err := decodeEntry(b)
	if err != nil {
		return time.Time{}, false
	}
	return e.SavedAt, true
}
