// Package source resolves the HTML text to convert from a literal string, a
// local file, or a URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInputMissing is returned when no source yields any HTML.
var ErrInputMissing = errors.New("please provide an HTML string, specify an HTML file using the --file option, or provide a URL using the --url option")

// FileError reports an input file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Getter fetches a URL and returns its body and Content-Type.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Request names the candidate sources. More than one may be set.
type Request struct {
	HTML string
	File string
	URL  string
}

// Load resolves req to HTML text. The literal is replaced by the file
// contents when File is set, and that in turn by the fetched page when URL is
// set, so URL > File > HTML. Empty results are ErrInputMissing.
func Load(ctx context.Context, req Request, getter Getter) (string, error) {
	text := req.HTML
	origin := "literal"

	if strings.TrimSpace(req.File) != "" {
		b, err := os.ReadFile(req.File)
		if err != nil {
			return "", &FileError{Path: req.File, Err: err}
		}
		if text, err = Decode(b, ""); err != nil {
			return "", &FileError{Path: req.File, Err: err}
		}
		origin = "file"
	}

	if strings.TrimSpace(req.URL) != "" {
		if getter == nil {
			return "", fmt.Errorf("fetch %s: no HTTP client configured", req.URL)
		}
		if origin == "file" {
			log.Warn().Str("file", req.File).Str("url", req.URL).Msg("both --file and --url given; using URL content")
		}
		b, contentType, err := getter.Get(ctx, req.URL)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", req.URL, err)
		}
		if text, err = Decode(b, contentType); err != nil {
			return "", fmt.Errorf("decode %s: %w", req.URL, err)
		}
		origin = "url"
	}

	if text == "" {
		return "", ErrInputMissing
	}
	log.Debug().Str("source", origin).Int("bytes", len(text)).Msg("loaded HTML")
	return text, nil
}

// Decode converts b to UTF-8. The encoding comes from a BOM, a <meta> charset
// declaration, or contentType, in that order, defaulting to UTF-8 for valid
// UTF-8 input.
func Decode(b []byte, contentType string) (string, error) {
	enc, name, _ := charset.DetermineEncoding(b, contentType)
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}
