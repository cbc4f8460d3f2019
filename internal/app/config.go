package app

import "time"

// Defaults shared by flag parsing and config-file overlay.
const (
	DefaultOutputPath  = "output.apkg"
	DefaultDeckName    = "HTML Table Deck"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultHTTPRetries = 2
	DefaultEnvFile     = ".env"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Input sources; see source.Load for precedence.
	HTML string
	File string
	URL  string

	OutputPath string
	PDFPath    string
	DeckName   string

	// HTTP
	UserAgent   string
	HTTPTimeout time.Duration
	HTTPRetries int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Behavior
	DryRun  bool
	Verbose bool
}
