package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hiAndrewQuinn/table2anki/internal/app"
)

// cliOptions are flags that steer startup rather than the conversion itself.
type cliOptions struct {
	configPath string
	envFile    string
	version    bool
}

func main() {
	cfg, opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		setupLogging(os.Stderr, false)
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(app.VersionString())
		return
	}
	setupLogging(os.Stderr, cfg.Verbose)

	if err := run(cfg); err != nil {
		os.Exit(exitCode(err))
	}
}

// setupLogging configures the global zerolog logger. It is called explicitly
// from main; importing packages has no logging side effects.
func setupLogging(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func newFlagSet(cfg *app.Config, opts *cliOptions, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("table2anki", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Convert an HTML table to an Anki deck.")
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Usage: table2anki [--html STRING | --file PATH | --url URL] [--output FILE]")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.HTML, "html", "", "The HTML string containing the table")
	fs.StringVar(&cfg.File, "file", "", "Path to an HTML file containing the table")
	fs.StringVar(&cfg.URL, "url", "", "URL to fetch and extract tables from")
	fs.StringVar(&cfg.OutputPath, "output", app.DefaultOutputPath, "Name of the output Anki deck file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cfg.Verbose, "v", false, "Shorthand for --verbose")
	fs.StringVar(&cfg.PDFPath, "pdf", "", "Also write a printable PDF preview of the cards to this path")
	fs.StringVar(&cfg.DeckName, "deck.name", app.DefaultDeckName, "Display name of the generated deck")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Extract and log tables without writing a deck")
	fs.StringVar(&cfg.UserAgent, "http.ua", "", "Custom User-Agent for URL fetches")
	fs.DurationVar(&cfg.HTTPTimeout, "http.timeout", app.DefaultHTTPTimeout, "Timeout for each URL fetch attempt")
	fs.IntVar(&cfg.HTTPRetries, "http.retries", app.DefaultHTTPRetries, "Extra attempts on 5xx or timeout")
	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "HTTP cache directory (empty disables caching)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before the run; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&opts.envFile, "env", app.DefaultEnvFile, "Dotenv file to load (missing file is ignored)")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	return fs
}

// parseArgs resolves configuration with precedence flags > env > config file
// > defaults.
func parseArgs(args []string, out io.Writer) (app.Config, cliOptions, error) {
	var flagCfg app.Config
	var opts cliOptions
	fs := newFlagSet(&flagCfg, &opts, out)
	if err := fs.Parse(args); err != nil {
		return app.Config{}, opts, err
	}
	if fs.NArg() > 0 {
		return app.Config{}, opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.version {
		return flagCfg, opts, nil
	}

	if err := app.LoadEnvFiles(opts.envFile); err != nil {
		return app.Config{}, opts, err
	}

	// Defaults first; file and env values, explicit zeros included, layer over them.
	cfg := app.Config{
		OutputPath:  app.DefaultOutputPath,
		DeckName:    app.DefaultDeckName,
		HTTPTimeout: app.DefaultHTTPTimeout,
		HTTPRetries: app.DefaultHTTPRetries,
	}
	if strings.TrimSpace(opts.configPath) != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return app.Config{}, opts, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	// Only flags given on the command line override.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overlay := func(names []string, apply func()) {
		for _, n := range names {
			if set[n] {
				apply()
				return
			}
		}
	}
	overlay([]string{"html"}, func() { cfg.HTML = flagCfg.HTML })
	overlay([]string{"file"}, func() { cfg.File = flagCfg.File })
	overlay([]string{"url"}, func() { cfg.URL = flagCfg.URL })
	overlay([]string{"output"}, func() { cfg.OutputPath = flagCfg.OutputPath })
	overlay([]string{"verbose", "v"}, func() { cfg.Verbose = flagCfg.Verbose })
	overlay([]string{"pdf"}, func() { cfg.PDFPath = flagCfg.PDFPath })
	overlay([]string{"deck.name"}, func() { cfg.DeckName = flagCfg.DeckName })
	overlay([]string{"dry-run"}, func() { cfg.DryRun = flagCfg.DryRun })
	overlay([]string{"http.ua"}, func() { cfg.UserAgent = flagCfg.UserAgent })
	overlay([]string{"http.timeout"}, func() { cfg.HTTPTimeout = flagCfg.HTTPTimeout })
	overlay([]string{"http.retries"}, func() { cfg.HTTPRetries = flagCfg.HTTPRetries })
	overlay([]string{"cache.dir"}, func() { cfg.CacheDir = flagCfg.CacheDir })
	overlay([]string{"cache.maxAge"}, func() { cfg.CacheMaxAge = flagCfg.CacheMaxAge })
	overlay([]string{"cache.clear"}, func() { cfg.CacheClear = flagCfg.CacheClear })
	overlay([]string{"cache.strictPerms"}, func() { cfg.CacheStrictPerms = flagCfg.CacheStrictPerms })

	return cfg, opts, nil
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return fmt.Errorf("init app: %w", err)
	}

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, app.ErrInputMissing) {
			log.Error().Msg(capitalize(err.Error()) + ".")
		} else {
			log.Error().Err(err).Msg("run failed")
		}
		return err
	}
	return nil
}

// exitCode maps errors to the process exit status: 2 for missing input,
// 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, app.ErrInputMissing) {
		return 2
	}
	return 1
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
