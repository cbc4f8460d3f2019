package app

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestLoadConfigFile_YAML(t *testing.T) {
    p := filepath.Join(t.TempDir(), "table2anki.yaml")
    content := `
url: https://example.com/vocab.html
output: vocab.apkg
deck:
  name: Finnish Vocab
http:
  timeout: 45s
  retries: 4
cache:
  dir: .cache
  maxAge: 24h
verbose: true
`
    if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    fc, err := LoadConfigFile(p)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if fc.URL != "https://example.com/vocab.html" || fc.Deck.Name != "Finnish Vocab" {
        t.Fatalf("unexpected config: %+v", fc)
    }
    if fc.HTTP.Retries == nil || *fc.HTTP.Retries != 4 {
        t.Fatalf("retries not parsed: %v", fc.HTTP.Retries)
    }
    if fc.HTTP.Timeout != 45*time.Second || fc.Cache.MaxAge != 24*time.Hour {
        t.Fatalf("durations not parsed: %v %v", fc.HTTP.Timeout, fc.Cache.MaxAge)
    }
}

func TestLoadConfigFile_JSON(t *testing.T) {
    p := filepath.Join(t.TempDir(), "table2anki.json")
    if err := os.WriteFile(p, []byte(`{"file":"tables.html","output":"x.apkg","dryRun":true}`), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    fc, err := LoadConfigFile(p)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if fc.File != "tables.html" || fc.Output != "x.apkg" || !fc.DryRun {
        t.Fatalf("unexpected config: %+v", fc)
    }
}

func TestLoadConfigFile_Invalid(t *testing.T) {
    p := filepath.Join(t.TempDir(), "bad.yaml")
    if err := os.WriteFile(p, []byte("output: [unterminated"), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    if _, err := LoadConfigFile(p); err == nil {
        t.Fatalf("expected parse error")
    }
}

func TestApplyFileConfig_FlagsWin(t *testing.T) {
    var fc FileConfig
    fc.Output = "file.apkg"
    fc.Deck.Name = "From File"
    fc.HTTP.Timeout = time.Minute
    fc.Cache.Dir = "file-cache"

    cfg := Config{
        OutputPath:  "flag.apkg",
        DeckName:    DefaultDeckName,
        HTTPTimeout: DefaultHTTPTimeout,
        CacheDir:    "flag-cache",
    }
    ApplyFileConfig(&cfg, fc)
    if cfg.OutputPath != "flag.apkg" {
        t.Fatalf("explicit flag overwritten: %q", cfg.OutputPath)
    }
    if cfg.DeckName != "From File" {
        t.Fatalf("default deck name should yield to file: %q", cfg.DeckName)
    }
    if cfg.HTTPTimeout != time.Minute {
        t.Fatalf("default timeout should yield to file: %v", cfg.HTTPTimeout)
    }
    if cfg.CacheDir != "flag-cache" {
        t.Fatalf("explicit cache dir overwritten: %q", cfg.CacheDir)
    }
}

func TestApplyFileConfig_ExplicitZeroRetries(t *testing.T) {
    zero := 0
    var fc FileConfig
    fc.HTTP.Retries = &zero
    cfg := Config{HTTPRetries: DefaultHTTPRetries}
    ApplyFileConfig(&cfg, fc)
    if cfg.HTTPRetries != 0 {
        t.Fatalf("explicit zero retries ignored: %d", cfg.HTTPRetries)
    }

    var unset FileConfig
    cfg = Config{HTTPRetries: DefaultHTTPRetries}
    ApplyFileConfig(&cfg, unset)
    if cfg.HTTPRetries != DefaultHTTPRetries {
        t.Fatalf("unset retries changed default: %d", cfg.HTTPRetries)
    }
}

// Flags > env > file > defaults.
func TestConfigLayering(t *testing.T) {
    t.Setenv("TABLE2ANKI_DECK_NAME", "From Env")
    var fc FileConfig
    fc.Deck.Name = "From File"
    fc.Output = "file.apkg"

    cfg := Config{OutputPath: DefaultOutputPath, DeckName: DefaultDeckName}
    ApplyFileConfig(&cfg, fc)
    ApplyEnvOverrides(&cfg)
    if cfg.DeckName != "From Env" {
        t.Fatalf("env should beat file, got %q", cfg.DeckName)
    }
    if cfg.OutputPath != "file.apkg" {
        t.Fatalf("file should beat default, got %q", cfg.OutputPath)
    }
}

func TestValidateConfig(t *testing.T) {
    cases := []struct {
        name    string
        cfg     Config
        wantErr bool
    }{
        {"ok", Config{OutputPath: "out.apkg"}, false},
        {"no output", Config{}, true},
        {"no output dry run", Config{DryRun: true}, false},
        {"negative timeout", Config{OutputPath: "o", HTTPTimeout: -1}, true},
        {"pdf collides", Config{OutputPath: "o.apkg", PDFPath: "./o.apkg"}, true},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            err := ValidateConfig(tc.cfg)
            if (err != nil) != tc.wantErr {
                t.Fatalf("ValidateConfig err=%v, wantErr=%v", err, tc.wantErr)
            }
        })
    }
}
