package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
    HTML   string `yaml:"html" json:"html"`
    File   string `yaml:"file" json:"file"`
    URL    string `yaml:"url" json:"url"`
    Output string `yaml:"output" json:"output"`
    PDF    string `yaml:"pdf" json:"pdf"`

    Deck struct {
        Name string `yaml:"name" json:"name"`
    } `yaml:"deck" json:"deck"`

    HTTP struct {
        UA      string        `yaml:"ua" json:"ua"`
        Timeout time.Duration `yaml:"timeout" json:"timeout"`
        // Retries is a pointer so an explicit 0 is distinguishable from unset.
        Retries *int          `yaml:"retries" json:"retries"`
    } `yaml:"http" json:"http"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    DryRun  bool `yaml:"dryRun" json:"dryRun"`
    Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their flag default. Flags should already have been
// parsed; explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.HTML == "" && fc.HTML != "" { cfg.HTML = fc.HTML }
    if cfg.File == "" && fc.File != "" { cfg.File = fc.File }
    if cfg.URL == "" && fc.URL != "" { cfg.URL = fc.URL }
    if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Output != "" { cfg.OutputPath = fc.Output }
    if cfg.PDFPath == "" && fc.PDF != "" { cfg.PDFPath = fc.PDF }
    if (cfg.DeckName == "" || cfg.DeckName == DefaultDeckName) && fc.Deck.Name != "" { cfg.DeckName = fc.Deck.Name }

    if cfg.UserAgent == "" && fc.HTTP.UA != "" { cfg.UserAgent = fc.HTTP.UA }
    if (cfg.HTTPTimeout == 0 || cfg.HTTPTimeout == DefaultHTTPTimeout) && fc.HTTP.Timeout > 0 { cfg.HTTPTimeout = fc.HTTP.Timeout }
    if (cfg.HTTPRetries == 0 || cfg.HTTPRetries == DefaultHTTPRetries) && fc.HTTP.Retries != nil { cfg.HTTPRetries = *fc.HTTP.Retries }

    if cfg.CacheDir == "" && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

    if !cfg.DryRun && fc.DryRun { cfg.DryRun = true }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig performs minimal validation of settings. Missing input is
// not checked here; it surfaces from source.Load as ErrInputMissing.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.OutputPath) == "" && !cfg.DryRun {
        return errors.New("config: output path is required")
    }
    if cfg.HTTPTimeout < 0 || cfg.HTTPRetries < 0 || cfg.CacheMaxAge < 0 {
        return errors.New("config: negative limits are not allowed")
    }
    if cfg.PDFPath != "" && filepath.Clean(cfg.PDFPath) == filepath.Clean(cfg.OutputPath) {
        return errors.New("config: pdf path must differ from output path")
    }
    return nil
}
