package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("TABLE2ANKI_OUTPUT"); v != "" { cfg.OutputPath = v }
    if v := os.Getenv("TABLE2ANKI_DECK_NAME"); v != "" { cfg.DeckName = v }
    if v := os.Getenv("TABLE2ANKI_USER_AGENT"); v != "" { cfg.UserAgent = v }
    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }

    if d, ok := envDuration("TABLE2ANKI_HTTP_TIMEOUT"); ok { cfg.HTTPTimeout = d }
    if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }
    if n, ok := envInt("TABLE2ANKI_HTTP_RETRIES"); ok { cfg.HTTPRetries = n }

    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, envKey string) {
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            switch s {
            case "1", "true", "yes", "on":
                *dst = true
            case "0", "false", "no", "off":
                *dst = false
            }
        }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.DryRun, "DRY_RUN")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" {
        return 0, false
    }
    d, err := time.ParseDuration(s)
    if err != nil {
        return 0, false
    }
    return d, true
}

// envInt reports ok only when key holds an integer, so "0" is an explicit
// value rather than unset.
func envInt(key string) (int, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" {
        return 0, false
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        return 0, false
    }
    return n, true
}
