package app

import (
    "bufio"
    "errors"
    "fmt"
    "os"
    "strings"
)

// LoadEnvFiles loads dotenv files of KEY=VALUE pairs into the process
// environment. Later files override earlier ones, but a variable that was
// already non-empty in the environment before loading is never replaced.
// Blank lines, '#' comments and an optional "export " prefix are accepted.
// Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
    preset := map[string]bool{}
    for _, kv := range os.Environ() {
        if eq := strings.IndexByte(kv, '='); eq > 0 && eq < len(kv)-1 {
            preset[kv[:eq]] = true
        }
    }
    for _, p := range paths {
        if strings.TrimSpace(p) == "" {
            continue
        }
        if err := loadEnvFile(p, preset); err != nil {
            if errors.Is(err, os.ErrNotExist) {
                continue
            }
            return fmt.Errorf("load env %s: %w", p, err)
        }
    }
    return nil
}

func loadEnvFile(path string, preset map[string]bool) error {
    f, err := os.Open(path)
    if err != nil {
        return err
    }
    defer f.Close()

    scanner := bufio.NewScanner(f)
    for scanner.Scan() {
        key, val, ok := parseEnvLine(scanner.Text())
        if !ok || preset[key] {
            continue
        }
        _ = os.Setenv(key, val)
    }
    return scanner.Err()
}

func parseEnvLine(line string) (string, string, bool) {
    line = strings.TrimSpace(line)
    if line == "" || strings.HasPrefix(line, "#") {
        return "", "", false
    }
    line = strings.TrimPrefix(line, "export ")
    eq := strings.IndexByte(line, '=')
    if eq <= 0 {
        return "", "", false
    }
    key := strings.TrimSpace(line[:eq])
    val := strings.TrimSpace(line[eq+1:])
    if len(val) >= 2 {
        if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
            return key, val[1 : len(val)-1], true
        }
    }
    // Unquoted values may carry a trailing " # comment".
    if i := strings.Index(val, " #"); i >= 0 {
        val = strings.TrimSpace(val[:i])
    }
    return key, val, true
}
