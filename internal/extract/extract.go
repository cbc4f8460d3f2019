package extract

import (
    "bytes"
    "io"
    "strings"

    "github.com/rs/zerolog/log"
    "golang.org/x/net/html"
)

// Table is the plain-text content of one <table> element. Headers holds the
// cells of the first row; Rows holds every later row.
type Table struct {
    Headers []string
    Rows    [][]string
}

// Tables parses s and returns every table it contains, in document order.
// Parse failures degrade to an empty result.
func Tables(s string) []Table {
    tables, err := FromReader(strings.NewReader(s))
    if err != nil {
        log.Debug().Err(err).Msg("html parse failed; no tables")
        return nil
    }
    return tables
}

// FromHTML is the byte-slice form of Tables.
func FromHTML(input []byte) []Table {
    tables, err := FromReader(bytes.NewReader(input))
    if err != nil {
        return nil
    }
    return tables
}

// FromReader parses HTML from r and extracts all tables. Nested tables are
// reported on their own as well as contributing rows to their ancestors.
func FromReader(r io.Reader) ([]Table, error) {
    node, err := html.Parse(r)
    if err != nil {
        return nil, err
    }
    var out []Table
    for _, tn := range findAll(node, "table") {
        t := parseTable(tn)
        log.Debug().Int("table", len(out)+1).Int("headers", len(t.Headers)).Int("rows", len(t.Rows)).Msg("extracted table")
        out = append(out, t)
    }
    return out, nil
}

// parseTable treats row 0 as the header row regardless of its cell tags.
func parseTable(tn *html.Node) Table {
    t := Table{Headers: []string{}, Rows: [][]string{}}
    for i, tr := range findAll(tn, "tr") {
        cells := findAll(tr, "th", "td")
        row := make([]string, 0, len(cells))
        for _, c := range cells {
            row = append(row, cellText(c))
        }
        if i == 0 {
            t.Headers = row
            continue
        }
        t.Rows = append(t.Rows, row)
    }
    return t
}

// findAll returns the element descendants of n (excluding n) whose tag is one
// of tags, in document order.
func findAll(n *html.Node, tags ...string) []*html.Node {
    var res []*html.Node
    var dfs func(*html.Node)
    dfs = func(cur *html.Node) {
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            if c.Type == html.ElementNode && matchesAny(c.Data, tags) {
                res = append(res, c)
            }
            dfs(c)
        }
    }
    dfs(n)
    return res
}

func matchesAny(name string, tags []string) bool {
    for _, t := range tags {
        if strings.EqualFold(name, t) {
            return true
        }
    }
    return false
}

// cellText returns the visible text of a cell. Entities were already decoded
// by the tokenizer, so the text is used verbatim apart from whitespace.
func cellText(n *html.Node) string {
    var b strings.Builder
    collectText(&b, n)
    return collapseSpaces(strings.TrimSpace(b.String()))
}

func collectText(b *strings.Builder, n *html.Node) {
    switch n.Type {
    case html.TextNode:
        b.WriteString(n.Data)
        return
    case html.ElementNode:
        switch strings.ToLower(n.Data) {
        case "script", "style", "template":
            return
        case "br":
            b.WriteByte(' ')
            return
        }
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collectText(b, c)
    }
}

func collapseSpaces(s string) string {
    var b strings.Builder
    lastSpace := false
    for _, r := range s {
        if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return b.String()
}
