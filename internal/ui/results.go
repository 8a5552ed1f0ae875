package ui

import (
	"fmt"
	"io"
	"strings"
)

// Result is one search hit as the renderer displays it.
type Result struct {
	Rank      int
	Path      string
	StartLine int
	EndLine   int
	ChunkType string
	Name      string
	Score     float64
	Snippet   string
}

// ResultsRenderer displays ranked search results.
type ResultsRenderer struct {
	out     io.Writer
	styles  Styles
	snippet bool
}

// NewResultsRenderer creates a results renderer. When snippet is true each
// hit is followed by the first lines of its chunk.
func NewResultsRenderer(out io.Writer, noColor, snippet bool) *ResultsRenderer {
	return &ResultsRenderer{out: out, styles: GetStyles(noColor), snippet: snippet}
}

// Warn prints a warning line above the results.
func (r *ResultsRenderer) Warn(msg string) {
	_, _ = fmt.Fprintf(r.out, "%s\n", r.styles.Warning.Render("warning: "+msg))
}

// Render displays results, or a "no results" line when empty.
func (r *ResultsRenderer) Render(results []Result) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(r.out, "no results")
		return
	}

	for _, res := range results {
		location := fmt.Sprintf("%s:%d-%d", res.Path, res.StartLine, res.EndLine)
		_, _ = fmt.Fprintf(r.out, "%d. %s %s\n", res.Rank, r.styles.Header.Render(location), r.styles.Dim.Render(fmt.Sprintf("(score %.4f)", res.Score)))
		if res.Name != "" {
			_, _ = fmt.Fprintf(r.out, "   %s %s\n", res.ChunkType, res.Name)
		}
		if r.snippet && res.Snippet != "" {
			for _, line := range snippetLines(res.Snippet, 3) {
				_, _ = fmt.Fprintf(r.out, "   | %s\n", line)
			}
		}
	}
}

// snippetLines returns up to n leading non-empty lines of content.
func snippetLines(content string, n int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == n {
			break
		}
	}
	return out
}
