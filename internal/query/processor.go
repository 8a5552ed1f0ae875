// Package query cleans and expands a free-text search query into a BM25
// match expression and a normalized term list for embedding.
package query

import (
	"strings"
	"unicode"
)

// DefaultMinTermLength mirrors min_term_length default.
const DefaultMinTermLength = 2

// Processed is the result of running a raw query through the processor.
type Processed struct {
	Original      string
	Terms         []string
	ExpandedTerms []string
	FTSQuery      string
}

// Processor cleans, tokenizes, and expands free-text queries.
type Processor struct {
	MinTermLength int
	Abbreviations map[string][]string
}

// New returns a Processor with default minimum term length and
// abbreviation table.
func New() *Processor {
	return &Processor{
		MinTermLength: DefaultMinTermLength,
		Abbreviations: defaultAbbreviations(),
	}
}

// defaultAbbreviations is the static, domain-specific term-expansion table.
func defaultAbbreviations() map[string][]string {
	return map[string][]string{
		"alloc":  {"allocate", "allocation", "allocator"},
		"ctx":    {"context"},
		"mmu":    {"memory", "management", "unit"},
		"cfg":    {"config", "configuration"},
		"env":    {"environment"},
		"impl":   {"implementation"},
		"func":   {"function"},
		"init":   {"initialize", "initialization"},
		"auth":   {"authentication", "authorization"},
		"db":     {"database"},
		"repo":   {"repository"},
		"req":    {"request"},
		"resp":   {"response"},
		"err":    {"error"},
		"msg":    {"message"},
		"param":  {"parameter"},
		"arg":    {"argument"},
		"attr":   {"attribute"},
		"pkg":    {"package"},
		"lib":    {"library"},
	}
}

// ftsSpecialChars are characters that would alter FTS match-expression
// syntax if left in the raw query; they are stripped to spaces before
// tokenizing.
const ftsSpecialChars = `*^"()-|`

// Process runs the full cleaning/tokenizing/expansion pipeline. An empty
// or whitespace-only query yields an empty FTSQuery, which the Chunk
// Store treats as "no results" without error.
func (p *Processor) Process(raw string) Processed {
	cleaned := stripSyntaxChars(raw)
	words := strings.Fields(cleaned)

	var terms []string
	for _, w := range words {
		if len([]rune(w)) >= p.minTermLength() {
			terms = append(terms, strings.ToLower(w))
		}
	}

	expanded := p.expand(words)

	return Processed{
		Original:      raw,
		Terms:         terms,
		ExpandedTerms: expanded,
		FTSQuery:      buildFTSQuery(expanded),
	}
}

func (p *Processor) minTermLength() int {
	if p.MinTermLength <= 0 {
		return DefaultMinTermLength
	}
	return p.MinTermLength
}

// stripSyntaxChars removes characters that would alter FTS syntax and any
// other non-word punctuation, replacing them with spaces, then collapses
// whitespace.
func stripSyntaxChars(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case strings.ContainsRune(ftsSpecialChars, r):
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// expand tokenizes each surviving word (splitting camelCase/snake_case),
// expands abbreviations, drops short terms, and deduplicates while
// preserving first-seen order.
func (p *Processor) expand(words []string) []string {
	seen := make(map[string]bool)
	var result []string

	add := func(term string) {
		term = strings.ToLower(term)
		if len([]rune(term)) < p.minTermLength() {
			return
		}
		if seen[term] {
			return
		}
		seen[term] = true
		result = append(result, term)
	}

	for _, w := range words {
		if len([]rune(w)) < p.minTermLength() {
			continue
		}
		for _, sub := range splitIdentifier(w) {
			add(sub)
			if expansions, ok := p.Abbreviations[strings.ToLower(sub)]; ok {
				for _, e := range expansions {
					add(e)
				}
			}
		}
	}

	return result
}

// splitIdentifier splits camelCase/PascalCase at uppercase boundaries and
// snake_case/SCREAMING_SNAKE_CASE on underscores. A single-word, all-lower
// term passes through unchanged.
func splitIdentifier(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part == "" {
				continue
			}
			result = append(result, splitCamelCase(part)...)
		}
		return result
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	runes := []rune(s)
	var result []string
	var current strings.Builder

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// buildFTSQuery builds t1* OR t2* OR ... OR tn* from terms.
func buildFTSQuery(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + "*"
	}
	return strings.Join(parts, " OR ")
}
