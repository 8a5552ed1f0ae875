package ui

// Style wraps text in an ANSI escape sequence, or passes it through
// unchanged when color is disabled.
type Style func(string) string

// Render applies the style to text.
func (s Style) Render(text string) string { return s(text) }

// Styles groups the render styles used across status and result output.
type Styles struct {
	Header  Style
	Success Style
	Warning Style
	Error   Style
	Dim     Style
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func plain(s string) string { return s }

func wrap(code string) Style {
	return func(s string) string { return code + s + ansiReset }
}

// GetStyles returns the ANSI styles, or no-op styles when noColor is set.
func GetStyles(noColor bool) Styles {
	if noColor {
		return Styles{Header: plain, Success: plain, Warning: plain, Error: plain, Dim: plain}
	}
	return Styles{
		Header:  wrap(ansiBold),
		Success: wrap(ansiGreen),
		Warning: wrap(ansiYellow),
		Error:   wrap(ansiRed),
		Dim:     wrap(ansiDim),
	}
}
