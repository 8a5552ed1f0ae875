package errors

import (
	"fmt"
	"strings"
)

// FormatForUser renders err for a human reader; the MCP server uses it for
// a tool call's error text content.
// If debug is true, the error code is appended for bug reports.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	ce, ok := err.(*CodiiError)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString(ce.Message)

	if ce.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(ce.Suggestion)
	}

	if debug {
		sb.WriteString(fmt.Sprintf("\n[%s]", ce.Code))
	}

	return sb.String()
}
