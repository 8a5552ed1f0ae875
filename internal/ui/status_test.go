package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRenderer_Render_NoColor(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	r.Render(StatusInfo{
		Path:         "/repo/path",
		Status:       "indexed",
		Progress:     100,
		IndexedFiles: 12,
		TotalFiles:   12,
		TotalChunks:  1500,
		MerkleRoot:   "abc123",
		LastUpdated:  time.Now().Add(-2 * time.Minute),
	})

	output := buf.String()
	assert.Contains(t, output, "/repo/path")
	assert.Contains(t, output, "indexed")
	assert.Contains(t, output, "1,500")
	assert.Contains(t, output, "minutes ago")
	assert.NotContains(t, output, "\x1b[", "no-color output should not contain ANSI escape codes")
}

func TestStatusRenderer_Render_IndexingShowsStage(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	r.Render(StatusInfo{
		Path:     "/repo/path",
		Status:   "indexing",
		Stage:    "embedding",
		Progress: 60,
	})

	output := buf.String()
	assert.Contains(t, output, "embedding")
	assert.Contains(t, output, "60%")
}

func TestStatusRenderer_Render_StorageSizes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	r.Render(StatusInfo{
		Path:            "/repo/path",
		Status:          "indexed",
		ChunkStoreSize:  2 * 1024 * 1024,
		VectorStoreSize: 1024,
		TotalSize:       2*1024*1024 + 1024,
	})

	output := buf.String()
	assert.Contains(t, output, "Storage:")
	assert.Contains(t, output, "2.0 MiB")
	assert.Contains(t, output, "1.0 KiB")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.RenderJSON(StatusInfo{Path: "/repo/path", Status: "failed", ErrorMessage: "boom"}))

	var decoded StatusInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/repo/path", decoded.Path)
	assert.Equal(t, "failed", decoded.Status)
	assert.Equal(t, "boom", decoded.ErrorMessage)
}

func TestResultsRenderer_RenderEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewResultsRenderer(buf, true, false)

	r.Render(nil)

	assert.Contains(t, buf.String(), "no results")
}

func TestResultsRenderer_RenderWithSnippet(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewResultsRenderer(buf, true, true)

	r.Render([]Result{{
		Rank:      1,
		Path:      "src/main.go",
		StartLine: 10,
		EndLine:   20,
		ChunkType: "function",
		Name:      "main",
		Score:     0.42,
		Snippet:   "func main() {\n\n\tprintln(\"x\")\n\treturn\n}",
	}})

	output := buf.String()
	assert.Contains(t, output, "src/main.go:10-20")
	assert.Contains(t, output, "function main")
	assert.Contains(t, output, "| func main() {")
	assert.Contains(t, output, "| \tprintln(\"x\")")
	// Snippets stop after three non-empty lines.
	assert.NotContains(t, output, "| }")
}

func TestResultsRenderer_Warn(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewResultsRenderer(buf, true, false)

	r.Warn("indexing is in progress; results may be incomplete")

	assert.Contains(t, buf.String(), "warning: indexing is in progress")
}

func TestGetStyles_ColorAndNoColor(t *testing.T) {
	colored := GetStyles(false)
	assert.Contains(t, colored.Error.Render("x"), "\x1b[31m")
	assert.Contains(t, colored.Success.Render("x"), "\x1b[32m")

	plain := GetStyles(true)
	assert.Equal(t, "x", plain.Error.Render("x"))
}
