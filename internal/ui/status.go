package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// StatusInfo is the repository state the status renderer displays: the
// registry record plus the on-disk sizes of its index artifacts.
type StatusInfo struct {
	Path         string    `json:"path"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage,omitempty"`
	Progress     int       `json:"progress"`
	IndexedFiles int       `json:"indexed_files"`
	TotalFiles   int       `json:"total_files"`
	TotalChunks  int       `json:"total_chunks"`
	MerkleRoot   string    `json:"merkle_root,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// Storage sizes (in bytes)
	ChunkStoreSize  int64 `json:"chunk_store_size"`
	VectorStoreSize int64 `json:"vector_store_size"`
	TotalSize       int64 `json:"total_size"`
}

// StatusRenderer displays a repository's indexing status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render displays info to the terminal.
func (r *StatusRenderer) Render(info StatusInfo) {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.Path))

	_, _ = fmt.Fprintf(r.out, "  Status: %s\n", r.renderStatus(info.Status))
	if info.Status == "indexing" {
		_, _ = fmt.Fprintf(r.out, "  Stage:  %s (%d%%)\n", info.Stage, info.Progress)
	}
	_, _ = fmt.Fprintf(r.out, "  Files:  %s / %s\n", humanize.Comma(int64(info.IndexedFiles)), humanize.Comma(int64(info.TotalFiles)))
	_, _ = fmt.Fprintf(r.out, "  Chunks: %s\n", humanize.Comma(int64(info.TotalChunks)))
	if !info.LastUpdated.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last updated: %s\n", humanize.Time(info.LastUpdated))
	}
	if info.MerkleRoot != "" {
		_, _ = fmt.Fprintf(r.out, "  Root:   %s\n", r.styles.Dim.Render(info.MerkleRoot))
	}

	if info.TotalSize > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "  Storage:")
		_, _ = fmt.Fprintf(r.out, "    Chunks:  %s\n", humanize.IBytes(uint64(info.ChunkStoreSize)))
		_, _ = fmt.Fprintf(r.out, "    Vectors: %s\n", humanize.IBytes(uint64(info.VectorStoreSize)))
		_, _ = fmt.Fprintf(r.out, "    Total:   %s\n", humanize.IBytes(uint64(info.TotalSize)))
	}

	if info.ErrorMessage != "" {
		_, _ = fmt.Fprintf(r.out, "  Error:  %s\n", r.styles.Error.Render(info.ErrorMessage))
	}
}

// RenderJSON outputs the status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "indexed":
		return r.styles.Success.Render(status)
	case "indexing":
		return r.styles.Warning.Render(status)
	case "failed":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}
