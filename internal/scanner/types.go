package scanner

import "time"

// FileInfo describes one indexable file discovered by a scan.
type FileInfo struct {
	// Path is absolute.
	Path string
	// RelPath is relative to the scanned root, forward-slash separated.
	RelPath     string
	Size        int64
	ModTime     time.Time
	ContentHash string
}

// Options configures a directory scan.
type Options struct {
	// Extensions is the set of file extensions to include (with leading
	// dot, e.g. ".go"). Empty means "include everything not excluded".
	Extensions []string
	// IgnorePatterns are gitignore-style patterns applied regardless of
	// .gitignore content.
	IgnorePatterns []string
	// RespectGitignore applies the root's .gitignore file in addition to
	// IgnorePatterns.
	RespectGitignore bool
	// MaxFileSize skips files larger than this many bytes. Zero means no
	// limit beyond the package default.
	MaxFileSize int64
}

const defaultMaxFileSize = 5 * 1024 * 1024
