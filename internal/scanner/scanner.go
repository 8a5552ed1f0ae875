// Package scanner walks a repository directory, applies extension,
// ignore-pattern, and gitignore filtering, and computes a content hash for
// each surviving file.
package scanner

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	ignore "github.com/sabhiram/go-gitignore"
)

// gitignoreCacheSize bounds the per-directory gitignore matcher cache so a
// deeply nested repository doesn't grow it unbounded.
const gitignoreCacheSize = 512

// Scanner discovers indexable files in a repository directory.
type Scanner struct {
	gitignoreCache *lru.Cache[string, *ignore.GitIgnore]
}

// New creates a Scanner.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *ignore.GitIgnore](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	return &Scanner{gitignoreCache: cache}, nil
}

// Scan walks root and returns every file that survives extension, default
// ignore, and gitignore filtering, each with its SHA-256 content hash.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	extSet := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		extSet[strings.ToLower(e)] = true
	}

	ignorePatterns := ignore.CompileIgnoreLines(append([]string{}, opts.IgnorePatterns...)...)

	var files []FileInfo

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if isDefaultExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			if ignorePatterns != nil && ignorePatterns.MatchesPath(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if len(extSet) > 0 && !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if ignorePatterns != nil && ignorePatterns.MatchesPath(relPath) {
			return nil
		}
		if opts.RespectGitignore && s.isGitignored(absRoot, relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Size() > maxSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if isBinary(content) {
			return nil
		}

		files = append(files, FileInfo{
			Path:        path,
			RelPath:     relPath,
			Size:        fi.Size(),
			ModTime:     fi.ModTime(),
			ContentHash: hashContent(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func isDefaultExcludedDir(name string) bool {
	switch name {
	case ".git", "__pycache__", "node_modules", ".venv", "venv", "dist", "build", "target":
		return true
	default:
		return false
	}
}

// isGitignored checks path (relative to absRoot) against the root
// .gitignore, caching the compiled matcher per directory.
func (s *Scanner) isGitignored(absRoot, relPath string) bool {
	matcher := s.gitignoreMatcher(absRoot)
	if matcher == nil {
		return false
	}
	return matcher.MatchesPath(relPath)
}

func (s *Scanner) gitignoreMatcher(dir string) *ignore.GitIgnore {
	if m, ok := s.gitignoreCache.Get(dir); ok {
		return m
	}

	path := filepath.Join(dir, ".gitignore")
	m, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		s.gitignoreCache.Add(dir, nil)
		return nil
	}
	s.gitignoreCache.Add(dir, m)
	return m
}

func isBinary(content []byte) bool {
	checkLen := 512
	if len(content) < checkLen {
		checkLen = len(content)
	}
	return bytes.Contains(content[:checkLen], []byte{0})
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
