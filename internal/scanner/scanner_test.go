package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "main.py", "print('x')")
	writeTestFile(t, dir, "notes.txt", "hello")
	writeTestFile(t, dir, "image.png", "binary-ish but no null byte")

	s, err := New()
	require.NoError(t, err)

	files, err := s.Scan(context.Background(), dir, Options{Extensions: []string{".py"}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].RelPath)
	assert.NotEmpty(t, files[0].ContentHash)
}

func TestScanExcludesDefaultIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "main.py", "print('x')")
	writeTestFile(t, dir, "node_modules/pkg/index.js", "module.exports = {}")

	s, err := New()
	require.NoError(t, err)

	files, err := s.Scan(context.Background(), dir, Options{Extensions: []string{".py", ".js"}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].RelPath)
}

func TestScanRespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, ".gitignore", "secret.py\n")
	writeTestFile(t, dir, "main.py", "print('x')")
	writeTestFile(t, dir, "secret.py", "print('ssh')")

	s, err := New()
	require.NoError(t, err)

	files, err := s.Scan(context.Background(), dir, Options{
		Extensions:       []string{".py"},
		RespectGitignore: true,
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].RelPath)
}

func TestScanSkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc\x00def"), 0o644))

	s, err := New()
	require.NoError(t, err)

	files, err := s.Scan(context.Background(), dir, Options{Extensions: []string{".txt"}})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanRejectsNonDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s, err := New()
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), path, Options{})
	assert.Error(t, err)
}
