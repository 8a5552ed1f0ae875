package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oOSomnus/codii/internal/app"
	"github.com/oOSomnus/codii/internal/config"
	"github.com/oOSomnus/codii/internal/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return New(a)
}

func waitIndexed(t *testing.T, s *Server, path string) {
	t.Helper()
	abs, err := app.ResolvePath(path)
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		cs, err := s.app.Registry.GetStatus(abs)
		require.NoError(t, err)
		if cs.StatusValue == registry.StatusIndexed || cs.StatusValue == registry.StatusFailed {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for index to finish")
}

func TestHandleIndexAndSearch(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"),
		[]byte("package main\n\nfunc greet() string {\n\treturn \"hello\"\n}\n"), 0o644))

	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleIndex(ctx, nil, IndexInput{Path: repo})
	require.NoError(t, err)
	require.Equal(t, "Indexing started", out.Message)

	waitIndexed(t, s, repo)

	_, searchOut, err := s.handleSearch(ctx, nil, SearchInput{Path: repo, Query: "greet"})
	require.NoError(t, err)
	require.NotEmpty(t, searchOut.Results)
	require.Contains(t, searchOut.Results[0].Path, "main.go")
}

func TestHandleIndexRejectsEmptyPath(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleIndex(context.Background(), nil, IndexInput{})

	require.Error(t, err)
}

func TestHandleIndexStatusNotFound(t *testing.T) {
	s := newTestServer(t)
	repo := t.TempDir()

	_, _, err := s.handleIndexStatus(context.Background(), nil, IndexStatusInput{Path: repo})

	require.Error(t, err)
	te, ok := err.(*toolError)
	require.True(t, ok)
	require.Equal(t, errCodeIndexNotFound, te.code)
}

func TestHandleClearRemovesIndex(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.go"), []byte("package main\n"), 0o644))

	s := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.handleIndex(ctx, nil, IndexInput{Path: repo})
	require.NoError(t, err)
	waitIndexed(t, s, repo)

	_, clearOut, err := s.handleClear(ctx, nil, ClearInput{Path: repo})
	require.NoError(t, err)
	require.Contains(t, clearOut.Message, "index cleared")

	_, _, err = s.handleIndexStatus(ctx, nil, IndexStatusInput{Path: repo})
	require.Error(t, err)
}
