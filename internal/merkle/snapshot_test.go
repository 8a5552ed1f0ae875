package merkle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySnapshotRootIsSentinel(t *testing.T) {
	s := New()
	assert.Equal(t, sentinelRoot(), s.ComputeRoot())
}

func TestComputeRootIsOrderIndependent(t *testing.T) {
	a := New()
	a.AddFile("b.py", "hash-b")
	a.AddFile("a.py", "hash-a")

	b := New()
	b.AddFile("a.py", "hash-a")
	b.AddFile("b.py", "hash-b")

	assert.Equal(t, a.ComputeRoot(), b.ComputeRoot())
}

func TestComputeRootChangesWithContent(t *testing.T) {
	a := New()
	a.AddFile("a.py", "hash-a")

	b := New()
	b.AddFile("a.py", "hash-a-modified")

	assert.NotEqual(t, a.ComputeRoot(), b.ComputeRoot())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merkle.json")

	s := New()
	s.AddFile("main.py", "h1")
	s.AddFile("utils.py", "h2")
	s.ComputeRoot()

	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, s.RootHash, loaded.RootHash)
	assert.Equal(t, s.FileHashes, loaded.FileHashes)
}

func TestLoadMissingFileReturnsNilWithoutError(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadMalformedFileReturnsNilWithoutError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDiffDetectsAddedRemovedModified(t *testing.T) {
	prior := New()
	prior.AddFile("main.py", "h1")
	prior.AddFile("utils.py", "h2")

	current := New()
	current.AddFile("main.py", "h1-changed")
	current.AddFile("extra.py", "h3")

	added, removed, modified := current.Diff(prior)

	assert.True(t, added["extra.py"])
	assert.Len(t, added, 1)
	assert.True(t, removed["utils.py"])
	assert.Len(t, removed, 1)
	assert.True(t, modified["main.py"])
	assert.Len(t, modified, 1)
}

func TestDiffAgainstNilPriorReportsAllAdded(t *testing.T) {
	current := New()
	current.AddFile("main.py", "h1")
	current.AddFile("utils.py", "h2")

	added, removed, modified := current.Diff(nil)
	assert.Len(t, added, 2)
	assert.Empty(t, removed)
	assert.Empty(t, modified)
}
