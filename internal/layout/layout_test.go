package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash16IsSixteenHexChars(t *testing.T) {
	h := Hash16("/repo/path")
	assert.Len(t, h, 16)
	for _, r := range h {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'))
	}
}

func TestHash16IsDeterministic(t *testing.T) {
	assert.Equal(t, Hash16("/repo/path"), Hash16("/repo/path"))
	assert.NotEqual(t, Hash16("/repo/path"), Hash16("/repo/other"))
}

func TestManagerPaths(t *testing.T) {
	m := New("/base")
	repo := "/repo/path"
	h := Hash16(repo)

	assert.Equal(t, "/base/indexes/"+h, m.IndexesDir(repo))
	assert.Equal(t, "/base/indexes/"+h+"/chunks.db", m.ChunkStorePath(repo))
	assert.Equal(t, "/base/indexes/"+h+"/vectors.bin", m.VectorStorePath(repo))
	assert.Equal(t, "/base/indexes/"+h+"/vectors.meta.json", m.VectorMetaPath(repo))
	assert.Equal(t, "/base/merkle/"+h+".json", m.MerkleFile(repo))
	assert.Equal(t, "/base/snapshots/snapshot.json", m.SnapshotFile())
}
