// Package layout maps a repository absolute path to its stable on-disk
// storage directory under a configurable base directory.
package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Manager resolves per-repository storage locations under BaseDir.
type Manager struct {
	BaseDir string
}

// New returns a Manager rooted at baseDir.
func New(baseDir string) *Manager {
	return &Manager{BaseDir: baseDir}
}

// Hash16 returns the first 16 hex characters of SHA-256(path), used as the
// stable directory-naming segment for a repository.
func Hash16(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:16]
}

// IndexesDir returns B/indexes/hash16(P)/, which holds chunks.db,
// vectors.bin and vectors.meta.json for repository path.
func (m *Manager) IndexesDir(path string) string {
	return filepath.Join(m.BaseDir, "indexes", Hash16(path))
}

// ChunkStorePath returns the Chunk Store database file for path.
func (m *Manager) ChunkStorePath(path string) string {
	return filepath.Join(m.IndexesDir(path), "chunks.db")
}

// VectorStorePath returns the Vector Store native payload file for path.
func (m *Manager) VectorStorePath(path string) string {
	return filepath.Join(m.IndexesDir(path), "vectors.bin")
}

// VectorMetaPath returns the Vector Store id-mapping sidecar for path.
func (m *Manager) VectorMetaPath(path string) string {
	return filepath.Join(m.IndexesDir(path), "vectors.meta.json")
}

// MerkleFile returns B/merkle/hash16(P).json for repository path.
func (m *Manager) MerkleFile(path string) string {
	return filepath.Join(m.BaseDir, "merkle", Hash16(path)+".json")
}

// SnapshotFile returns B/snapshots/snapshot.json, the single process-wide
// Snapshot Registry file.
func (m *Manager) SnapshotFile() string {
	return filepath.Join(m.BaseDir, "snapshots", "snapshot.json")
}
