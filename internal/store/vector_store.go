package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	codiierrors "github.com/oOSomnus/codii/internal/errors"
)

// VectorResult is one nearest-neighbor hit: the chunk id it was stored
// under and a similarity score in [0, 1], higher is more similar.
type VectorResult struct {
	ChunkID  int64
	Distance float32
	Score    float32
}

// VectorStoreConfig configures a VectorStore's HNSW graph parameters:
// M, EfConstruction, and EfSearch.
type VectorStoreConfig struct {
	Dimensions     int
	M              int
	EfConstruction int
	EfSearch       int
}

// vectorMeta is the JSON sidecar persisted alongside the HNSW graph export,
// a vectors.meta.json file next to vectors.hnsw.
type vectorMeta struct {
	IDMapping      map[int64]uint64  `json:"id_mapping"`
	ReverseMapping map[uint64]int64  `json:"reverse_mapping"`
	NextID         uint64            `json:"next_id"`
	Tombstones     []uint64          `json:"tombstones,omitempty"`
	Config         VectorStoreConfig `json:"config"`
}

// VectorStore is an HNSW-backed approximate nearest neighbor index keyed by
// the integer chunk ids assigned by the Chunk Store. Deletions are lazy
// (mapping removal, not graph surgery) because coder/hnsw's graph becomes
// inconsistent when its last remaining node is deleted.
type VectorStore struct {
	mu sync.RWMutex

	graph  *hnsw.Graph[uint64]
	config VectorStoreConfig

	idMapping      map[int64]uint64
	reverseMapping map[uint64]int64
	tombstones     map[uint64]bool
	nextID         uint64

	closed bool
}

// NewVectorStore creates an empty VectorStore using cosine distance, with
// defaults filled in for any zero fields.
func NewVectorStore(cfg VectorStoreConfig) *VectorStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = 200
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 100
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &VectorStore{
		graph:          graph,
		config:         cfg,
		idMapping:      make(map[int64]uint64),
		reverseMapping: make(map[uint64]int64),
		tombstones:     make(map[uint64]bool),
	}
}

// Add inserts or replaces vectors for the given chunk ids. Replacing an
// existing id orphans its old graph node rather than deleting it, mirroring
// the lazy-deletion discipline used throughout this store.
func (s *VectorStore) Add(_ context.Context, chunkIDs []int64, vectors [][]float32) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if len(chunkIDs) != len(vectors) {
		return fmt.Errorf("chunk ids and vectors length mismatch: %d vs %d", len(chunkIDs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if s.config.Dimensions != 0 && len(v) != s.config.Dimensions {
			return fmt.Errorf("%w: expected %d, got %d", errDimensionMismatch, s.config.Dimensions, len(v))
		}
	}
	if s.config.Dimensions == 0 && len(vectors) > 0 {
		s.config.Dimensions = len(vectors[0])
	}

	for i, id := range chunkIDs {
		if existingKey, ok := s.idMapping[id]; ok {
			delete(s.reverseMapping, existingKey)
			delete(s.idMapping, id)
			s.tombstones[existingKey] = true
		}

		key := s.nextID
		s.nextID++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMapping[id] = key
		s.reverseMapping[key] = id
	}
	return nil
}

// Search returns the k nearest neighbors to query, ordered nearest first.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if s.config.Dimensions != 0 && len(query) != s.config.Dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", errDimensionMismatch, s.config.Dimensions, len(query))
	}
	if s.graph.Len() == 0 {
		return nil, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeVectorInPlace(normalized)

	nodes := s.graph.Search(normalized, k)
	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		if s.tombstones[node.Key] {
			continue
		}
		chunkID, ok := s.reverseMapping[node.Key]
		if !ok {
			continue // orphaned node with no live mapping
		}
		distance := s.graph.Distance(normalized, node.Value)
		results = append(results, VectorResult{
			ChunkID:  chunkID,
			Distance: distance,
			Score:    1.0 - distance/2.0,
		})
	}
	return results, nil
}

// Delete lazily removes chunk ids from the index: their graph nodes remain
// but are no longer reachable by id, so they never surface in Search.
func (s *VectorStore) Delete(_ context.Context, chunkIDs []int64) error {
	_, err := s.RemoveByChunkIDs(chunkIDs)
	return err
}

// RemoveByChunkID soft-deletes the vector stored under chunkID, returning
// whether it was present.
func (s *VectorStore) RemoveByChunkID(chunkID int64) (bool, error) {
	n, err := s.RemoveByChunkIDs([]int64{chunkID})
	return n == 1, err
}

// RemoveByChunkIDs soft-deletes every chunk id present in the store and
// returns how many were actually removed. Tombstoned nodes remain in the
// underlying graph; only the id mappings are dropped.
func (s *VectorStore) RemoveByChunkIDs(chunkIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("vector store is closed")
	}

	removed := 0
	for _, id := range chunkIDs {
		if key, ok := s.idMapping[id]; ok {
			delete(s.reverseMapping, key)
			delete(s.idMapping, id)
			s.tombstones[key] = true
			removed++
		}
	}
	return removed, nil
}

// Clear truncates both id mappings and deletes the persisted graph and
// metadata files at indexPath.
func (s *VectorStore) Clear(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = s.config.M
	graph.EfSearch = s.config.EfSearch
	graph.Ml = 0.25
	s.graph = graph
	s.idMapping = make(map[int64]uint64)
	s.reverseMapping = make(map[uint64]int64)
	s.tombstones = make(map[uint64]bool)
	s.nextID = 0

	if indexPath == "" {
		return nil
	}
	_ = os.Remove(indexPath)
	_ = os.Remove(metaPathFor(indexPath))
	return nil
}

// Contains reports whether chunkID currently has a live vector.
func (s *VectorStore) Contains(chunkID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, ok := s.idMapping[chunkID]
	return ok
}

// Count returns the number of live (non-tombstoned) vectors.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.idMapping)
}

// Save persists the graph to indexPath and its id mappings, as JSON, to
// indexPath with its extension replaced by ".meta.json", both via
// temp-file-then-rename so a crash never leaves a half-written file in place.
func (s *VectorStore) Save(indexPath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for vector store: %w", err)
	}

	tmpIndexPath := indexPath + ".tmp"
	file, err := os.Create(tmpIndexPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpIndexPath)
		return codiierrors.VectorStoreLoadFailure(indexPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmpIndexPath, indexPath); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	return s.saveMeta(metaPathFor(indexPath))
}

func (s *VectorStore) saveMeta(metaPath string) error {
	tombstones := make([]uint64, 0, len(s.tombstones))
	for key := range s.tombstones {
		tombstones = append(tombstones, key)
	}
	sort.Slice(tombstones, func(i, j int) bool { return tombstones[i] < tombstones[j] })

	meta := vectorMeta{
		IDMapping:      s.idMapping,
		ReverseMapping: s.reverseMapping,
		NextID:         s.nextID,
		Tombstones:     tombstones,
		Config:         s.config,
	}

	tmpPath := metaPath + ".tmp"
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vector store metadata: %w", err)
	}
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vector store metadata: %w", err)
	}
	return os.Rename(tmpPath, metaPath)
}

// Load restores graph and mappings from indexPath and its metadata sidecar.
func (s *VectorStore) Load(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	metaPath := metaPathFor(indexPath)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return codiierrors.VectorStoreLoadFailure(metaPath, err)
	}
	var meta vectorMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return codiierrors.VectorStoreLoadFailure(metaPath, err)
	}

	file, err := os.Open(indexPath)
	if err != nil {
		return codiierrors.VectorStoreLoadFailure(indexPath, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = meta.Config.M
	graph.EfSearch = meta.Config.EfSearch
	graph.Ml = 0.25
	if err := graph.Import(reader); err != nil {
		return codiierrors.VectorStoreLoadFailure(indexPath, err)
	}

	s.graph = graph
	s.config = meta.Config
	s.idMapping = meta.IDMapping
	s.nextID = meta.NextID
	s.reverseMapping = make(map[uint64]int64, len(meta.IDMapping))
	for id, key := range meta.IDMapping {
		s.reverseMapping[key] = id
	}
	s.tombstones = make(map[uint64]bool, len(meta.Tombstones))
	for _, key := range meta.Tombstones {
		s.tombstones[key] = true
	}
	return nil
}

// Close releases resources. It is idempotent.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func metaPathFor(indexPath string) string {
	return indexPath[:len(indexPath)-len(filepath.Ext(indexPath))] + ".meta.json"
}

var errDimensionMismatch = fmt.Errorf("vector dimension mismatch")

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
