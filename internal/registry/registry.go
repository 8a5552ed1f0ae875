// Package registry implements the snapshot registry: a process-shared,
// file-backed registry of per-repository indexing state,
// concurrency-safe across the indexing pipeline's worker goroutine and any
// number of readers.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Status is one of the CodebaseStatus lifecycle states.
type Status string

const (
	StatusIndexed  Status = "indexed"
	StatusIndexing Status = "indexing"
	StatusFailed   Status = "failed"
	StatusNotFound Status = "not_found"
)

// Stage is the indexing pipeline stage currently in progress.
type Stage string

const (
	StagePreparing Stage = "preparing"
	StageDeleting  Stage = "deleting"
	StageChunking  Stage = "chunking"
	StageEmbedding Stage = "embedding"
	StageIndexing  Stage = "indexing"
	StageComplete  Stage = "complete"
)

// CodebaseStatus is the per-repository indexing record.
type CodebaseStatus struct {
	Path            string    `json:"path"`
	StatusValue     Status    `json:"status"`
	Progress        int       `json:"progress"`
	CurrentStage    Stage     `json:"current_stage"`
	MerkleRoot      string    `json:"merkle_root"`
	IndexedFiles    int       `json:"indexed_files"`
	TotalChunks     int       `json:"total_chunks"`
	FilesToProcess  int       `json:"files_to_process"`
	TotalFiles      int       `json:"total_files"`
	LastUpdated     time.Time `json:"last_updated"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// notFound synthesizes the record GetStatus returns for a path the
// registry has never seen.
func notFound(path string) CodebaseStatus {
	return CodebaseStatus{Path: path, StatusValue: StatusNotFound}
}

// registryFile is the top-level JSON payload.
type registryFile struct {
	Codebases map[string]CodebaseStatus `json:"codebases"`
}

// Registry is the file-backed registry of per-repository indexing state.
// All operations take an in-process mutex and perform a whole-file
// read-modify-write, acceptable for the small number of tracked
// repositories expected. A cross-process file lock additionally guards
// the write so a second codii process never interleaves with this one's
// read-modify-write cycle.
type Registry struct {
	mu   sync.Mutex
	path string
}

// New opens (or prepares to create) the registry file at path.
func New(path string) *Registry {
	return &Registry{path: path}
}

// PathToHash returns the stable 16-hex-char prefix of SHA-256(path) used
// for directory naming.
func PathToHash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:16]
}

func (r *Registry) readLocked() (registryFile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return registryFile{Codebases: make(map[string]CodebaseStatus)}, nil
		}
		return registryFile{}, err
	}
	var rf registryFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return registryFile{Codebases: make(map[string]CodebaseStatus)}, nil
	}
	if rf.Codebases == nil {
		rf.Codebases = make(map[string]CodebaseStatus)
	}
	return rf, nil
}

func (r *Registry) writeLocked(rf registryFile) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// withFileLock serializes read-modify-write cycles across processes. A
// non-blocking try-lock with a short retry budget is used rather than a
// blocking lock so a stale lock file left by a killed process cannot wedge
// future invocations forever.
func (r *Registry) withFileLock(fn func() error) error {
	lockPath := r.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	fl := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return err
	}
	if locked {
		defer fl.Unlock()
	}
	return fn()
}

// GetStatus returns path's CodebaseStatus, or a synthetic not_found record
// if the registry has never tracked it.
func (r *Registry) GetStatus(path string) (CodebaseStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rf, err := r.readLocked()
	if err != nil {
		return CodebaseStatus{}, err
	}
	if cs, ok := rf.Codebases[path]; ok {
		return cs, nil
	}
	return notFound(path), nil
}

// SetStatus overwrites path's entire record.
func (r *Registry) SetStatus(cs CodebaseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(func() error {
		rf, err := r.readLocked()
		if err != nil {
			return err
		}
		cs.LastUpdated = now()
		rf.Codebases[cs.Path] = cs
		return r.writeLocked(rf)
	})
}

// MarkIndexing atomically transitions path to indexing, resetting progress
// counters. The pipeline must call IsIndexing first; this method does not
// itself enforce exclusivity (that check-then-act is the pipeline's
// pre-flight responsibility).
func (r *Registry) MarkIndexing(path string, totalFiles int) error {
	return r.SetStatus(CodebaseStatus{
		Path:         path,
		StatusValue:  StatusIndexing,
		Progress:     0,
		CurrentStage: StagePreparing,
		TotalFiles:   totalFiles,
	})
}

// UpdateProgress is the pipeline's sole write path during an indexing run;
// progress is monotonic non-decreasing within that run.
func (r *Registry) UpdateProgress(path string, progress int, stage Stage, indexedFiles, totalChunks int, totalFiles, filesToProcess *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(func() error {
		rf, err := r.readLocked()
		if err != nil {
			return err
		}
		cs, ok := rf.Codebases[path]
		if !ok {
			cs = CodebaseStatus{Path: path, StatusValue: StatusIndexing}
		}
		cs.Progress = progress
		cs.CurrentStage = stage
		cs.IndexedFiles = indexedFiles
		cs.TotalChunks = totalChunks
		if totalFiles != nil {
			cs.TotalFiles = *totalFiles
		}
		if filesToProcess != nil {
			cs.FilesToProcess = *filesToProcess
		}
		cs.LastUpdated = now()
		rf.Codebases[path] = cs
		return r.writeLocked(rf)
	})
}

// MarkIndexed finalizes a successful run.
func (r *Registry) MarkIndexed(path, merkleRoot string, indexedFiles, totalChunks int) error {
	return r.SetStatus(CodebaseStatus{
		Path:         path,
		StatusValue:  StatusIndexed,
		Progress:     100,
		CurrentStage: StageComplete,
		MerkleRoot:   merkleRoot,
		IndexedFiles: indexedFiles,
		TotalChunks:  totalChunks,
	})
}

// MarkFailed records a failed run with its error message. Prior counters
// are preserved so a caller can tell how much of the index survived.
func (r *Registry) MarkFailed(path, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(func() error {
		rf, err := r.readLocked()
		if err != nil {
			return err
		}
		cs, ok := rf.Codebases[path]
		if !ok {
			cs = CodebaseStatus{Path: path}
		}
		cs.StatusValue = StatusFailed
		cs.ErrorMessage = message
		cs.LastUpdated = now()
		rf.Codebases[path] = cs
		return r.writeLocked(rf)
	})
}

// RemoveCodebase deletes path's record entirely (used by Clear Index).
func (r *Registry) RemoveCodebase(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(func() error {
		rf, err := r.readLocked()
		if err != nil {
			return err
		}
		delete(rf.Codebases, path)
		return r.writeLocked(rf)
	})
}

// IsIndexing reports whether path currently has an in-progress run.
func (r *Registry) IsIndexing(path string) (bool, error) {
	cs, err := r.GetStatus(path)
	if err != nil {
		return false, err
	}
	return cs.StatusValue == StatusIndexing, nil
}

// HasAnyCodebases reports whether the registry tracks at least one path.
func (r *Registry) HasAnyCodebases() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rf, err := r.readLocked()
	if err != nil {
		return false, err
	}
	return len(rf.Codebases) > 0, nil
}

// GetAllCodebases returns every tracked CodebaseStatus.
func (r *Registry) GetAllCodebases() ([]CodebaseStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rf, err := r.readLocked()
	if err != nil {
		return nil, err
	}
	out := make([]CodebaseStatus, 0, len(rf.Codebases))
	for _, cs := range rf.Codebases {
		out = append(out, cs)
	}
	return out, nil
}

// SweepAbandoned demotes any "indexing" entry whose last_updated exceeds
// threshold to "failed(abandoned)". app.New calls it once at startup with
// the configured watchdog threshold, so a killed process needs no manual
// clear (see DESIGN.md).
func (r *Registry) SweepAbandoned(threshold time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	swept := 0
	err := r.withFileLock(func() error {
		rf, err := r.readLocked()
		if err != nil {
			return err
		}
		cutoff := now().Add(-threshold)
		for path, cs := range rf.Codebases {
			if cs.StatusValue == StatusIndexing && cs.LastUpdated.Before(cutoff) {
				cs.StatusValue = StatusFailed
				cs.ErrorMessage = "abandoned"
				cs.LastUpdated = now()
				rf.Codebases[path] = cs
				swept++
			}
		}
		if swept == 0 {
			return nil
		}
		return r.writeLocked(rf)
	})
	return swept, err
}

// now is overridable in tests that need deterministic timestamps.
var now = time.Now
