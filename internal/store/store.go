// Package store persists findings per identity in one JSON file per
// category partition.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/types"
)

// WriteError means a partition could not be persisted. It is the only store
// failure callers must treat as fatal.
type WriteError struct {
	Partition string
	Path      string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to persist %s partition (%s): %v", e.Partition, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// partitionFile is the on-disk layout of one partition.
type partitionFile struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Reports     map[string]types.Report `json:"reports"`
}

// Store is the category-partitioned log store rooted at a directory.
type Store struct {
	dir string
	log *zap.SugaredLogger
	now func() time.Time

	locks map[types.Category]*sync.Mutex
}

// New creates a store rooted at dir. The directory is created lazily on the
// first write. A nil logger discards output.
func New(dir string, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	locks := make(map[types.Category]*sync.Mutex, len(types.Categories))
	for _, c := range types.Categories {
		locks[c] = &sync.Mutex{}
	}
	return &Store{dir: dir, log: log, now: time.Now, locks: locks}
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// PartitionPath returns the file backing a category partition.
func (s *Store) PartitionPath(category types.Category) string {
	return filepath.Join(s.dir, category.Partition()+".json")
}

// Persist records findings for identity, replacing any prior entry.
//
// A clean result (no findings) removes a stale entry if one exists and is
// otherwise a no-op that never takes the partition lock or creates files.
// Writes are serialized per partition and land atomically.
func (s *Store) Persist(category types.Category, identity string, findings []types.Finding) error {
	return s.update(category, identity, findings, func(types.Finding) bool { return true })
}

// PersistFile records the findings of one scanned file under identity.
// Only prior findings for the same file are replaced; findings of sibling
// files sharing the identity stay on record. The entry is removed once no
// file has findings left.
func (s *Store) PersistFile(category types.Category, identity, file string, findings []types.Finding) error {
	if file == "" {
		return fmt.Errorf("file must not be empty")
	}
	return s.update(category, identity, findings, func(f types.Finding) bool { return f.File == file })
}

// update merges findings into identity's entry. Prior findings for which
// supersedes returns true are dropped first.
func (s *Store) update(category types.Category, identity string, findings []types.Finding, supersedes func(types.Finding) bool) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if identity == "" {
		return fmt.Errorf("identity must not be empty")
	}

	path := s.PartitionPath(category)

	if len(findings) == 0 {
		current, err := s.read(path)
		if err != nil {
			return &WriteError{Partition: category.Partition(), Path: path, Err: err}
		}
		if !slices.ContainsFunc(current.Reports[identity].Findings, supersedes) {
			return nil
		}
	}

	mu := s.locks[category]
	mu.Lock()
	defer mu.Unlock()

	current, err := s.read(path)
	if err != nil {
		return &WriteError{Partition: category.Partition(), Path: path, Err: err}
	}

	prior, exists := current.Reports[identity]
	kept := slices.DeleteFunc(slices.Clone(prior.Findings), supersedes)
	if len(findings) == 0 && len(kept) == len(prior.Findings) {
		return nil
	}

	merged := append(kept, findings...)
	if len(kept) > 0 && len(findings) > 0 {
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].File < merged[j].File })
	}

	now := s.now().UTC()
	if len(merged) == 0 {
		if !exists {
			return nil
		}
		delete(current.Reports, identity)
		s.log.Debugw("removed stale report", "partition", category.Partition(), "identity", identity)
	} else {
		current.Reports[identity] = types.Report{
			Identity:    identity,
			Category:    category,
			GeneratedAt: now,
			Findings:    merged,
		}
	}
	current.GeneratedAt = now

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return &WriteError{Partition: category.Partition(), Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &WriteError{Partition: category.Partition(), Path: path, Err: err}
	}

	s.log.Debugw("persisted report",
		"partition", category.Partition(),
		"identity", identity,
		"findings", len(merged))
	return nil
}

// Load returns every identity's findings in a partition. A partition that
// has never been written is empty, not an error.
func (s *Store) Load(category types.Category) (map[string][]types.Finding, error) {
	reports, err := s.Reports(category)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]types.Finding, len(reports))
	for id, r := range reports {
		out[id] = r.Findings
	}
	return out, nil
}

// Reports returns the full reports of a partition keyed by identity.
func (s *Store) Reports(category types.Category) (map[string]types.Report, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	pf, err := s.read(s.PartitionPath(category))
	if err != nil {
		return nil, err
	}
	return pf.Reports, nil
}

// Get returns the report for one identity.
func (s *Store) Get(category types.Category, identity string) (types.Report, bool, error) {
	reports, err := s.Reports(category)
	if err != nil {
		return types.Report{}, false, err
	}
	r, ok := reports[identity]
	return r, ok, nil
}

// HasReport reports whether a live report exists for identity. An
// unreadable partition is logged and treated as having no report.
func (s *Store) HasReport(category types.Category, identity string) bool {
	_, ok, err := s.Get(category, identity)
	if err != nil {
		s.log.Warnw("cannot read partition", "partition", category.Partition(), "error", err)
		return false
	}
	return ok
}

// Identities returns the identities with reports in a partition, sorted.
func (s *Store) Identities(category types.Category) ([]string, error) {
	reports, err := s.Reports(category)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) read(path string) (*partitionFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &partitionFile{Reports: map[string]types.Report{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read partition: %w", err)
	}

	var pf partitionFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse partition %s: %w", filepath.Base(path), err)
	}
	if pf.Reports == nil {
		pf.Reports = map[string]types.Report{}
	}
	return &pf, nil
}
