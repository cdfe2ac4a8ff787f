// Package store persists session records on local disk so runs can share
// logins.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/hrsuite/pkg/session"
)

// formatVersion is written into every record file. Files carrying any other
// version are treated as corrupt.
const formatVersion = 1

const fileExt = ".json"

// fileRecord is the on-disk shape of one session record.
type fileRecord struct {
	Version     int                  `json:"version"`
	Key         string               `json:"key"`
	Name        string               `json:"name"`
	State       session.StorageState `json:"state"`
	CreatedAt   time.Time            `json:"createdAt"`
	ValidatedAt time.Time            `json:"validatedAt"`
}

var _ session.Store = (*FileStore)(nil)

// FileStore implements session.Store with one JSON file per identity.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("session cache directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the directory holding the record files.
func (s *FileStore) Dir() string {
	return s.dir
}

// fileName maps a cache key to a file name. Keys contain user-chosen names,
// so they are hashed rather than used as paths.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32] + fileExt
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

// Load reads every record file. A missing directory is an empty cache.
// Files that cannot be read or decoded are skipped and reported together in
// a *session.CacheCorruptionError.
func (s *FileStore) Load(ctx context.Context) ([]session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var (
		records  []session.Record
		badFiles []string
		badErrs  []error
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		rec, err := readRecord(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			badFiles = append(badFiles, entry.Name())
			badErrs = append(badErrs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	if len(badFiles) > 0 {
		return records, &session.CacheCorruptionError{Files: badFiles, Err: errors.Join(badErrs...)}
	}
	return records, nil
}

func readRecord(path string) (session.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return session.Record{}, err
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return session.Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	if fr.Version != formatVersion {
		return session.Record{}, fmt.Errorf("unsupported record version %d", fr.Version)
	}
	if fr.Key == "" {
		return session.Record{}, fmt.Errorf("record has no key")
	}
	if filepath.Base(path) != fileName(fr.Key) {
		return session.Record{}, fmt.Errorf("record key does not match file name")
	}

	return session.Record{
		Key:         fr.Key,
		Name:        fr.Name,
		State:       fr.State,
		CreatedAt:   fr.CreatedAt,
		ValidatedAt: fr.ValidatedAt,
	}, nil
}

// Save writes rec through a temp file and an atomic rename, so readers see
// either the old record or the new one.
func (s *FileStore) Save(ctx context.Context, rec session.Record) error {
	if rec.Key == "" {
		return fmt.Errorf("cannot save record without key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	file, err := os.CreateTemp(s.dir, ".record-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp record file: %w", err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fileRecord{
		Version:     formatVersion,
		Key:         rec.Key,
		Name:        rec.Name,
		State:       rec.State,
		CreatedAt:   rec.CreatedAt,
		ValidatedAt: rec.ValidatedAt,
	}); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path(rec.Key)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Delete removes the record for key. A missing record is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Clear removes every record file and any leftover temp files. Other files
// in the directory are left alone.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, fileExt) || strings.HasSuffix(name, ".tmp")) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors clearing session cache: %w", errors.Join(errs...))
	}
	return nil
}
