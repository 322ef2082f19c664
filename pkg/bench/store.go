package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

// Store persists benchmark results.
type Store interface {
	// Save stores res and returns where it was written.
	Save(ctx context.Context, res *Result) (string, error)
	// Get loads a result by name. A missing result is a NOT_FOUND error.
	Get(ctx context.Context, name string) (*Result, error)
	// List returns stored result names, newest first.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// FileStore keeps one JSON file per result in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file store, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) resultPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes <dir>/<res.Name>.json.
func (s *FileStore) Save(ctx context.Context, res *Result) (string, error) {
	if err := validName(res.Name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := s.resultPath(res.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result file: %w", err)
	}
	return path, nil
}

func (s *FileStore) Get(ctx context.Context, name string) (*Result, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.resultPath(name))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "result %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse result %s", name)
	}
	return &res, nil
}

// List returns names of files matching testResult_*.json. The yymmddHHMM
// stamp makes reverse lexical order newest first.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "testResult_*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(filepath.Base(m), ".json")
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the result directory.
func (s *FileStore) Path() string { return s.dir }

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return errors.New(errors.ErrCodeInvalidPath, "invalid result name %q", name)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
