package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tomz197/chainbreaker/internal/stats/sqlitekv"
)

// KV is a flat key-value backend. Get reports ok=false for absent keys.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// KVFuncs adapts a pair of functions to KV.
type KVFuncs struct {
	GetFunc func(ctx context.Context, key string) ([]byte, bool, error)
	PutFunc func(ctx context.Context, key string, value []byte) error
}

// Get implements KV.
func (f KVFuncs) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.GetFunc == nil {
		return nil, false, nil
	}
	return f.GetFunc(ctx, key)
}

// Put implements KV.
func (f KVFuncs) Put(ctx context.Context, key string, value []byte) error {
	if f.PutFunc == nil {
		return nil
	}
	return f.PutFunc(ctx, key, value)
}

// Compile-time checks.
var (
	_ KV = KVFuncs{}
	_ KV = (*MemoryKV)(nil)
	_ KV = (*FileKV)(nil)
	_ KV = (*sqlitekv.Store)(nil)
)

// MemoryKV keeps records in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put implements KV.
func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// FileKV stores every key in one JSON object on disk, the way a browser's
// local storage keeps string records under string keys.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV creates a backend writing to path. The file is created on the
// first Put.
func NewFileKV(path string) (*FileKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	return &FileKV{path: filepath.Clean(path)}, nil
}

// Get implements KV.
func (f *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readLocked()
	if err != nil {
		return nil, false, err
	}
	v, ok := records[key]
	return v, ok, nil
}

// Put implements KV.
func (f *FileKV) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("put %s: value is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readLocked()
	if err != nil {
		return err
	}
	records[key] = json.RawMessage(value)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	return writeFileAtomic(f.path, data)
}

// readLocked returns the records in the file. A missing or corrupt file
// reads as empty. Must be called with f.mu held.
func (f *FileKV) readLocked() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	records := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &records); err != nil {
		return map[string]json.RawMessage{}, nil
	}
	return records, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".stats-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// Backend names accepted by OpenKV.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// OpenKV opens the named backend. The returned close function is never nil.
func OpenKV(backend, path string) (KV, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case BackendMemory:
		return NewMemoryKV(), noop, nil
	case BackendFile, "":
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case BackendSQLite:
		kv, err := sqlitekv.Open(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown stats backend %q", backend)
	}
}
