package core

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// MockFileSystem is an in-memory FileSystem for tests.
// Directories are implied by the files stored beneath them.
type MockFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	// Injected errors. A non-nil value makes every call of that kind fail.
	ReadErr   error
	WriteErr  error
	StatErr   error
	RenameErr error

	// DirErrs makes ReadDir fail for specific directories.
	DirErrs map[string]error
}

// NewMockFileSystem returns an empty MockFileSystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:   make(map[string][]byte),
		dirs:    make(map[string]bool),
		DirErrs: make(map[string]error),
	}
}

// SetFile stores content at path, creating parent directories implicitly.
func (m *MockFileSystem) SetFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setFileLocked(filepath.Clean(path), data)
}

// GetFile returns the stored content and whether it exists.
func (m *MockFileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

func (m *MockFileSystem) setFileLocked(path string, data []byte) {
	m.files[path] = slices.Clone(data)
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
		if dir == filepath.Dir(dir) {
			break
		}
	}
}

func (m *MockFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return slices.Clone(data), nil
}

func (m *MockFileSystem) WriteFile(ctx context.Context, path string, data []byte, _ FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setFileLocked(filepath.Clean(path), data)
	return nil
}

func (m *MockFileSystem) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.StatErr != nil {
		return nil, m.StatErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	clean := filepath.Clean(path)
	if data, ok := m.files[clean]; ok {
		return mockEntry{name: filepath.Base(clean), size: int64(len(data))}, nil
	}
	if m.dirs[clean] {
		return mockEntry{name: filepath.Base(clean), dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func (m *MockFileSystem) ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(path)
	if err := m.DirErrs[clean]; err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.dirs[clean] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	var entries []fs.DirEntry
	for p, data := range m.files {
		if filepath.Dir(p) == clean {
			entries = append(entries, mockEntry{name: filepath.Base(p), size: int64(len(data))})
		}
	}
	for d := range m.dirs {
		if d != clean && filepath.Dir(d) == clean {
			entries = append(entries, mockEntry{name: filepath.Base(d), dir: true})
		}
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

func (m *MockFileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.RenameErr != nil {
		return m.RenameErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	oldClean := filepath.Clean(oldPath)
	data, ok := m.files[oldClean]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: fs.ErrNotExist}
	}
	delete(m.files, oldClean)
	m.setFileLocked(filepath.Clean(newPath), data)
	return nil
}

// mockEntry serves as both fs.FileInfo and fs.DirEntry.
type mockEntry struct {
	name string
	size int64
	dir  bool
}

func (e mockEntry) Name() string { return e.name }
func (e mockEntry) Size() int64  { return e.size }
func (e mockEntry) IsDir() bool  { return e.dir }
func (e mockEntry) ModTime() time.Time {
	return time.Time{}
}
func (e mockEntry) Sys() any { return nil }

func (e mockEntry) Mode() fs.FileMode {
	if e.dir {
		return fs.ModeDir | PermDir
	}
	return PermOwnerRW
}

func (e mockEntry) Type() fs.FileMode           { return e.Mode().Type() }
func (e mockEntry) Info() (fs.FileInfo, error) { return e, nil }
