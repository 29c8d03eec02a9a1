package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// BackupSink receives the safety archive taken before an import replaces
// a project. An error aborts the import.
type BackupSink interface {
	SaveBackup(ctx context.Context, name string, data []byte) error
}

// DirSink writes backups as files into a directory.
type DirSink struct {
	mu  sync.Mutex
	dir string
}

// NewDirSink creates the directory if needed. An empty dir defaults to
// ~/.config/pepedot/backups.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "pepedot", "backups")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// SaveBackup writes data to dir/name. Existing files are never replaced.
func (d *DirSink) SaveBackup(ctx context.Context, name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name %q", name)
	}
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("close backup: %w", err)
	}
	return nil
}

// List returns the backup file names, oldest stamp first.
func (d *DirSink) List() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zip" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Path returns the backup directory.
func (d *DirSink) Path() string { return d.dir }

var _ BackupSink = (*DirSink)(nil)

// MemorySink keeps backups in memory, for tests and throwaway sessions.
type MemorySink struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{data: make(map[string][]byte)}
}

// SaveBackup stores a copy of data.
func (m *MemorySink) SaveBackup(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = append([]byte(nil), data...)
	return nil
}

// Get returns a stored backup.
func (m *MemorySink) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[name]
	return b, ok
}

// Names returns the stored backup names, sorted.
func (m *MemorySink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.data))
	for n := range m.data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
