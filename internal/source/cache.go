package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNoSource is returned when a file has no retrievable source.
var ErrNoSource = errors.New("source not available")

// FileSystem abstracts the calls the cache makes, for tests.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	Stat(name string) (fs.FileInfo, error)
}

type osFS struct{}

func (osFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }
func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

type entry struct {
	lines   []string
	size    int64
	modTime time.Time
	virtual bool
}

// Cache memoizes source lines per file.
type Cache struct {
	mu      sync.RWMutex
	fs      FileSystem
	entries map[string]*entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithFileSystem replaces the file system used to read sources.
func WithFileSystem(fsys FileSystem) Option {
	return func(c *Cache) {
		c.fs = fsys
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		fs:      osFS{},
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register stores text for a path that is not read from disk. Registered
// sources are never revalidated.
func (c *Cache) Register(path string, text []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = &entry{lines: splitLines(text), virtual: true}
}

// Invalidate drops the memoized text of path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok && !e.virtual {
		delete(c.entries, path)
	}
}

// LineCount returns the number of lines in path.
func (c *Cache) LineCount(path string) (int, error) {
	e, err := c.load(path)
	if err != nil {
		return 0, err
	}
	return len(e.lines), nil
}

// Line returns the 1-based line n of path.
func (c *Cache) Line(path string, n int) (string, error) {
	e, err := c.load(path)
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(e.lines) {
		return "", fmt.Errorf("line %d out of range for %s (%d lines)", n, path, len(e.lines))
	}
	return e.lines[n-1], nil
}

// Lines returns the lines first..last of path, both 1-based and inclusive.
// The range is clipped to the file; an empty slice is returned when nothing
// of the range exists.
func (c *Cache) Lines(path string, first, last int) ([]string, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	if first < 1 {
		first = 1
	}
	if last > len(e.lines) {
		last = len(e.lines)
	}
	if first > last {
		return nil, nil
	}
	out := make([]string, last-first+1)
	copy(out, e.lines[first-1:last])
	return out, nil
}

func (c *Cache) load(path string) (*entry, error) {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()

	if ok && e.virtual {
		return e, nil
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		if ok {
			// File vanished after it was read; keep serving what we had.
			return e, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoSource, path)
	}
	if ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e, nil
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoSource, path, err)
	}

	e = &entry{
		lines:   splitLines(data),
		size:    info.Size(),
		modTime: info.ModTime(),
	}

	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()
	return e, nil
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
