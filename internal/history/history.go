package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single history record.
const maxLineBytes = 1 << 20

// Entry is one history record.
type Entry struct {
	Line string    `json:"line"`
	Time time.Time `json:"time"`
}

// Store reads and writes one history file.
type Store struct {
	mu     sync.Mutex
	path   string
	size   int
	loaded int
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store for path keeping at most size entries. A size
// of zero disables persistence.
func NewStore(path string, size int, opts ...Option) *Store {
	s := &Store{
		path:   path,
		size:   size,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the history file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved lines, oldest first. A missing file is empty.
// Malformed records are skipped.
func (s *Store) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size == 0 || s.path == "" {
		return nil, nil
	}
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line
	}
	s.loaded = len(lines)
	return lines, nil
}

func (s *Store) read() ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	skipped := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil || e.Line == "" {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn().Str("file", s.path).Int("skipped", skipped).Msg("malformed history records")
	}
	return s.trim(entries), nil
}

func (s *Store) trim(entries []Entry) []Entry {
	if len(entries) > s.size {
		entries = entries[len(entries)-s.size:]
	}
	return entries
}

// Save writes the file back. lines is the full in-memory history; the
// entries past those returned by Load are appended to the file's current
// content. The file is written atomically using a temporary file and
// rename.
func (s *Store) Save(lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size == 0 || s.path == "" {
		return nil
	}

	fresh := lines
	if s.loaded <= len(lines) {
		fresh = lines[s.loaded:]
	}
	entries, err := s.read()
	if err != nil {
		return err
	}
	now := s.now()
	for _, l := range fresh {
		entries = append(entries, Entry{Line: l, Time: now})
	}
	entries = s.trim(entries)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.loaded = len(lines)
	return nil
}
