package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history")
	s := NewStore(path, 10)

	lines, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, s.Save([]string{"n", "p x", "bt"}))

	lines, err = NewStore(path, 10).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "p x", "bt"}, lines)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSaveAppendsToConcurrentWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	a := NewStore(path, 10)
	b := NewStore(path, 10)

	_, err := a.Load()
	require.NoError(t, err)
	_, err = b.Load()
	require.NoError(t, err)

	require.NoError(t, a.Save([]string{"a1"}))
	require.NoError(t, b.Save([]string{"b1", "b2"}))
	require.NoError(t, a.Save([]string{"a1", "a2"}))

	lines, err := NewStore(path, 10).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1", "b2", "a2"}, lines)
}

func TestSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	s := NewStore(path, 2)
	s.now = func() time.Time { return time.Unix(0, 0).UTC() }
	require.NoError(t, s.Save([]string{"1", "2", "3"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), `"time":"1970-01-01T00:00:00Z"`)

	lines, err := NewStore(path, 2).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, lines)
}

func TestMalformedRecordsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(path, []byte(`{"line":"n"}
not json
{"line":""}

{"line":"c","time":"2024-01-01T00:00:00Z"}
`), 0o644))
	lines, err := NewStore(path, 10).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "c"}, lines)
}

func TestDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	s := NewStore(path, 0)
	require.NoError(t, s.Save([]string{"n"}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
