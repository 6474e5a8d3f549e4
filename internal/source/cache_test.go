package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestCacheLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.star", "one\ntwo\r\nthree\n")
	c := NewCache()

	n, err := c.LineCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	line, err := c.Line(path, 2)
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	lines, err := c.Lines(path, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)

	lines, err = c.Lines(path, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = c.Line(path, 4)
	assert.Error(t, err)
}

func TestCacheMissingFile(t *testing.T) {
	c := NewCache()
	_, err := c.LineCount(filepath.Join(t.TempDir(), "nope.star"))
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestCacheRevalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.star", "x = 1\n")
	c := NewCache()

	line, err := c.Line(path, 1)
	require.NoError(t, err)
	assert.Equal(t, "x = 1", line)

	require.NoError(t, os.WriteFile(path, []byte("x = 22\ny = 3\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	n, err := c.LineCount(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCacheRegister(t *testing.T) {
	c := NewCache()
	c.Register("<stdin>", []byte("a\nb"))
	c.Invalidate("<stdin>")

	lines, err := c.Lines("<stdin>", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestEnclosing(t *testing.T) {
	c := NewCache()
	c.Register("a.star", []byte(`x = 1

def outer(a):
    y = a

    # comment
    if y:
        return y
    return 0

z = outer(1)
`))
	first, last, err := c.Enclosing("a.star", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, first)
	assert.Equal(t, 9, last)

	first, last, err = c.Enclosing("a.star", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, first)
	assert.Equal(t, 9, last)

	first, last, err = c.Enclosing("a.star", 11)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 11, last)

	c.Register("main.go", []byte(`package main

func main() {
	if true {
		println("x")
	}
}
`))
	first, last, err = c.Enclosing("main.go", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, first)
	assert.Equal(t, 7, last)
}
