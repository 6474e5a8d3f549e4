package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommands(t *testing.T) {
	tests := []struct {
		line, first, rest string
		ok                bool
	}{
		{"p x", "p x", "", false},
		{"p x;; n", "p x", "n", true},
		{"p x ;;n;; s", "p x", "n;; s", true},
		{`p ";;" ;; n`, `p ";;"`, "n", true},
		{`p 'a\';;'`, `p 'a\';;'`, "", false},
	}
	for _, tt := range tests {
		first, rest, ok := splitCommands(tt.line)
		assert.Equal(t, tt.first, first, tt.line)
		assert.Equal(t, tt.rest, rest, tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
	}
}

func TestSubstitute(t *testing.T) {
	assert.Equal(t, "p a + b", substitute("p %1 + %2", "a b"))
	assert.Equal(t, "p a b c", substitute("p %*", "a b c"))
	assert.Equal(t, "p  100%", substitute("p %3 100%", "a"))
}

func TestAliasExpandTerminates(t *testing.T) {
	a := NewAliasTable()
	assert.NoError(t, a.Define("x", "y %*"))
	assert.NoError(t, a.Define("y", "x %*"))
	assert.Equal(t, "x 1", a.Expand("x 1"))
	assert.Equal(t, "plain", a.Expand("plain"))
}

func TestParseLocation(t *testing.T) {
	file, line, err := parseLocation("break", "dir/a.star:12")
	assert.NoError(t, err)
	assert.Equal(t, "dir/a.star", file)
	assert.Equal(t, 12, line)

	file, line, err = parseLocation("break", " 7 ")
	assert.NoError(t, err)
	assert.Empty(t, file)
	assert.Equal(t, 7, line)

	_, _, err = parseLocation("break", "a.star:0")
	assert.True(t, IsUserInput(err))
}

func TestResolveFile(t *testing.T) {
	known := []string{"/src/pkg/a.star", "/src/b.star"}
	assert.Equal(t, "/src/pkg/a.star", resolveFile("a.star", known))
	assert.Equal(t, "/src/pkg/a.star", resolveFile("pkg/a.star", known))
	assert.Equal(t, "/src/b.star", resolveFile("/src/b.star", known))
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "[1, 2]", Pretty("[1, 2]", 80))
	assert.Equal(t, "{\"a\": [1,\n       2,\n       3],\n \"b\": 2}", Pretty(`{"a": [1, 2, 3], "b": 2}`, 10))
	assert.Equal(t, `["x, y", "z"]`, Pretty(`["x, y", "z"]`, 80))
	assert.Equal(t, "[1, (2", Pretty("[1, (2", 3))
	assert.Equal(t, "[]", Pretty("[]", 1))
	assert.Equal(t, "(1,)", Pretty("(1,)", 80))
}
