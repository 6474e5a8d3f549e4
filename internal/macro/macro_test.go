package macro

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
macro("nn", "step twice", "next;; next ;;")

macro("watch", "display each argument", function(...)
    local out = {}
    for _, name in ipairs({...}) do
        table.insert(out, "display " .. name)
    end
    return out
end)

macro("quiet", "", function() return nil end)
macro("one", "", function(a) return "p " .. (a or "none") end)
macro("broken", "", function() error("boom") end)
macro("wrong", "", function() return 42 end)
macro("mixed", "", function() return {"next", 1} end)
`

func TestExpand(t *testing.T) {
	s := New()
	defer s.Close()
	require.NoError(t, s.DoString(sample))

	assert.Equal(t, []string{"broken", "mixed", "nn", "one", "quiet", "watch", "wrong"}, s.Names())
	assert.True(t, s.Has("nn"))
	assert.False(t, s.Has("next"))

	tests := []struct {
		name string
		args []string
		want []string
		err  string
	}{
		{"nn", nil, []string{"next", "next"}, ""},
		{"watch", []string{"a", "b.c"}, []string{"display a", "display b.c"}, ""},
		{"quiet", nil, nil, ""},
		{"one", nil, []string{"p none"}, ""},
		{"one", []string{"x"}, []string{"p x"}, ""},
		{"broken", nil, nil, "boom"},
		{"wrong", nil, nil, "want string or list of strings"},
		{"mixed", nil, nil, "in its command list"},
		{"absent", nil, nil, "unknown macro"},
	}
	for _, tt := range tests {
		got, err := s.Expand(tt.name, tt.args)
		if tt.err != "" {
			require.Error(t, err, tt.name)
			assert.Contains(t, err.Error(), tt.err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	// The state stays usable after a failing macro.
	got, err := s.Expand("nn", nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSandbox(t *testing.T) {
	s := New()
	defer s.Close()
	for _, code := range []string{
		`os.exit(1)`,
		`io.write("x")`,
		`dofile("/etc/passwd")`,
		`load("return 1")()`,
		`require("os")`,
	} {
		assert.Error(t, s.DoString(code), code)
	}
}

func TestRegisterErrors(t *testing.T) {
	s := New()
	defer s.Close()
	assert.Error(t, s.DoString(`macro("a b", "", "next")`))
	assert.Error(t, s.DoString(`macro("a", "", 3)`))
	assert.Empty(t, s.Names())
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	s := New(WithOutput(&out))
	defer s.Close()
	require.NoError(t, s.DoString(`macro("hi", "", function() print("hello", 1) end)`))
	_, err := s.Expand("hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\t1\n", out.String())
}

func TestTimeout(t *testing.T) {
	s := New(WithTimeout(50 * time.Millisecond))
	defer s.Close()
	require.NoError(t, s.DoString(`macro("spin", "", function() while true do end end)`))
	_, err := s.Expand("spin", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(filepath.Join(dir, "missing.lua"))
	require.NoError(t, err)
	assert.Empty(t, s.Names())
	s.Close()

	path := filepath.Join(dir, "macros.lua")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	s, err = Load(path)
	require.NoError(t, err)
	m, ok := s.Get("nn")
	require.True(t, ok)
	assert.Equal(t, "step twice", m.Help)
	assert.Equal(t, path, m.Source)

	s.Close()
	_, err = s.Expand("nn", nil)
	assert.ErrorIs(t, err, ErrClosed)

	bad := filepath.Join(dir, "bad.lua")
	require.NoError(t, os.WriteFile(bad, []byte("macro("), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
