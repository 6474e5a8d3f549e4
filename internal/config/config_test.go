package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/perch/internal/command"
)

func write(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func noEnv() []string { return []string{} }

func TestDefaults(t *testing.T) {
	res, err := Load(Options{UserDir: t.TempDir(), Environ: noEnv()})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Files)

	c := res.Config
	assert.False(t, c.StickyByDefault)
	assert.Equal(t, 10, c.ContextMargin)
	assert.True(t, c.UseColor)
	assert.Equal(t, FrontendLine, c.Frontend)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 1000, c.HistorySize)
}

func TestLayers(t *testing.T) {
	user := t.TempDir()
	project := t.TempDir()
	write(t, user, "perch.toml", `
sticky_by_default = true
context_margin = 4
editor = "vi"
hide_frames = ["*_test.star"]

[aliases]
ll2 = "longlist"

[dap]
adapter = "delve"
`)
	write(t, project, "perch.yaml", `
context_margin: 6
aliases:
  pl: "p %1"
dap:
  launch_overrides: '{"buildFlags": "-tags=dev"}'
`)

	res, err := Load(Options{
		UserDir:    user,
		ProjectDir: project,
		Environ:    []string{"PERCH_EDITOR=nano", "PERCH_USE_COLOR=false", "HOME=/x"},
		Flags:      map[string]any{"frontend": "screen"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.Files, 2)

	c := res.Config
	assert.True(t, c.StickyByDefault)
	assert.Equal(t, 6, c.ContextMargin)
	assert.Equal(t, "nano", c.Editor)
	assert.False(t, c.UseColor)
	assert.Equal(t, FrontendScreen, c.Frontend)
	assert.Equal(t, []string{"*_test.star"}, c.HideFrames)
	assert.Equal(t, map[string]string{"ll2": "longlist", "pl": "p %1"}, c.Aliases)
	assert.Equal(t, "delve", c.DAP.Adapter)
	assert.JSONEq(t, `{"buildFlags": "-tags=dev"}`, c.DAP.LaunchOverrides)

	s := c.Session()
	assert.True(t, s.Sticky)
	assert.Equal(t, 6, s.Margin)
	assert.False(t, s.Highlight, "highlighting needs colour")
}

func TestWarnings(t *testing.T) {
	user := t.TempDir()
	path := write(t, user, "perch.toml", `
context_margin = "wide"
colour = true
frontend = "gui"

[dap]
adapter = 3
port = 1
`)
	res, err := Load(Options{UserDir: user, Environ: []string{"PERCH_BOGUS=1", "PERCH_CONFIG=x.toml"}})
	require.NoError(t, err)

	var got []string
	for _, w := range res.Warnings {
		got = append(got, w.Key)
	}
	assert.ElementsMatch(t, []string{"colour", "context_margin", "frontend", "dap.adapter", "dap.port", "PERCH_BOGUS"}, got)
	assert.Equal(t, path, res.Warnings[0].Source)
	assert.Equal(t, 10, res.Config.ContextMargin, "bad values keep the lower layer")
	assert.Equal(t, FrontendLine, res.Config.Frontend)
}

func TestBrokenFileIsAWarning(t *testing.T) {
	user := t.TempDir()
	write(t, user, "perch.toml", "sticky_by_default = \n")
	res, err := Load(Options{UserDir: user, Environ: noEnv()})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].String(), "parse error")
	assert.Empty(t, res.Files)
}

func TestExplicitFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "perch.toml", "context_margin = 2\n")
	path := write(t, dir, "other.yml", "context_margin: 3\n")

	res, err := Load(Options{UserDir: dir, File: path, Environ: noEnv()})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Config.ContextMargin)
	assert.Equal(t, []string{path}, res.Candidates)

	_, err = Load(Options{File: filepath.Join(dir, "missing.toml"), Environ: noEnv()})
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestEnvironmentValues(t *testing.T) {
	res, err := Load(Options{UserDir: t.TempDir(), Environ: []string{
		"PERCH_HIDE_FRAMES=lib/*, <builtin>",
		"PERCH_HISTORY_SIZE=50",
		"PERCH_STICKY_BY_DEFAULT=yes",
		`PERCH_ALIASES={"n2": "next"}`,
		`PERCH_DAP_LAUNCH_OVERRIDES={"env": {"A": "1"}}`,
	}})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	c := res.Config
	assert.Equal(t, []string{"lib/*", "<builtin>"}, c.HideFrames)
	assert.Equal(t, 50, c.HistorySize)
	assert.True(t, c.StickyByDefault)
	assert.Equal(t, "next", c.Aliases["n2"])
	assert.JSONEq(t, `{"env": {"A": "1"}}`, c.DAP.LaunchOverrides)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		kind kind
		raw  any
		want any
		err  bool
	}{
		{"bool", kindBool, true, true, false},
		{"bool from 1", kindBool, int64(1), true, false},
		{"bool from 2", kindBool, int64(2), nil, true},
		{"int64", kindInt, int64(7), 7, false},
		{"yaml int", kindInt, 7, 7, false},
		{"float", kindInt, 1.5, nil, true},
		{"strings", kindStrings, []any{"a", "b"}, []string{"a", "b"}, false},
		{"mixed strings", kindStrings, []any{"a", 1}, nil, true},
		{"bad json", kindJSON, "{", nil, true},
		{"json table", kindJSON, map[string]any{"a": int64(1)}, `{"a":1}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.kind, tt.raw)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefineAliases(t *testing.T) {
	c := Default()
	c.Aliases = map[string]string{"n": "next", "nn": "next;;next", "bad name": "x"}
	table := command.NewAliasTable()
	warnings := c.DefineAliases(table)

	require.Len(t, warnings, 2)
	assert.Equal(t, "bad name", warnings[0].Key)
	assert.Equal(t, "n", warnings[1].Key)
	assert.Equal(t, "shadows the built-in command", warnings[1].Message)

	got, ok := table.Get("n")
	assert.True(t, ok)
	assert.Equal(t, "next", got)
}

func TestReloader(t *testing.T) {
	user := t.TempDir()
	opts := Options{UserDir: user, Environ: noEnv()}
	res, err := Load(opts)
	require.NoError(t, err)

	var mu sync.Mutex
	var loaded []*Result
	r, err := NewReloader(opts, res.Candidates, func(res *Result) {
		mu.Lock()
		loaded = append(loaded, res)
		mu.Unlock()
	}, nil, 20*time.Millisecond)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, r.Watching(), len(fileNames))

	write(t, user, "perch.toml", "context_margin = 3\n")
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(loaded) > 0 && loaded[len(loaded)-1].Config.ContextMargin == 3
	}, 5*time.Second, 10*time.Millisecond)
}
