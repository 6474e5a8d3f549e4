package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/perch/internal/config/loader"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "PERCH_"

// fileNames are tried in order in each configuration directory.
var fileNames = []string{"perch.toml", "perch.yaml", "perch.yml"}

// Options selects the layers Load reads.
type Options struct {
	// UserDir is the user configuration directory. Defaults to Dir().
	UserDir string
	// ProjectDir is the project directory, usually the working directory.
	// Empty skips the project layer.
	ProjectDir string
	// File is an explicit configuration file. It replaces the user and
	// project layers and must exist.
	File string
	// Environ lists the environment as KEY=value pairs. Defaults to
	// os.Environ; a non-nil empty slice disables the environment layer.
	Environ []string
	// Flags is the command line layer, keyed like the files.
	Flags map[string]any
	// FS overrides the file system, for tests.
	FS loader.FileSystem
}

// Result is a loaded configuration.
type Result struct {
	Config   Config
	Warnings []Warning
	// Files lists the configuration files that were read, lowest layer
	// first. Watchers observe these plus the files that may appear.
	Files []string
	// Candidates lists every file path a layer would read.
	Candidates []string
}

// Load reads every layer and merges them over the defaults.
func Load(opts Options) (*Result, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}
	res := &Result{Config: Default()}

	var files []string
	if opts.File != "" {
		if _, err := fsys.Stat(opts.File); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, opts.File)
			}
			return nil, err
		}
		files = []string{opts.File}
	} else {
		userDir := opts.UserDir
		if userDir == "" {
			userDir = Dir()
		}
		dirs := []string{userDir}
		if opts.ProjectDir != "" {
			if abs, err := filepath.Abs(opts.ProjectDir); err == nil && abs != filepath.Clean(userDir) {
				dirs = append(dirs, abs)
			}
		}
		for _, dir := range dirs {
			for _, name := range fileNames {
				files = append(files, filepath.Join(dir, name))
			}
		}
	}
	res.Candidates = files

	for _, path := range files {
		if err := res.loadFile(fsys, path); err != nil {
			return nil, err
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	env := loader.NewEnvLoader(EnvPrefix, loader.MappingFor(EnvPrefix, Keys())).
		WithEnviron(func() []string { return environ })
	layer, err := env.Load()
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, res.Config.Apply("environment", layer)...)
	for _, name := range env.Unmapped() {
		if name == EnvPrefix+"CONFIG" {
			continue
		}
		res.Warnings = append(res.Warnings, Warning{Source: "environment", Key: name, Message: "unknown setting"})
	}

	if len(opts.Flags) > 0 {
		res.Warnings = append(res.Warnings, res.Config.Apply("flags", opts.Flags)...)
	}
	return res, nil
}

func (r *Result) loadFile(fsys loader.FileSystem, path string) error {
	l, err := loader.ForFile(fsys, path)
	if err != nil {
		return err
	}
	layer, err := l.Load()
	if err != nil {
		var perr *loader.ParseError
		if errors.As(err, &perr) {
			// A broken file is skipped like an unknown key; the other
			// layers still apply.
			r.Warnings = append(r.Warnings, Warning{Source: path, Message: perr.Error()})
			return nil
		}
		return err
	}
	if layer == nil {
		return nil
	}
	r.Files = append(r.Files, path)
	r.Warnings = append(r.Warnings, r.Config.Apply(path, layer)...)
	return nil
}
