package config

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates an explicitly requested configuration file
// doesn't exist.
var ErrFileNotFound = errors.New("config file not found")

// Warning describes a setting that was ignored while loading.
type Warning struct {
	// Source names the layer: a file path, "environment" or "flags".
	Source string
	// Key is the dotted setting path.
	Key string
	// Message describes the problem.
	Message string
}

func (w Warning) String() string {
	if w.Key == "" {
		return fmt.Sprintf("%s: %s", w.Source, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Source, w.Key, w.Message)
}
