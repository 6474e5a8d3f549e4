package loader

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
)

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "PERCH_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a loader reading the variables in mapping.
// The prefix should include the trailing underscore (e.g., "PERCH_").
func NewEnvLoader(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		environ: os.Environ,
	}
}

// WithEnviron replaces the environment source, for tests.
func (l *EnvLoader) WithEnviron(environ func() []string) *EnvLoader {
	l.environ = environ
	return l
}

// MappingFor derives the variable names for dotted config paths:
// "dap.adapter" is read from PREFIX_DAP_ADAPTER.
func MappingFor(prefix string, paths []string) map[string]string {
	m := make(map[string]string, len(paths))
	for _, p := range paths {
		m[prefix+strings.ToUpper(strings.ReplaceAll(p, ".", "_"))] = p
	}
	return m
}

func (l *EnvLoader) vars() map[string]string {
	out := make(map[string]string)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		out[name] = value
	}
	return out
}

// Load reads the mapped environment variables and returns a configuration
// map. Empty values are treated as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for name, value := range l.vars() {
		if path, ok := l.mapping[name]; ok {
			setByPath(config, path, parseValue(value))
		}
	}
	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}

// Unmapped returns the prefixed variables that name no setting, sorted.
func (l *EnvLoader) Unmapped() []string {
	var out []string
	for name := range l.vars() {
		if _, ok := l.mapping[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
