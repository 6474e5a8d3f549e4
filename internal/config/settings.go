package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

type kind uint8

const (
	kindBool kind = iota
	kindInt
	kindString
	kindStrings
	kindTable
	kindJSON
)

func (k kind) String() string {
	switch k {
	case kindBool:
		return "boolean"
	case kindInt:
		return "integer"
	case kindString:
		return "string"
	case kindStrings:
		return "list of strings"
	case kindTable:
		return "table of strings"
	case kindJSON:
		return "JSON object"
	}
	return "unknown"
}

// setting is one recognized key. apply receives the value already
// converted to the Go type of its kind.
type setting struct {
	key   string
	kind  kind
	apply func(c *Config, v any) error
}

var settings = []setting{
	{"sticky_by_default", kindBool, func(c *Config, v any) error { c.StickyByDefault = v.(bool); return nil }},
	{"context_margin", kindInt, func(c *Config, v any) error {
		n := v.(int)
		if n < 0 {
			return fmt.Errorf("must not be negative")
		}
		c.ContextMargin = n
		return nil
	}},
	{"use_color", kindBool, func(c *Config, v any) error { c.UseColor = v.(bool); return nil }},
	{"truncate_long_lines", kindBool, func(c *Config, v any) error { c.TruncateLongLines = v.(bool); return nil }},
	{"editor", kindString, func(c *Config, v any) error { c.Editor = v.(string); return nil }},
	{"continue_past_exceptions", kindBool, func(c *Config, v any) error { c.ContinuePastExceptions = v.(bool); return nil }},
	{"highlight", kindBool, func(c *Config, v any) error { c.Highlight = v.(bool); return nil }},
	{"hide_frames", kindStrings, func(c *Config, v any) error { c.HideFrames = v.([]string); return nil }},
	{"history_file", kindString, func(c *Config, v any) error { c.HistoryFile = expandHome(v.(string)); return nil }},
	{"history_size", kindInt, func(c *Config, v any) error {
		n := v.(int)
		if n < 0 {
			return fmt.Errorf("must not be negative")
		}
		c.HistorySize = n
		return nil
	}},
	{"log_level", kindString, func(c *Config, v any) error {
		if _, err := zerolog.ParseLevel(v.(string)); err != nil {
			return err
		}
		c.LogLevel = v.(string)
		return nil
	}},
	{"log_file", kindString, func(c *Config, v any) error { c.LogFile = expandHome(v.(string)); return nil }},
	{"frontend", kindString, func(c *Config, v any) error {
		switch s := v.(string); s {
		case FrontendLine, FrontendScreen:
			c.Frontend = s
			return nil
		}
		return fmt.Errorf("must be %q or %q", FrontendLine, FrontendScreen)
	}},
	{"aliases", kindTable, func(c *Config, v any) error {
		for name, template := range v.(map[string]string) {
			c.Aliases[name] = template
		}
		return nil
	}},
	{"macros_file", kindString, func(c *Config, v any) error { c.MacrosFile = expandHome(v.(string)); return nil }},
	{"dap.adapter", kindString, func(c *Config, v any) error { c.DAP.Adapter = v.(string); return nil }},
	{"dap.launch_overrides", kindJSON, func(c *Config, v any) error { c.DAP.LaunchOverrides = v.(string); return nil }},
}

var byKey = func() map[string]*setting {
	m := make(map[string]*setting, len(settings))
	for i := range settings {
		m[settings[i].key] = &settings[i]
	}
	return m
}()

// sections are the keys that hold nested settings.
var sections = map[string]bool{"dap": true}

// Keys returns every recognized dotted key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for _, s := range settings {
		keys = append(keys, s.key)
	}
	sort.Strings(keys)
	return keys
}

// Apply decodes one layer into c. Unknown keys and bad values are
// returned as warnings and leave c unchanged for that key.
func (c *Config) Apply(source string, layer map[string]any) []Warning {
	var warnings []Warning
	c.apply(source, "", layer, &warnings)
	return warnings
}

func (c *Config) apply(source, prefix string, layer map[string]any, warnings *[]Warning) {
	keys := make([]string, 0, len(layer))
	for k := range layer {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := prefix + k
		raw := layer[k]
		if sections[key] {
			sub, ok := raw.(map[string]any)
			if !ok {
				*warnings = append(*warnings, Warning{Source: source, Key: key, Message: "expected a table"})
				continue
			}
			c.apply(source, key+".", sub, warnings)
			continue
		}
		s, ok := byKey[key]
		if !ok {
			*warnings = append(*warnings, Warning{Source: source, Key: key, Message: "unknown setting"})
			continue
		}
		v, err := convert(s.kind, raw)
		if err == nil {
			err = s.apply(c, v)
		}
		if err != nil {
			*warnings = append(*warnings, Warning{Source: source, Key: key, Message: err.Error()})
		}
	}
}

// convert coerces a decoded TOML, YAML or environment value to the Go type
// of k.
func convert(k kind, raw any) (any, error) {
	bad := fmt.Errorf("expected %s, got %T", k, raw)
	switch k {
	case kindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case int64:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		}
		return nil, bad
	case kindInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		}
		return nil, bad
	case kindString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
		return nil, bad
	case kindStrings:
		switch v := raw.(type) {
		case string:
			if v == "" {
				return []string{}, nil
			}
			parts := strings.Split(v, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, e := range v {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("expected %s, found %T element", k, e)
				}
				out = append(out, s)
			}
			return out, nil
		case []string:
			return v, nil
		}
		return nil, bad
	case kindTable:
		switch v := raw.(type) {
		case map[string]any:
			out := make(map[string]string, len(v))
			for name, e := range v {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("entry %q: expected string, got %T", name, e)
				}
				out[name] = s
			}
			return out, nil
		case map[string]string:
			return v, nil
		}
		return nil, bad
	case kindJSON:
		switch v := raw.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return "", nil
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(v), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON object: %v", err)
			}
			return v, nil
		case map[string]any:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return string(data), nil
		}
		return nil, bad
	}
	return nil, bad
}
