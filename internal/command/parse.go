package command

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// splitName separates the first whitespace-delimited word of line.
func splitName(line string) (name, args string) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// splitCommands cuts line at the first ";;" outside a quoted string.
func splitCommands(line string) (first, rest string, ok bool) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ';' && i+1 < len(line) && line[i+1] == ';':
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+2:]), true
		}
	}
	return line, "", false
}

// parseCount parses an optional positive count, defaulting to 1.
func parseCount(cmd, arg string) (int, error) {
	if arg == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, inputErrorf(cmd, "invalid count %q", arg)
	}
	return n, nil
}

// parseIDs parses a list of breakpoint numbers.
func parseIDs(cmd, args string) ([]int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil, inputErrorf(cmd, "breakpoint number expected")
	}
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, inputErrorf(cmd, "invalid breakpoint number %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseLocation parses "[file:]line". An empty file means the current one.
func parseLocation(cmd, arg string) (file string, line int, err error) {
	arg = strings.TrimSpace(arg)
	num := arg
	if i := strings.LastIndexByte(arg, ':'); i >= 0 {
		file, num = strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:])
	}
	line, err = strconv.Atoi(num)
	if err != nil || line < 1 {
		return "", 0, inputErrorf(cmd, "invalid line number %q", num)
	}
	return file, line, nil
}

// resolveFile maps a user-typed file name onto one the runtime knows. Known
// files match exactly, by base name or by path suffix; anything else is made
// absolute.
func resolveFile(name string, known []string) string {
	if name == "" {
		return name
	}
	for _, k := range known {
		if k == name {
			return k
		}
	}
	clean := filepath.Clean(name)
	for _, k := range known {
		if strings.HasSuffix(k, string(filepath.Separator)+clean) || filepath.Base(k) == clean {
			return k
		}
	}
	if abs, err := filepath.Abs(clean); err == nil {
		return abs
	}
	return clean
}
