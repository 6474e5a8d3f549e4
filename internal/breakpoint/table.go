package breakpoint

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned for an unknown breakpoint id.
var ErrNotFound = errors.New("breakpoint not found")

// CondFunc evaluates a condition expression in the stopped frame.
type CondFunc func(expr string) (bool, error)

// Reader is the read-only view of a table handed to command handlers.
type Reader interface {
	Get(id int) (Breakpoint, bool)
	List() []Breakpoint
	At(file string, line int) []Breakpoint
	Lines(file string) []int
}

type location struct {
	file string
	line int
}

// Table is an ordered collection of breakpoints.
type Table struct {
	mu     sync.RWMutex
	byID   map[int]*Breakpoint
	byLoc  map[location][]*Breakpoint
	nextID int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		byID:   make(map[int]*Breakpoint),
		byLoc:  make(map[location][]*Breakpoint),
		nextID: 1,
	}
}

// Add creates an enabled breakpoint and returns its id.
func (t *Table) Add(file string, line int, condition string) int {
	return t.add(file, line, condition, false)
}

// AddTemporary creates a breakpoint that is removed after its first
// reported stop.
func (t *Table) AddTemporary(file string, line int, condition string) int {
	return t.add(file, line, condition, true)
}

func (t *Table) add(file string, line int, condition string, temporary bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	bp := &Breakpoint{
		ID:        t.nextID,
		File:      file,
		Line:      line,
		Enabled:   true,
		Condition: condition,
		Temporary: temporary,
	}
	t.nextID++

	t.byID[bp.ID] = bp
	loc := location{file, line}
	t.byLoc[loc] = append(t.byLoc[loc], bp)
	return bp.ID
}

// Remove deletes a breakpoint.
func (t *Table) Remove(id int) (Breakpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bp, ok := t.byID[id]
	if !ok {
		return Breakpoint{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	delete(t.byID, id)

	loc := location{bp.File, bp.Line}
	entries := t.byLoc[loc]
	for i, e := range entries {
		if e.ID == id {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(t.byLoc, loc)
	} else {
		t.byLoc[loc] = entries
	}
	return *bp, nil
}

// Clear deletes every breakpoint and returns them in creation order.
func (t *Table) Clear() []Breakpoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := t.snapshot()
	t.byID = make(map[int]*Breakpoint)
	t.byLoc = make(map[location][]*Breakpoint)
	return removed
}

// SetEnabled enables or disables a breakpoint. Condition and ignore count
// are left untouched.
func (t *Table) SetEnabled(id int, enabled bool) error {
	return t.update(id, func(bp *Breakpoint) {
		bp.Enabled = enabled
	})
}

// SetCondition replaces the condition; an empty expression removes it.
func (t *Table) SetCondition(id int, expr string) error {
	return t.update(id, func(bp *Breakpoint) {
		bp.Condition = expr
	})
}

// SetIgnore sets the ignore count. Negative counts are treated as zero.
func (t *Table) SetIgnore(id int, count int) error {
	if count < 0 {
		count = 0
	}
	return t.update(id, func(bp *Breakpoint) {
		bp.Ignore = count
	})
}

func (t *Table) update(id int, fn func(*Breakpoint)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	bp, ok := t.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	fn(bp)
	return nil
}

// Get returns a copy of the breakpoint with id.
func (t *Table) Get(id int) (Breakpoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bp, ok := t.byID[id]
	if !ok {
		return Breakpoint{}, false
	}
	return *bp, true
}

// List returns copies of all breakpoints ordered by id.
func (t *Table) List() []Breakpoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot()
}

// snapshot copies every breakpoint ordered by id. The caller holds t.mu.
func (t *Table) snapshot() []Breakpoint {
	out := make([]Breakpoint, 0, len(t.byID))
	for _, bp := range t.byID {
		out = append(out, *bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// At returns copies of the breakpoints at a location, ordered by id.
func (t *Table) At(file string, line int) []Breakpoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.byLoc[location{file, line}]
	out := make([]Breakpoint, len(entries))
	for i, bp := range entries {
		out[i] = *bp
	}
	return out
}

// Lines returns the distinct lines of file that carry at least one enabled
// breakpoint, sorted ascending. This is what the trace runtime is told.
func (t *Table) Lines(file string) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var lines []int
	for loc, entries := range t.byLoc {
		if loc.file != file {
			continue
		}
		for _, bp := range entries {
			if bp.Enabled {
				lines = append(lines, loc.line)
				break
			}
		}
	}
	sort.Ints(lines)
	return lines
}

// Files returns every file that has breakpoints, sorted.
func (t *Table) Files() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]bool)
	var files []string
	for loc := range t.byLoc {
		if !seen[loc.file] {
			seen[loc.file] = true
			files = append(files, loc.file)
		}
	}
	sort.Strings(files)
	return files
}
