// Package history persists the command history between runs.
//
// The file holds one JSON object per line. Saving appends the lines
// entered since the last load to whatever the file holds now, so two
// debuggers sharing a history file do not lose each other's entries.
package history
