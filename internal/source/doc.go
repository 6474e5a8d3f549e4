// Package source loads and memoizes the source text of debugged files.
//
// A Cache entry is keyed by path and revalidated against the file's size and
// modification time, so an edit made through the `edit` command is picked up
// at the next stop. Sources that do not live on disk (scripts passed on
// stdin, evaluated snippets) can be registered directly.
package source
