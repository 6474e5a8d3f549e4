// Package sticky renders the full-screen source view shown at every stop
// while sticky mode is on.
//
// The Renderer keeps a RenderFrame: the window it last painted and a
// fingerprint of every painted line, keyed by absolute line number. A render
// compares the lines the new stop needs against that memo and reports only
// the lines whose text or markers changed. Moving the current-line marker
// inside an unchanged window therefore yields exactly two lines: the old
// marker line and the new one.
//
// The window stays put while the current line remains inside it. Changing
// file, leaving the window, resizing the terminal or forcing a repaint
// invalidates the memo wholesale and produces a full repaint, because the
// rows of every line move.
package sticky
