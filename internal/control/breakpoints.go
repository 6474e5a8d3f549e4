package control

import (
	"context"

	"github.com/dshills/perch/internal/breakpoint"
)

// AddBreakpoint creates a breakpoint and tells the runtime about it.
func (c *Controller) AddBreakpoint(ctx context.Context, file string, line int, condition string, temporary bool) (breakpoint.Breakpoint, error) {
	var id int
	if temporary {
		id = c.table.AddTemporary(file, line, condition)
	} else {
		id = c.table.Add(file, line, condition)
	}
	bp, _ := c.table.Get(id)
	return bp, c.sync(ctx, file)
}

// RemoveBreakpoint deletes a breakpoint.
func (c *Controller) RemoveBreakpoint(ctx context.Context, id int) (breakpoint.Breakpoint, error) {
	bp, err := c.table.Remove(id)
	if err != nil {
		return bp, err
	}
	return bp, c.sync(ctx, bp.File)
}

// ClearBreakpoints deletes every breakpoint.
func (c *Controller) ClearBreakpoints(ctx context.Context) ([]breakpoint.Breakpoint, error) {
	removed := c.table.Clear()
	files := make(map[string]bool)
	var firstErr error
	for _, bp := range removed {
		if files[bp.File] {
			continue
		}
		files[bp.File] = true
		if err := c.sync(ctx, bp.File); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return removed, firstErr
}

// SetBreakpointEnabled enables or disables a breakpoint.
func (c *Controller) SetBreakpointEnabled(ctx context.Context, id int, enabled bool) error {
	if err := c.table.SetEnabled(id, enabled); err != nil {
		return err
	}
	bp, _ := c.table.Get(id)
	return c.sync(ctx, bp.File)
}

// SetBreakpointCondition replaces a breakpoint's condition.
func (c *Controller) SetBreakpointCondition(id int, expr string) error {
	return c.table.SetCondition(id, expr)
}

// SetBreakpointIgnore sets a breakpoint's ignore count.
func (c *Controller) SetBreakpointIgnore(id int, count int) error {
	return c.table.SetIgnore(id, count)
}

// sync pushes the enabled breakpoint lines of file to the runtime.
func (c *Controller) sync(ctx context.Context, file string) error {
	lines := c.table.Lines(file)
	if err := c.rt.SetBreakpoints(ctx, file, lines); err != nil {
		c.logger.Warn().Err(err).Str("file", file).Msg("sync breakpoints")
		return err
	}
	return nil
}
