package command

const undefinedValue = "<undefined>"

type display struct {
	expr  string
	value string
}

// Displays holds the expressions shown on every stop.
type Displays struct {
	items []*display
}

// Add registers expr with its current value. It returns false when expr is
// already displayed.
func (d *Displays) Add(expr, value string) bool {
	for _, it := range d.items {
		if it.expr == expr {
			return false
		}
	}
	d.items = append(d.items, &display{expr: expr, value: value})
	return true
}

// Remove drops expr and reports whether it was displayed.
func (d *Displays) Remove(expr string) bool {
	for i, it := range d.items {
		if it.expr == expr {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every expression.
func (d *Displays) Clear() {
	d.items = nil
}

// Len returns the number of expressions.
func (d *Displays) Len() int {
	return len(d.items)
}

// Exprs returns the expressions in the order they were added.
func (d *Displays) Exprs() []string {
	out := make([]string, len(d.items))
	for i, it := range d.items {
		out[i] = it.expr
	}
	return out
}

// Update re-evaluates every expression and returns "expr: old --> new" for
// those whose value changed. Failed evaluations read as <undefined>.
func (d *Displays) Update(eval func(expr string) (string, error)) []string {
	var changed []string
	for _, it := range d.items {
		v, err := eval(it.expr)
		if err != nil {
			v = undefinedValue
		}
		if v == it.value {
			continue
		}
		changed = append(changed, it.expr+": "+it.value+" --> "+v)
		it.value = v
	}
	return changed
}

// Listing is the cursor of consecutive list commands.
type Listing struct {
	File string
	// Next is the first line the next bare list shows, 0 when the listing
	// should start around the current line.
	Next int
}

// Reset makes the next list start around the current line again.
func (l *Listing) Reset() {
	l.File = ""
	l.Next = 0
}
