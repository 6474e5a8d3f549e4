package breakpoint

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func always(string) (bool, error) { return true, nil }

func TestTableAddListOrder(t *testing.T) {
	tbl := NewTable()
	a := tbl.Add("b.star", 3, "")
	b := tbl.Add("a.star", 10, "x > 1")
	c := tbl.Add("a.star", 10, "")

	assert.Equal(t, []int{1, 2, 3}, []int{a, b, c})

	list := tbl.List()
	require.Len(t, list, 3)
	for i, bp := range list {
		assert.Equal(t, i+1, bp.ID)
		assert.True(t, bp.Enabled)
	}
	assert.Len(t, tbl.At("a.star", 10), 2)
	assert.Equal(t, []int{10}, tbl.Lines("a.star"))
	assert.Equal(t, []string{"a.star", "b.star"}, tbl.Files())
}

func TestTableRemove(t *testing.T) {
	tbl := NewTable()
	id := tbl.Add("a.star", 1, "")
	tbl.Add("a.star", 1, "")

	bp, err := tbl.Remove(id)
	require.NoError(t, err)
	assert.Equal(t, "a.star:1", bp.Location())
	assert.Len(t, tbl.At("a.star", 1), 1)

	_, err = tbl.Remove(id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, tbl.Clear(), 1)
	assert.Empty(t, tbl.List())
	assert.Equal(t, 3, tbl.Add("a.star", 2, ""), "ids are never reused")
}

func TestTableClearConcurrentAdd(t *testing.T) {
	tbl := NewTable()
	const adds = 200

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		cleared = make(map[int]bool)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < adds; i++ {
			tbl.Add("a.star", i+1, "")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < adds/4; i++ {
			for _, bp := range tbl.Clear() {
				mu.Lock()
				cleared[bp.ID] = true
				mu.Unlock()
			}
		}
	}()
	wg.Wait()

	for _, bp := range tbl.List() {
		assert.False(t, cleared[bp.ID], "breakpoint %d both cleared and kept", bp.ID)
		cleared[bp.ID] = true
	}
	for id := 1; id <= adds; id++ {
		assert.True(t, cleared[id], "breakpoint %d dropped without being reported", id)
	}
}

func TestTableIgnoreCount(t *testing.T) {
	tbl := NewTable()
	id := tbl.Add("a.star", 5, "")
	require.NoError(t, tbl.SetIgnore(id, 2))

	for i := 1; i <= 2; i++ {
		m := tbl.Check("a.star", 5, always)
		assert.True(t, m.Matched)
		assert.Nil(t, m.Stop, "hit %d should be ignored", i)
		bp, _ := tbl.Get(id)
		assert.Equal(t, i, bp.Hits)
	}

	m := tbl.Check("a.star", 5, always)
	require.NotNil(t, m.Stop)
	assert.Equal(t, id, m.Stop.ID)
	assert.Equal(t, 3, m.Stop.Hits)
}

func TestTableDisableKeepsState(t *testing.T) {
	tbl := NewTable()
	id := tbl.Add("a.star", 5, "x")
	require.NoError(t, tbl.SetIgnore(id, 4))
	require.NoError(t, tbl.SetEnabled(id, false))

	m := tbl.Check("a.star", 5, always)
	assert.False(t, m.Matched)
	assert.Nil(t, m.Stop)
	assert.Empty(t, tbl.Lines("a.star"))

	require.NoError(t, tbl.SetEnabled(id, true))
	bp, _ := tbl.Get(id)
	assert.Equal(t, "x", bp.Condition)
	assert.Equal(t, 4, bp.Ignore)
	assert.Equal(t, 0, bp.Hits)
}

func TestTableConditions(t *testing.T) {
	tbl := NewTable()
	failing := tbl.Add("a.star", 7, "boom()")
	falsy := tbl.Add("a.star", 7, "False")
	truthy := tbl.Add("a.star", 7, "True")

	eval := func(expr string) (bool, error) {
		switch expr {
		case "boom()":
			return false, errors.New("name boom is not defined")
		case "True":
			return true, nil
		}
		return false, nil
	}

	m := tbl.Check("a.star", 7, eval)
	require.NotNil(t, m.Stop)
	assert.Equal(t, truthy, m.Stop.ID)
	require.Len(t, m.Warnings, 1)

	var ce *ConditionError
	require.ErrorAs(t, m.Warnings[0], &ce)
	assert.Equal(t, failing, ce.ID)

	bp, _ := tbl.Get(falsy)
	assert.Equal(t, 0, bp.Hits)
}

func TestTableUnknownID(t *testing.T) {
	tbl := NewTable()
	assert.ErrorIs(t, tbl.SetEnabled(9, true), ErrNotFound)
	assert.ErrorIs(t, tbl.SetCondition(9, "x"), ErrNotFound)
	assert.ErrorIs(t, tbl.SetIgnore(9, 1), ErrNotFound)
}

func TestDescribe(t *testing.T) {
	bp := Breakpoint{ID: 2, File: "a.star", Line: 4, Enabled: true, Condition: "x", Hits: 1}
	assert.Equal(t, "2    breakpoint   keep  yes   at a.star:4\n\tstop only if x\n\tbreakpoint already hit 1 time", bp.Describe())
}
