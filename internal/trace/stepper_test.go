package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepper(t *testing.T) {
	tests := []struct {
		name  string
		d     Directive
		file  string
		line  int
		depth int
		atBP  bool
		want  StopKind
		stop  bool
	}{
		{"step same frame", Directive{Kind: StepInto}, "a", 6, 2, false, StopLine, true},
		{"step into call", Directive{Kind: StepInto}, "a", 20, 3, false, StopCall, true},
		{"step out of frame", Directive{Kind: StepInto}, "a", 30, 1, false, StopReturn, true},
		{"next skips callee", Directive{Kind: StepOver}, "a", 20, 3, false, 0, false},
		{"next callee breakpoint", Directive{Kind: StepOver}, "a", 20, 3, true, StopBreakpoint, true},
		{"next same frame", Directive{Kind: StepOver}, "a", 6, 2, false, StopLine, true},
		{"return waits", Directive{Kind: RunUntilReturn}, "a", 6, 2, false, 0, false},
		{"return in caller", Directive{Kind: RunUntilReturn}, "a", 31, 1, false, StopReturn, true},
		{"continue plain line", Directive{Kind: Continue}, "a", 6, 2, false, 0, false},
		{"continue breakpoint", Directive{Kind: Continue}, "a", 6, 2, true, StopBreakpoint, true},
		{"until below target", Directive{Kind: ContinueUntil, Line: 9}, "a", 8, 2, false, 0, false},
		{"until at target", Directive{Kind: ContinueUntil, Line: 9}, "a", 10, 2, false, StopLine, true},
		{"until deeper ignored", Directive{Kind: ContinueUntil, Line: 9}, "a", 12, 3, false, 0, false},
		{"until frame returns", Directive{Kind: ContinueUntil, Line: 9}, "a", 2, 1, false, StopReturn, true},
		{"exact until any depth", Directive{Kind: ContinueUntil, File: "b", Line: 4, Exact: true}, "b", 4, 5, false, StopLine, true},
		{"exact until elsewhere", Directive{Kind: ContinueUntil, File: "b", Line: 4, Exact: true}, "a", 4, 2, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Stepper
			s.Begin(tt.d, "a", 5, 2)
			kind, stop := s.Step(tt.file, tt.line, tt.depth, tt.atBP)
			assert.Equal(t, tt.stop, stop)
			if tt.stop {
				assert.Equal(t, tt.want, kind)
			}
		})
	}
}

func TestStepperReissueKeepsAnchor(t *testing.T) {
	var s Stepper
	s.Begin(Directive{Kind: StepOver}, "a", 5, 2)
	s.Begin(Directive{Kind: StepOver, Reissue: true}, "a", 20, 3)

	_, stop := s.Step("a", 21, 3, false)
	assert.False(t, stop)
	kind, stop := s.Step("a", 6, 2, false)
	assert.True(t, stop)
	assert.Equal(t, StopLine, kind)
}
