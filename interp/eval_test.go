package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/solidscope/vm"
)

func TestEvalExpressions(t *testing.T) {
	_, builtins := newTestSession(t)
	h := Enter(NewFrame(builtins))
	defer h.Close()
	f := h.Frame()
	f.SetVariable("v", vm.VectorValue{vm.NumberValue(1), vm.NumberValue(2), vm.NumberValue(3)})
	f.SetVariable("s", vm.StrValue("abc"))

	tests := []struct {
		src  string
		want vm.Value
	}{
		{"1 + 2 * 3", vm.NumberValue(7)},
		{"7 % 4", vm.NumberValue(3)},
		{"-v", vm.VectorValue{vm.NumberValue(-1), vm.NumberValue(-2), vm.NumberValue(-3)}},
		{"v * 2", vm.VectorValue{vm.NumberValue(2), vm.NumberValue(4), vm.NumberValue(6)}},
		{"v + [1, 1, 1]", vm.VectorValue{vm.NumberValue(2), vm.NumberValue(3), vm.NumberValue(4)}},
		{"v[1]", vm.NumberValue(2)},
		{"v[9]", vm.Undef},
		{"s[0]", vm.StrValue("a")},
		{`"a" < "b"`, vm.BoolTrue},
		{"1 < 2 and 2 < 1", vm.BoolFalse},
		{"true or nothing_here", vm.BoolTrue},
		{"not undef", vm.BoolTrue},
		{"1 == 1.0", vm.BoolTrue},
		{"[1, [2]] == [1, [2]]", vm.BoolTrue},
		{`"x" if len(s) == 3 else "y"`, vm.StrValue("x")},
		{"1 + true", vm.Undef},
		{"max(v)", vm.NumberValue(3)},
		{"min(4, 2, 8)", vm.NumberValue(2)},
		{"concat(v, [4])", vm.VectorValue{vm.NumberValue(1), vm.NumberValue(2), vm.NumberValue(3), vm.NumberValue(4)}},
		{"[x * x for x in v if x != 2]", vm.VectorValue{vm.NumberValue(1), vm.NumberValue(9)}},
		{"[x for x in range(0, 2, 4)]", vm.VectorValue{vm.NumberValue(0), vm.NumberValue(2), vm.NumberValue(4)}},
		{"[[a, b] for a in [1, 2] for b in [a]]", vm.VectorValue{
			vm.VectorValue{vm.NumberValue(1), vm.NumberValue(1)},
			vm.VectorValue{vm.NumberValue(2), vm.NumberValue(2)},
		}},
		{"is_undef(nothing_here)", vm.BoolTrue},
		{"is_undef(s)", vm.BoolFalse},
		{"is_undef($nothing)", vm.BoolTrue},
		{"(lambda x, y=10: x + y)(1)", vm.NumberValue(11)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := EvalString(f, "test", tt.src)
			require.NoError(t, err)
			assert.True(t, vm.Equal(tt.want, v), "got %s", vm.FormatValue(v))
		})
	}
}

func TestEvalErrors(t *testing.T) {
	s, builtins := newTestSession(t)
	h := Enter(NewFrame(builtins))
	defer h.Close()
	f := h.Frame()

	_, err := EvalString(f, "test", "missing + 1")
	assert.ErrorIs(t, err, ErrUndefinedVariable)
	_, err = EvalString(f, "test", "nofunc(1)")
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	_, err = EvalString(f, "test", "$nope")
	assert.ErrorIs(t, err, ErrUndefinedVariable)
	_, err = EvalString(f, "test", "[missing for x in [1, 2, 3]]")
	assert.ErrorIs(t, err, ErrUndefinedVariable)
	assert.Equal(t, 2, s.Depth(), "comprehension frames unwound")
	_, err = EvalString(f, "test", "{1: 2}")
	assert.Error(t, err)
	_, err = EvalString(f, "test", "[x for x in undef]")
	assert.ErrorContains(t, err, "cannot iterate over undefined")
	assert.Equal(t, 2, s.Depth())
}

func TestRangeExpansionIsBounded(t *testing.T) {
	_, builtins := newTestSession(t)
	h := Enter(NewFrame(builtins))
	defer h.Close()
	f := h.Frame()

	n, err := EvalString(f, "test", "len(range(1e17, 1, 1e17 + 1000))")
	require.NoError(t, err)
	assert.InDelta(t, 1001, float64(n.(vm.NumberValue)), 16)

	_, err = EvalString(f, "test", "len(range(0, 1/0))")
	assert.ErrorContains(t, err, "Bad range parameter")
	_, err = EvalString(f, "test", "[x for x in range(0, 1e9)]")
	assert.ErrorContains(t, err, "Bad range parameter")
}

func TestScalarIteratesOnce(t *testing.T) {
	_, builtins := newTestSession(t)
	h := Enter(NewFrame(builtins))
	defer h.Close()
	f := h.Frame()

	assert.Equal(t, vm.VectorValue{vm.NumberValue(5)}, mustEval(t, f, "[x for x in 5]"))
	assert.Equal(t, vm.VectorValue{vm.BoolTrue}, mustEval(t, f, "[x for x in true]"))
	assert.Equal(t, vm.NumberValue(1e20), mustEval(t, f, "99999999999999999999 + 1"))
}

func TestComprehensionRebindsOneHandle(t *testing.T) {
	s, builtins := newTestSession(t)
	h := Enter(NewFrame(builtins))
	defer h.Close()
	f := h.Frame()

	var depths []vm.Value
	probe := &vm.Builtin{Name: "depth", Impl: func(args []vm.Value) (vm.Value, error) {
		d := vm.NumberValue(s.Depth())
		depths = append(depths, d)
		return d, nil
	}}
	f.SetVariable("depth", vm.FunctionValue{Name: "depth", Fn: probe})

	mustEval(t, f, "[depth() for x in [1, 2, 3, 4]]")
	assert.Equal(t, []vm.Value{vm.NumberValue(3), vm.NumberValue(3), vm.NumberValue(3), vm.NumberValue(3)}, depths)
	assert.Equal(t, 2, s.Depth())
}

func TestLambdaClosure(t *testing.T) {
	s, builtins := newTestSession(t)
	defs := NewDefinitions()
	defs.Functions["adder"] = mustFunction(t, "adder", "n", "lambda x: x + n")
	h := Enter(NewFileFrame(builtins, defs))
	defer h.Close()
	file := h.Frame()

	add3, ok := mustEval(t, file, "adder(3)").(vm.FunctionValue)
	require.True(t, ok)
	require.Equal(t, 2, s.Depth(), "the creating call frame is gone")

	v, err := add3.Fn.Call([]vm.Arg{{Value: vm.NumberValue(4)}}, here)
	require.NoError(t, err)
	assert.Equal(t, vm.NumberValue(7), v)

	file.SetVariable("add3", add3)
	assert.Equal(t, vm.NumberValue(13), mustEval(t, file, "add3(10)"))
	assert.Equal(t, vm.NumberValue(8), mustEval(t, file, "adder(5)(3)"))
}

func TestSpecialVariablesAreDynamic(t *testing.T) {
	s, builtins := newTestSession(t)
	defs := NewDefinitions()
	defs.Functions["fn"] = mustFunction(t, "fn", "", "$fn")
	file := NewFileFrame(builtins, defs)
	file.SetConfigVariable("$fn", vm.NumberValue(0))
	h := Enter(file)
	defer h.Close()

	assert.Equal(t, vm.NumberValue(0), mustEval(t, file, "fn()"))

	caller := NewFrame(file)
	caller.SetConfigVariable("$fn", vm.NumberValue(12))
	ch := Enter(caller)
	// fn's lexical parent is the file frame, yet $fn comes from the caller
	assert.Equal(t, vm.NumberValue(12), mustEval(t, caller, "fn()"))
	ch.Close()

	assert.Equal(t, vm.NumberValue(0), mustEval(t, file, "fn()"))
	assert.Equal(t, 2, s.Depth())
}
