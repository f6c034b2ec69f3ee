package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/solidscope/vm"
	"go.starlark.net/syntax"
)

func mustAssignment(t *testing.T, src string) Assignment {
	t.Helper()
	name, e, err := vm.ParseAssignment("test", src)
	require.NoError(t, err)
	return Assignment{Name: name, Expr: e}
}

// newFile enters a file frame holding defs with the global config defaults.
func newFile(t *testing.T, defs *Definitions) (*Session, *Frame) {
	t.Helper()
	s, builtins := newTestSession(t)
	file := NewFileFrame(builtins, defs)
	file.SetConfigVariable("$fn", vm.NumberValue(0))
	file.SetConfigVariable("$fa", vm.NumberValue(12))
	file.SetConfigVariable("$fs", vm.NumberValue(2))
	h := Enter(file)
	t.Cleanup(h.Close)
	return s, file
}

func special(t *testing.T, n *Node, name string) vm.Value {
	t.Helper()
	v, ok := n.Special.Get(name)
	require.True(t, ok, "%s recorded on %s", name, n.Name)
	return v
}

func variable(t *testing.T, n *Node, name string) vm.Value {
	t.Helper()
	v, ok := n.Variables.Get(name)
	require.True(t, ok, "%s bound on %s", name, n.Name)
	return v
}

func TestBuiltinModules(t *testing.T) {
	_, file := newFile(t, NewDefinitions())

	tests := []struct {
		src  string
		want map[string]vm.Value
	}{
		{"cube()", map[string]vm.Value{"size": vm.NumberValue(1), "center": vm.BoolFalse}},
		{"cube(3, center=true)", map[string]vm.Value{"size": vm.NumberValue(3), "center": vm.BoolTrue}},
		{"cube([1, 2, 3])", map[string]vm.Value{"size": vm.VectorValue{vm.NumberValue(1), vm.NumberValue(2), vm.NumberValue(3)}}},
		{`cube("big")`, map[string]vm.Value{"size": vm.NumberValue(1)}},
		{"sphere(2)", map[string]vm.Value{"r": vm.NumberValue(2)}},
		{"sphere(d=10)", map[string]vm.Value{"r": vm.NumberValue(5)}},
		{"cylinder(h=4, r=2)", map[string]vm.Value{"h": vm.NumberValue(4), "r1": vm.NumberValue(2), "r2": vm.NumberValue(2)}},
		{"cylinder(r1=1, r2=3)", map[string]vm.Value{"r1": vm.NumberValue(1), "r2": vm.NumberValue(3)}},
		{`text("hi")`, map[string]vm.Value{"text": vm.StrValue("hi"), "size": vm.NumberValue(10), "font": vm.StrValue("Liberation Sans")}},
		{"text(42)", map[string]vm.Value{"text": vm.StrValue("")}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := mustInstantiation(t, tt.src).Instantiate(file)
			require.NoError(t, err)
			for k, v := range tt.want {
				assert.Equal(t, v, variable(t, n, k), k)
			}
			assert.Equal(t, vm.NumberValue(0), special(t, n, "$fn"))
		})
	}
}

func TestBuiltinOptionalIgnoresCaller(t *testing.T) {
	_, file := newFile(t, NewDefinitions())
	file.SetVariable("d", vm.NumberValue(100))

	n, err := mustInstantiation(t, "sphere(3)").Instantiate(file)
	require.NoError(t, err)
	assert.Equal(t, vm.NumberValue(3), variable(t, n, "r"))
}

func TestUserModuleSpecialScope(t *testing.T) {
	defs := NewDefinitions()
	defs.Modules["box"] = &ModuleDef{
		Name:     "box",
		Params:   mustParamList(t, "size=1"),
		Children: []*Instantiation{mustInstantiation(t, "cube(size)"), mustInstantiation(t, "sphere()")},
		Defs:     NewDefinitions(),
	}
	s, file := newFile(t, defs)

	n, err := mustInstantiation(t, "box(4, $fn=8)").Instantiate(file)
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.Equal(t, vm.NumberValue(8), special(t, n, "$fn"))
	assert.Equal(t, vm.NumberValue(2), special(t, n, "$children"))
	assert.False(t, n.Variables.Has("$fn"))
	assert.Equal(t, vm.NumberValue(4), variable(t, n.Children[0], "size"))
	for _, c := range n.Children {
		assert.Equal(t, vm.NumberValue(8), special(t, c, "$fn"), c.Name)
		assert.Equal(t, vm.NumberValue(12), special(t, c, "$fa"), c.Name)
	}

	top, err := mustInstantiation(t, "cube()").Instantiate(file)
	require.NoError(t, err)
	assert.Equal(t, vm.NumberValue(0), special(t, top, "$fn"), "override does not outlive the instantiation")
	assert.Equal(t, 2, s.Depth())
}

func TestUserModuleAssignmentsAndEcho(t *testing.T) {
	defs := NewDefinitions()
	defs.Modules["ring"] = &ModuleDef{
		Name:   "ring",
		Params: mustParamList(t, "r"),
		Assignments: []Assignment{
			mustAssignment(t, "d = r * 2"),
			mustAssignment(t, "$fs = 0.5"),
		},
		Echoes:   []syntax.Expr{mustExpr(t, `str("d=", d, " fs=", $fs)`).Body},
		Children: []*Instantiation{mustInstantiation(t, "cylinder(d=d)")},
		Defs:     NewDefinitions(),
	}
	s, file := newFile(t, defs)
	var echoed []string
	s.Echo = func(msg string) { echoed = append(echoed, msg) }

	n, err := mustInstantiation(t, "ring(3)").Instantiate(file)
	require.NoError(t, err)
	assert.Equal(t, []string{`"d=6 fs=0.5"`}, echoed)
	assert.Equal(t, []string{"r", "d"}, n.Variables.Keys())
	assert.Equal(t, vm.NumberValue(0.5), special(t, n, "$fs"))
	assert.Equal(t, vm.NumberValue(3), variable(t, n.Children[0], "r1"))
	assert.Equal(t, vm.NumberValue(0.5), special(t, n.Children[0], "$fs"))
}

func TestModuleNestedDefinitions(t *testing.T) {
	inner := NewDefinitions()
	inner.Functions["half"] = mustFunction(t, "half", "x", "x / 2 + bias")
	inner.Modules["peg"] = &ModuleDef{
		Name:     "peg",
		Children: []*Instantiation{mustInstantiation(t, "cylinder(r=half(w))")},
		Defs:     NewDefinitions(),
	}
	defs := NewDefinitions()
	defs.Modules["board"] = &ModuleDef{
		Name:        "board",
		Params:      mustParamList(t, "w=10"),
		Assignments: []Assignment{mustAssignment(t, "bias = 1")},
		Children:    []*Instantiation{mustInstantiation(t, "peg()")},
		Defs:        inner,
	}
	s, file := newFile(t, defs)

	n, err := mustInstantiation(t, "board(w=8)").Instantiate(file)
	require.NoError(t, err)
	require.Len(t, n.Children, 1)
	peg := n.Children[0]
	require.Len(t, peg.Children, 1)
	// peg and half are defined in board, so w and bias resolve lexically
	assert.Equal(t, vm.NumberValue(5), variable(t, peg.Children[0], "r1"))
	assert.Equal(t, vm.NumberValue(1), special(t, peg, "$children"))

	_, err = mustInstantiation(t, "peg()").Instantiate(file)
	assert.ErrorIs(t, err, ErrModuleNotFound, "nested modules stay private to their definer")
	_, err = EvalString(file, "test", "half(2)")
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	assert.Equal(t, 2, s.Depth())
}

func TestModuleRecursionLimit(t *testing.T) {
	defs := NewDefinitions()
	defs.Modules["tower"] = &ModuleDef{
		Name:     "tower",
		Children: []*Instantiation{mustInstantiation(t, "tower()")},
		Defs:     NewDefinitions(),
	}
	s, file := newFile(t, defs)
	s.MaxDepth = 32

	_, err := mustInstantiation(t, "tower()").Instantiate(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Recursion detected calling module 'tower'")
	assert.Equal(t, 2, s.Depth())
}
