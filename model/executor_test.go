package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
)

func newExecutor(t *testing.T, content string) *Executor {
	t.Helper()
	path := writeFile(t, t.TempDir(), "run.toml", content)
	s, err := LoadSpecFromFile(path)
	require.NoError(t, err)
	e, err := s.BuildExecutor()
	require.NoError(t, err)
	return e
}

func nodeVar(t *testing.T, n *interp.Node, m string, name string) vm.Value {
	t.Helper()
	src := n.Variables
	if m == "special" {
		src = n.Special
	}
	v, ok := src.Get(name)
	require.True(t, ok, "%s on %s", name, n.Name)
	return v
}

func TestRunModel(t *testing.T) {
	e := newExecutor(t, boxSpec)
	var out bytes.Buffer
	e.Reporter = &ColorReporter{Writer: &out}
	require.NoError(t, e.Initialize())
	defer e.Close()

	r, err := e.RunModel()
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, []string{"8", `"fn=8"`}, r.Echoes)
	assert.Contains(t, out.String(), "ECHO: 8")

	require.Len(t, r.Nodes, 2)
	first := r.Nodes[0]
	assert.Equal(t, "box", first.Name)
	assert.Equal(t, vm.NumberValue(4), nodeVar(t, first, "vars", "size"))
	assert.Equal(t, vm.NumberValue(8), nodeVar(t, first, "vars", "inner"))
	require.Len(t, first.Children, 2)
	cube := first.Children[0]
	assert.Equal(t, vm.NumberValue(8), nodeVar(t, cube, "vars", "size"))
	assert.Equal(t, vm.NumberValue(8), nodeVar(t, cube, "special", "$fn"))
	assert.Equal(t, vm.NumberValue(6), nodeVar(t, cube, "special", "$fa"), "top-level $ assignment")
	pin := first.Children[1]
	require.Len(t, pin.Children, 1)
	assert.Equal(t, vm.NumberValue(1), nodeVar(t, pin.Children[0], "vars", "r1"))

	second := r.Nodes[1]
	assert.Equal(t, vm.NumberValue(16), nodeVar(t, second, "special", "$fn"))
	assert.Equal(t, vm.NumberValue(16), nodeVar(t, second.Children[0], "special", "$fn"))

	assert.Equal(t, 8, r.Statistics.Nodes)
	assert.Equal(t, 6, r.Statistics.Statements)
	assert.Equal(t, 2, e.Session.Depth(), "builtin and file frames stay entered until Close")
}

const failingSpec = `
[spec]
echo = ["missing", "1 + 1"]
instantiate = ["nothing()", "cube(2)"]
`

func TestRunModelStopsAtFirstFailure(t *testing.T) {
	e := newExecutor(t, failingSpec)
	require.NoError(t, e.Initialize())
	defer e.Close()

	r, err := e.RunModel()
	require.Error(t, err)
	assert.ErrorIs(t, err, interp.ErrUndefinedVariable)
	assert.False(t, r.Success)
	assert.Empty(t, r.Echoes)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, "missing", r.Diagnostics[0].Statement)
	assert.Equal(t, 2, e.Session.Depth())
}

func TestRunModelKeepGoing(t *testing.T) {
	e := newExecutor(t, failingSpec)
	e.KeepGoing = true
	require.NoError(t, e.Initialize())
	defer e.Close()

	r, err := e.RunModel()
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Equal(t, []string{"2"}, r.Echoes)
	require.Len(t, r.Diagnostics, 2)
	assert.ErrorIs(t, r.Diagnostics[1], interp.ErrModuleNotFound)
	assert.Equal(t, "nothing()", r.Diagnostics[1].Statement)
	require.Len(t, r.Nodes, 1)
	assert.Equal(t, "cube", r.Nodes[0].Name)
	assert.Contains(t, FormatDiagnostics(r.Diagnostics), "Ignoring unknown module 'nothing'")
}

func TestDefinesOverrideAssignments(t *testing.T) {
	e := newExecutor(t, `
[spec]
assign = ["w = 1", "h = 2"]
echo = ["[w, h, $fn]"]
`)
	e.Defines = []string{"w = h * 10", "$fn = 3"}
	require.NoError(t, e.Initialize())
	defer e.Close()

	r, err := e.RunModel()
	require.NoError(t, err)
	assert.Equal(t, []string{"[20, 2, 3]"}, r.Echoes)
	assert.Equal(t, []string{"w", "h"}, e.File().LocalVariables().Keys(), "overrides replace bindings in place")
}

func TestInitializeErrors(t *testing.T) {
	e := newExecutor(t, "[spec]\nassign = [\"w = nope\"]\n")
	err := e.Initialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, interp.ErrUndefinedVariable)
	e.Close()

	e = newExecutor(t, "[spec]\n")
	e.Defines = []string{"not a define"}
	require.Error(t, e.Initialize())
	e.Close()

	_, err = (&Executor{}).RunModel()
	assert.Error(t, err)
}

func TestTraceRecordsFrames(t *testing.T) {
	e := newExecutor(t, boxSpec)
	e.Trace = true
	require.NoError(t, e.Initialize())
	defer e.Close()

	r, err := e.RunModel()
	require.NoError(t, err)
	require.NoError(t, e.Recorder.Err())
	assert.Greater(t, r.Statistics.Snapshots, 8, "every module, builtin and call frame is recorded")

	trace := FormatTrace(e)
	assert.Contains(t, trace, "size=4")
	assert.Contains(t, trace, "$fn=16")
	assert.Equal(t, r.Statistics.Snapshots, len(e.Recorder.History()))
}

func TestExec(t *testing.T) {
	e := newExecutor(t, boxSpec)
	require.NoError(t, e.Initialize())
	defer e.Close()

	tests := []struct {
		src  string
		want string
	}{
		{"", ""},
		{"k = double(w)", "k = 8"},
		{"$fn = 64", "$fn = 64"},
		{"k + 1", "9"},
		{"[x for x in [1, 2]]", "[1, 2]"},
		{"(lambda x: x)", "<function>"},
	}
	for _, tt := range tests {
		out, err := e.Exec(tt.src)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, out, tt.src)
	}

	out, err := e.Exec("sphere(d=4)")
	require.NoError(t, err)
	assert.Contains(t, out, "r=2")
	assert.Contains(t, out, "$fn=64")

	_, err = e.Exec("nope + 1")
	assert.ErrorIs(t, err, interp.ErrUndefinedVariable)
	assert.Equal(t, 2, e.Session.Depth())
}

func TestLoadSpecPathInLocations(t *testing.T) {
	e := newExecutor(t, "[spec]\necho = [\"missing\"]\n")
	require.NoError(t, e.Initialize())
	defer e.Close()
	_, err := e.RunModel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Base(e.Spec.Path)+":1:1")
}
