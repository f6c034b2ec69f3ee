package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/solidscope/vm"
)

var here = vm.Location{File: "test.scad", Line: 1, Col: 1}

// newTestSession returns a session whose builtin root frame is entered for
// the duration of the test. Teardown fails the test if anything leaked.
func newTestSession(t *testing.T) (*Session, *Frame) {
	t.Helper()
	s := NewSession(t.TempDir())
	h := Enter(NewBuiltinFrame(s))
	t.Cleanup(func() {
		h.Close()
		s.Close()
	})
	return s, h.Frame()
}

func mustParamList(t *testing.T, src string) []vm.Param {
	t.Helper()
	p, err := vm.ParseParams("test", src)
	require.NoError(t, err)
	return p
}

func mustExpr(t *testing.T, src string) *FunctionDef {
	t.Helper()
	e, err := vm.ParseExpr("test", src)
	require.NoError(t, err)
	return &FunctionDef{Body: e}
}

func mustFunction(t *testing.T, name, params, body string) *FunctionDef {
	t.Helper()
	d := mustExpr(t, body)
	d.Name = name
	d.Params = mustParamList(t, params)
	return d
}

func mustInstantiation(t *testing.T, src string) *Instantiation {
	t.Helper()
	inst, err := ParseInstantiation("test", src)
	require.NoError(t, err)
	return inst
}

func mustEval(t *testing.T, f *Frame, src string) vm.Value {
	t.Helper()
	v, err := EvalString(f, "test", src)
	require.NoError(t, err)
	return v
}
