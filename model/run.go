package model

import (
	"fmt"
	"strings"

	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
	"go.starlark.net/syntax"
)

// Statement is a parsed top-level echo, kept with its source for
// diagnostics.
type Statement struct {
	Src  string
	Expr syntax.Expr
}

func parseAssignments(file string, srcs []string) ([]interp.Assignment, error) {
	var out []interp.Assignment
	for _, src := range srcs {
		name, e, err := vm.ParseAssignment(file, src)
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %w", src, err)
		}
		out = append(out, interp.Assignment{Name: name, Expr: e, Loc: vm.ExprLocation(file, e)})
	}
	return out, nil
}

func parseEchoes(file string, srcs []string) ([]Statement, error) {
	var out []Statement
	for _, src := range srcs {
		e, err := vm.ParseExpr(file, src)
		if err != nil {
			return nil, fmt.Errorf("echo %q: %w", src, err)
		}
		out = append(out, Statement{Src: src, Expr: e})
	}
	return out, nil
}

func parseInstantiations(file string, srcs []string) ([]*interp.Instantiation, error) {
	var out []*interp.Instantiation
	for _, src := range srcs {
		inst, err := interp.ParseInstantiation(file, src)
		if err != nil {
			return nil, fmt.Errorf("instantiation %q: %w", src, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// assign evaluates a in f and binds the result, $-names as config variables.
func assign(f *interp.Frame, a interp.Assignment) error {
	v, err := interp.Eval(f, a.Expr)
	if err != nil {
		return err
	}
	if vm.IsSpecial(a.Name) {
		f.SetConfigVariable(a.Name, v)
	} else {
		f.SetVariable(a.Name, v)
	}
	return nil
}

// applyDefines evaluates name=expr overrides in a scratch frame nested in
// file, then copies the scratch frame's local bindings onto file.
func applyDefines(file *interp.Frame, defines []string) error {
	if len(defines) == 0 {
		return nil
	}
	h := interp.Enter(interp.NewFrame(file))
	defer h.Close()
	scratch := h.Frame()
	scratch.Name = "defines"
	for _, d := range defines {
		name, e, err := vm.ParseAssignment("<define>", d)
		if err != nil {
			return fmt.Errorf("define %q: %w", d, err)
		}
		if err := assign(scratch, interp.Assignment{Name: name, Expr: e}); err != nil {
			return fmt.Errorf("define %q: %w", d, err)
		}
	}
	file.ApplyFrameVariables(scratch)
	file.ApplyConfigVariables(scratch)
	return nil
}

// Exec runs one interactive statement against the file frame: an
// assignment, a module instantiation or an expression. It returns the text
// to show for it.
func (e *Executor) Exec(src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}
	file := e.File()
	if name, expr, err := vm.ParseAssignment("<repl>", src); err == nil {
		if err := assign(file, interp.Assignment{Name: name, Expr: expr}); err != nil {
			return "", err
		}
		v := file.LookupLocalConfigVariable(name)
		if !vm.IsSpecial(name) {
			v, _ = file.LookupVariable(name, true, vm.NoLocation)
		}
		return fmt.Sprintf("%s = %s", name, vm.FormatValue(v)), nil
	}
	if inst, err := interp.ParseInstantiation("<repl>", src); err == nil && e.isModule(inst.Name) {
		node, err := inst.Instantiate(file)
		if err != nil {
			return "", err
		}
		e.result.Nodes = append(e.result.Nodes, node)
		return strings.TrimRight(FormatNode(node), "\n"), nil
	}
	v, err := interp.EvalString(file, "<repl>", src)
	if err != nil {
		return "", err
	}
	return vm.FormatValue(v), nil
}

// isModule reports whether name resolves to a module and not a function.
func (e *Executor) isModule(name string) bool {
	file := e.File()
	if _, err := file.LookupFunction(name, vm.NoLocation); err == nil {
		return false
	}
	_, err := file.LookupModule(name, vm.NoLocation)
	return err == nil
}
