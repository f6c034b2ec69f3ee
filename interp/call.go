package interp

import (
	"fmt"

	"github.com/timewinder-dev/solidscope/vm"
)

// SetVariables binds call-time arguments to declared parameters. Each
// parameter takes, in order of preference, a same-named argument, the next
// unconsumed positional argument, its default expression evaluated in f
// itself, or vm.Undef. Optional parameters only bind by name or default and
// stay unbound otherwise. Unmatched arguments are ignored, except that for
// user modules unmatched $-named arguments become local config variables.
func (f *Frame) SetVariables(args []vm.Arg, params []vm.Param, optional []vm.Param, usermodule bool) error {
	used := make([]bool, len(args))
	next := 0

	named := func(name string) (vm.Value, bool) {
		for i, a := range args {
			if !used[i] && a.Name == name {
				used[i] = true
				return a.Value, true
			}
		}
		return nil, false
	}
	positional := func() (vm.Value, bool) {
		for ; next < len(args); next++ {
			if args[next].Positional() && !used[next] {
				used[next] = true
				next++
				return args[next-1].Value, true
			}
		}
		return nil, false
	}

	for _, p := range params {
		if v, ok := named(p.Name); ok {
			f.SetVariable(p.Name, v)
			continue
		}
		if v, ok := positional(); ok {
			f.SetVariable(p.Name, v)
			continue
		}
		if p.Default != nil {
			v, err := Eval(f, p.Default)
			if err != nil {
				return fmt.Errorf("default value of parameter %q: %w", p.Name, err)
			}
			f.SetVariable(p.Name, v)
			continue
		}
		f.SetVariable(p.Name, vm.Undef)
	}

	for _, p := range optional {
		if v, ok := named(p.Name); ok {
			f.SetVariable(p.Name, v)
			continue
		}
		if p.Default != nil {
			v, err := Eval(f, p.Default)
			if err != nil {
				return fmt.Errorf("default value of parameter %q: %w", p.Name, err)
			}
			f.SetVariable(p.Name, v)
		}
	}

	if usermodule {
		for i, a := range args {
			if !used[i] && vm.IsSpecial(a.Name) {
				used[i] = true
				f.SetConfigVariable(a.Name, a.Value)
			}
		}
	}

	f.session.logger.Trace().Str("frame", f.Name).Int("args", len(args)).Int("params", len(params)).Msg("bound parameters")
	return nil
}

// UserFunction is a user defined function closed over its defining frame.
type UserFunction struct {
	Def *FunctionDef
	Env *Frame
}

func (fn *UserFunction) Call(args []vm.Arg, loc vm.Location) (vm.Value, error) {
	s := fn.Env.session
	if s.Depth() >= s.MaxDepth {
		return nil, fmt.Errorf("%s: Recursion detected calling function '%s'", loc, fn.Def.Name)
	}
	frame := NewFrame(fn.Env)
	frame.Name = fn.Def.Name
	h := Enter(frame)
	defer h.Close()

	if err := frame.SetVariables(args, fn.Def.Params, nil, false); err != nil {
		return nil, fmt.Errorf("%s: calling '%s': %w", loc, fn.Def.Name, err)
	}
	return Eval(frame, fn.Def.Body)
}

// Value wraps the function as a first class value.
func (fn *UserFunction) Value() vm.FunctionValue {
	return vm.FunctionValue{Name: fn.Def.Name, Fn: fn}
}
