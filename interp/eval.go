package interp

import (
	"errors"
	"fmt"
	"math"

	"github.com/timewinder-dev/solidscope/vm"
	"go.starlark.net/syntax"
)

// EvalString parses and evaluates src in f.
func EvalString(f *Frame, filename string, src string) (vm.Value, error) {
	e, err := vm.ParseExpr(filename, src)
	if err != nil {
		return nil, err
	}
	return Eval(f, e)
}

// Eval evaluates e with f as the lexical environment.
func Eval(f *Frame, e syntax.Expr) (vm.Value, error) {
	loc := vm.ExprLocation("", e)
	switch v := e.(type) {
	case *syntax.Literal:
		return vm.LitToValue(v.Value)
	case *syntax.Ident:
		return evalIdent(f, v.Name, loc)
	case *syntax.ParenExpr:
		return Eval(f, v.X)
	case *syntax.UnaryExpr:
		x, err := Eval(f, v.X)
		if err != nil {
			return nil, err
		}
		return unary(v.Op, x), nil
	case *syntax.BinaryExpr:
		return evalBinary(f, v)
	case *syntax.CondExpr:
		c, err := Eval(f, v.Cond)
		if err != nil {
			return nil, err
		}
		if c.AsBool() {
			return Eval(f, v.True)
		}
		return Eval(f, v.False)
	case *syntax.ListExpr:
		out := make(vm.VectorValue, 0, len(v.List))
		for _, item := range v.List {
			x, err := Eval(f, item)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case *syntax.TupleExpr:
		out := make(vm.VectorValue, 0, len(v.List))
		for _, item := range v.List {
			x, err := Eval(f, item)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case *syntax.IndexExpr:
		x, err := Eval(f, v.X)
		if err != nil {
			return nil, err
		}
		y, err := Eval(f, v.Y)
		if err != nil {
			return nil, err
		}
		return index(x, y), nil
	case *syntax.Comprehension:
		if v.Curly {
			return nil, fmt.Errorf("%s: dict comprehensions are not supported", loc)
		}
		out := vm.VectorValue{}
		if err := comprehension(f, v.Clauses, v.Body, &out); err != nil {
			return nil, err
		}
		return out, nil
	case *syntax.LambdaExpr:
		params, err := lambdaParams(v.Params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", loc, err)
		}
		fn := &UserFunction{Def: &FunctionDef{Params: params, Body: v.Body, Loc: loc}, Env: f}
		return fn.Value(), nil
	case *syntax.CallExpr:
		return evalCall(f, v, loc)
	default:
		return nil, fmt.Errorf("%s: unsupported expression %T", loc, e)
	}
}

func evalIdent(f *Frame, name string, loc vm.Location) (vm.Value, error) {
	switch name {
	case "true", "True":
		return vm.BoolTrue, nil
	case "false", "False":
		return vm.BoolFalse, nil
	case "undef", "None":
		return vm.Undef, nil
	}
	if special, ok := vm.SpecialName(name); ok {
		return f.session.LookupSpecialVariable(special, false, loc)
	}
	return f.LookupVariable(name, false, loc)
}

// EvalArgs evaluates call-site arguments in f.
func EvalArgs(f *Frame, args []vm.ArgExpr) ([]vm.Arg, error) {
	out := make([]vm.Arg, len(args))
	for i, a := range args {
		v, err := Eval(f, a.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = vm.Arg{Name: a.Name, Value: v}
	}
	return out, nil
}

func evalCall(f *Frame, call *syntax.CallExpr, loc vm.Location) (vm.Value, error) {
	if id, ok := call.Fn.(*syntax.Ident); ok && id.Name == "is_undef" {
		return isUndef(f, call, loc)
	}
	callee, err := resolveCallee(f, call.Fn, loc)
	if err != nil {
		return nil, err
	}
	args, err := EvalArgs(f, vm.CallArgs(call))
	if err != nil {
		return nil, err
	}
	return callee.Call(args, loc)
}

// resolveCallee prefers a named function and falls back to a variable holding
// a function value.
func resolveCallee(f *Frame, fn syntax.Expr, loc vm.Location) (vm.Callable, error) {
	if id, ok := fn.(*syntax.Ident); ok {
		c, err := f.LookupFunction(id.Name, loc)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrFunctionNotFound) {
			return nil, err
		}
		v, _ := f.LookupVariable(id.Name, true, loc)
		if fv, ok := v.(vm.FunctionValue); ok && fv.Fn != nil {
			return fv.Fn, nil
		}
		return nil, err
	}
	v, err := Eval(f, fn)
	if err != nil {
		return nil, err
	}
	fv, ok := v.(vm.FunctionValue)
	if !ok || fv.Fn == nil {
		return nil, fmt.Errorf("%s: %s is not callable", loc, vm.TypeName(v))
	}
	return fv.Fn, nil
}

func isUndef(f *Frame, call *syntax.CallExpr, loc vm.Location) (vm.Value, error) {
	if len(call.Args) != 1 {
		return nil, fmt.Errorf("%s: is_undef() takes exactly 1 argument", loc)
	}
	if id, ok := vm.Unparen(call.Args[0]).(*syntax.Ident); ok {
		var v vm.Value
		if special, ok := vm.SpecialName(id.Name); ok {
			v, _ = f.session.LookupSpecialVariable(special, true, loc)
		} else {
			v, _ = f.LookupVariable(id.Name, true, loc)
		}
		return vm.BoolValue(vm.IsUndef(v)), nil
	}
	v, err := Eval(f, call.Args[0])
	if err != nil {
		return nil, err
	}
	return vm.BoolValue(vm.IsUndef(v)), nil
}

// comprehension evaluates the clauses left to right. Each for clause owns a
// single handle that is rebound per element, so iterating never deepens the
// active stack.
func comprehension(f *Frame, clauses []syntax.Node, body syntax.Node, out *vm.VectorValue) error {
	if len(clauses) == 0 {
		e, ok := body.(syntax.Expr)
		if !ok {
			return fmt.Errorf("unsupported comprehension body %T", body)
		}
		v, err := Eval(f, e)
		if err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	}
	switch cl := clauses[0].(type) {
	case *syntax.IfClause:
		c, err := Eval(f, cl.Cond)
		if err != nil {
			return err
		}
		if !c.AsBool() {
			return nil
		}
		return comprehension(f, clauses[1:], body, out)
	case *syntax.ForClause:
		id, ok := cl.Vars.(*syntax.Ident)
		if !ok {
			return fmt.Errorf("%s: comprehension variable must be a name", vm.ExprLocation("", cl.Vars))
		}
		seq, err := Eval(f, cl.X)
		if err != nil {
			return err
		}
		items, err := iterate(seq, vm.ExprLocation("", cl.X))
		if err != nil {
			return err
		}
		var h *Handle
		defer func() { h.Close() }()
		for _, item := range items {
			frame := NewFrame(f)
			frame.Name = "for"
			frame.SetVariable(id.Name, item)
			if h == nil {
				h = Enter(frame)
			} else {
				h.Rebind(frame)
			}
			if err := comprehension(frame, clauses[1:], body, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported comprehension clause %T", cl)
	}
}

// iterate lists the elements a for clause visits. A number or bool is
// visited once as itself; undef and functions cannot be iterated.
func iterate(v vm.Value, loc vm.Location) ([]vm.Value, error) {
	switch x := v.(type) {
	case vm.VectorValue:
		return x, nil
	case vm.RangeValue:
		if x.Count() < 0 {
			return nil, fmt.Errorf("%s: Bad range parameter: %s", loc, vm.FormatValue(x))
		}
		return x.Items(), nil
	case vm.StrValue:
		var out []vm.Value
		for _, r := range string(x) {
			out = append(out, vm.StrValue(string(r)))
		}
		return out, nil
	case vm.NumberValue, vm.BoolValue:
		return []vm.Value{x}, nil
	}
	return nil, fmt.Errorf("%s: cannot iterate over %s", loc, vm.TypeName(v))
}

func lambdaParams(params []syntax.Expr) ([]vm.Param, error) {
	var out []vm.Param
	for _, p := range params {
		switch v := p.(type) {
		case *syntax.Ident:
			out = append(out, vm.Param{Name: v.Name})
		case *syntax.BinaryExpr:
			id, ok := v.X.(*syntax.Ident)
			if v.Op != syntax.EQ || !ok {
				return nil, fmt.Errorf("invalid lambda parameter")
			}
			out = append(out, vm.Param{Name: id.Name, Default: v.Y})
		default:
			return nil, fmt.Errorf("unsupported lambda parameter %T", p)
		}
	}
	return out, nil
}

func evalBinary(f *Frame, e *syntax.BinaryExpr) (vm.Value, error) {
	x, err := Eval(f, e.X)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case syntax.AND:
		if !x.AsBool() {
			return vm.BoolFalse, nil
		}
		y, err := Eval(f, e.Y)
		if err != nil {
			return nil, err
		}
		return vm.BoolValue(y.AsBool()), nil
	case syntax.OR:
		if x.AsBool() {
			return vm.BoolTrue, nil
		}
		y, err := Eval(f, e.Y)
		if err != nil {
			return nil, err
		}
		return vm.BoolValue(y.AsBool()), nil
	}
	y, err := Eval(f, e.Y)
	if err != nil {
		return nil, err
	}
	return binOp(e.Op, x, y)
}

// binOp follows the modeled language: operands of the wrong type produce
// undef rather than an error.
func binOp(op syntax.Token, x, y vm.Value) (vm.Value, error) {
	switch op {
	case syntax.EQL:
		return vm.BoolValue(vm.Equal(x, y)), nil
	case syntax.NEQ:
		return vm.BoolValue(!vm.Equal(x, y)), nil
	case syntax.LT, syntax.GT, syntax.LE, syntax.GE:
		return compare(op, x, y), nil
	case syntax.PLUS, syntax.MINUS, syntax.STAR, syntax.SLASH, syntax.PERCENT:
		return arith(op, x, y), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func arith(op syntax.Token, x, y vm.Value) vm.Value {
	a, aNum := x.(vm.NumberValue)
	b, bNum := y.(vm.NumberValue)
	if aNum && bNum {
		switch op {
		case syntax.PLUS:
			return a + b
		case syntax.MINUS:
			return a - b
		case syntax.STAR:
			return a * b
		case syntax.SLASH:
			return a / b
		case syntax.PERCENT:
			return vm.NumberValue(math.Mod(float64(a), float64(b)))
		}
	}
	av, aVec := x.(vm.VectorValue)
	bv, bVec := y.(vm.VectorValue)
	switch {
	case aVec && bVec && (op == syntax.PLUS || op == syntax.MINUS):
		n := min(len(av), len(bv))
		out := make(vm.VectorValue, n)
		for i := 0; i < n; i++ {
			out[i] = arith(op, av[i], bv[i])
		}
		return out
	case aVec && bNum && (op == syntax.STAR || op == syntax.SLASH):
		out := make(vm.VectorValue, len(av))
		for i := range av {
			out[i] = arith(op, av[i], b)
		}
		return out
	case aNum && bVec && op == syntax.STAR:
		out := make(vm.VectorValue, len(bv))
		for i := range bv {
			out[i] = arith(op, a, bv[i])
		}
		return out
	}
	return vm.Undef
}

func compare(op syntax.Token, x, y vm.Value) vm.Value {
	var c int
	switch a := x.(type) {
	case vm.NumberValue:
		b, ok := y.(vm.NumberValue)
		if !ok {
			return vm.Undef
		}
		c = cmpOrdered(a, b)
	case vm.StrValue:
		b, ok := y.(vm.StrValue)
		if !ok {
			return vm.Undef
		}
		c = cmpOrdered(a, b)
	default:
		return vm.Undef
	}
	switch op {
	case syntax.LT:
		return vm.BoolValue(c < 0)
	case syntax.GT:
		return vm.BoolValue(c > 0)
	case syntax.LE:
		return vm.BoolValue(c <= 0)
	default:
		return vm.BoolValue(c >= 0)
	}
}

func cmpOrdered[T vm.NumberValue | vm.StrValue](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func unary(op syntax.Token, x vm.Value) vm.Value {
	switch op {
	case syntax.NOT:
		return vm.BoolValue(!x.AsBool())
	case syntax.PLUS:
		return x
	case syntax.MINUS:
		switch v := x.(type) {
		case vm.NumberValue:
			return -v
		case vm.VectorValue:
			out := make(vm.VectorValue, len(v))
			for i := range v {
				out[i] = unary(op, v[i])
			}
			return out
		}
	}
	return vm.Undef
}

func index(x, y vm.Value) vm.Value {
	n, ok := y.(vm.NumberValue)
	if !ok {
		return vm.Undef
	}
	i := int(n)
	switch v := x.(type) {
	case vm.VectorValue:
		if i >= 0 && i < len(v) {
			return v[i]
		}
	case vm.StrValue:
		r := []rune(string(v))
		if i >= 0 && i < len(r) {
			return vm.StrValue(string(r[i]))
		}
	}
	return vm.Undef
}
