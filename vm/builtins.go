package vm

import (
	"fmt"
	"math"
	"strings"
)

// Builtin is a builtin function. Builtins only receive positional values;
// named arguments are rejected.
type Builtin struct {
	Name string
	Impl func(args []Value) (Value, error)
}

func (b *Builtin) Call(args []Arg, loc Location) (Value, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		if !a.Positional() {
			return nil, fmt.Errorf("%s: %s() does not take named argument %q", loc, b.Name, a.Name)
		}
		vals[i] = a.Value
	}
	v, err := b.Impl(vals)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return v, nil
}

// BuiltinRegistry maps builtin function names to their implementations
var BuiltinRegistry = map[string]*Builtin{
	"len":    {Name: "len", Impl: builtinLen},
	"str":    {Name: "str", Impl: builtinStr},
	"abs":    {Name: "abs", Impl: mathFunc("abs", math.Abs)},
	"sqrt":   {Name: "sqrt", Impl: mathFunc("sqrt", math.Sqrt)},
	"floor":  {Name: "floor", Impl: mathFunc("floor", math.Floor)},
	"ceil":   {Name: "ceil", Impl: mathFunc("ceil", math.Ceil)},
	"min":    {Name: "min", Impl: extremum("min", func(a, b float64) bool { return a < b })},
	"max":    {Name: "max", Impl: extremum("max", func(a, b float64) bool { return a > b })},
	"concat": {Name: "concat", Impl: builtinConcat},
	"range":  {Name: "range", Impl: builtinRange},
}

// builtinRange builds an inclusive range:
// - range(begin, end): [begin:1:end]
// - range(begin, step, end): [begin:step:end]
func builtinRange(args []Value) (Value, error) {
	nums := make([]float64, len(args))
	for i, a := range args {
		n, ok := a.(NumberValue)
		if !ok {
			return nil, fmt.Errorf("range() arguments must be numbers, got %s", TypeName(a))
		}
		nums[i] = float64(n)
	}
	var r RangeValue
	switch len(nums) {
	case 2:
		r = RangeValue{Begin: nums[0], Step: 1, End: nums[1]}
	case 3:
		if nums[1] == 0 {
			return nil, fmt.Errorf("range() step must not be zero")
		}
		r = RangeValue{Begin: nums[0], Step: nums[1], End: nums[2]}
	default:
		return nil, fmt.Errorf("range() takes 2 or 3 arguments, got %d", len(args))
	}
	for _, n := range nums {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("Bad range parameter: %s", FormatValue(r))
		}
	}
	if r.Count() < 0 {
		return nil, fmt.Errorf("Bad range parameter: %s has more than %d elements", FormatValue(r), MaxRangeElements)
	}
	return r, nil
}

func builtinLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len() takes exactly 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case VectorValue:
		return NumberValue(len(v)), nil
	case StrValue:
		return NumberValue(len([]rune(string(v)))), nil
	case RangeValue:
		n := v.Count()
		if n < 0 {
			return nil, fmt.Errorf("Bad range parameter: %s", FormatValue(v))
		}
		return NumberValue(n), nil
	}
	return Undef, nil
}

func builtinStr(args []Value) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		if s, ok := a.(StrValue); ok {
			b.WriteString(string(s))
			continue
		}
		b.WriteString(FormatValue(a))
	}
	return StrValue(b.String()), nil
}

func mathFunc(name string, fn func(float64) float64) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s() takes exactly 1 argument, got %d", name, len(args))
		}
		n, ok := args[0].(NumberValue)
		if !ok {
			return Undef, nil
		}
		return NumberValue(fn(float64(n))), nil
	}
}

// extremum implements min/max over either several numbers or a single vector.
func extremum(name string, better func(a, b float64) bool) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) == 1 {
			if v, ok := args[0].(VectorValue); ok {
				args = v
			}
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%s() requires at least 1 argument", name)
		}
		var best float64
		for i, a := range args {
			n, ok := a.(NumberValue)
			if !ok {
				return Undef, nil
			}
			if i == 0 || better(float64(n), best) {
				best = float64(n)
			}
		}
		return NumberValue(best), nil
	}
}

func builtinConcat(args []Value) (Value, error) {
	var out VectorValue
	for _, a := range args {
		if v, ok := a.(VectorValue); ok {
			out = append(out, v...)
			continue
		}
		out = append(out, a)
	}
	if out == nil {
		out = VectorValue{}
	}
	return out, nil
}
