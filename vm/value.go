package vm

import (
	"math"
	"slices"
)

type Value interface {
	isValue()
	AsBool() bool
}

// UndefValue is the "undefined" sentinel. Silent lookups of unbound names
// return it instead of failing.
type UndefValue struct{}

func (UndefValue) isValue()     {}
func (UndefValue) AsBool() bool { return false }

var Undef = UndefValue{}

func IsUndef(v Value) bool {
	_, ok := v.(UndefValue)
	return ok || v == nil
}

type BoolValue bool

func (BoolValue) isValue() {}

var (
	BoolTrue  = BoolValue(true)
	BoolFalse = BoolValue(false)
)

func (b BoolValue) AsBool() bool {
	return bool(b)
}

type NumberValue float64

func (NumberValue) isValue() {}
func (n NumberValue) AsBool() bool {
	return n != 0
}

type StrValue string

func (StrValue) isValue() {}
func (s StrValue) AsBool() bool {
	return s != ""
}

type VectorValue []Value

func (VectorValue) isValue() {}
func (v VectorValue) AsBool() bool {
	return len(v) != 0
}

// RangeValue is a [begin:step:end] range. End is inclusive.
type RangeValue struct {
	Begin float64
	Step  float64
	End   float64
}

func (RangeValue) isValue()     {}
func (RangeValue) AsBool() bool { return true }

// MaxRangeElements bounds the number of elements a range may expand to.
const MaxRangeElements = 1000000

// Count returns the number of elements the range expands to, or -1 when it
// cannot be expanded: a non-finite bound or step, or more than
// MaxRangeElements elements. A zero step or a step pointing away from End
// gives 0.
func (r RangeValue) Count() int {
	if !isFinite(r.Begin) || !isFinite(r.Step) || !isFinite(r.End) {
		return -1
	}
	if r.Step == 0 || (r.Step > 0 && r.Begin > r.End) || (r.Step < 0 && r.Begin < r.End) {
		return 0
	}
	n := math.Floor((r.End-r.Begin)/r.Step) + 1
	if math.IsNaN(n) || n > MaxRangeElements {
		return -1
	}
	return int(n)
}

// Items expands the range, or returns nil when Count is not positive.
// Elements are computed by index so a step below the precision of Begin
// still terminates.
func (r RangeValue) Items() []Value {
	n := r.Count()
	if n <= 0 {
		return nil
	}
	out := make([]Value, n)
	for i := range out {
		out[i] = NumberValue(r.Begin + float64(i)*r.Step)
	}
	return out
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Callable is anything that can be invoked with already evaluated arguments.
type Callable interface {
	Call(args []Arg, loc Location) (Value, error)
}

// FunctionValue is a first class function, usually a closure over the frame
// that evaluated its literal.
type FunctionValue struct {
	Name string
	Fn   Callable
}

func (FunctionValue) isValue()     {}
func (FunctionValue) AsBool() bool { return true }

// Arg is one call-site argument. Positional arguments have an empty Name.
type Arg struct {
	Name  string
	Value Value
}

func (a Arg) Positional() bool {
	return a.Name == ""
}

// Equal reports structural equality. Functions compare by identity of their
// implementation.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case UndefValue:
		return IsUndef(b)
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x == y
	case NumberValue:
		y, ok := b.(NumberValue)
		return ok && (x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y))))
	case StrValue:
		y, ok := b.(StrValue)
		return ok && x == y
	case RangeValue:
		y, ok := b.(RangeValue)
		return ok && x == y
	case VectorValue:
		y, ok := b.(VectorValue)
		return ok && slices.EqualFunc(x, y, Equal)
	case FunctionValue:
		y, ok := b.(FunctionValue)
		return ok && x.Fn == y.Fn
	}
	return false
}

// TypeName returns the user facing type name of a value
func TypeName(v Value) string {
	switch v.(type) {
	case UndefValue, nil:
		return "undefined"
	case BoolValue:
		return "bool"
	case NumberValue:
		return "number"
	case StrValue:
		return "string"
	case VectorValue:
		return "vector"
	case RangeValue:
		return "range"
	case FunctionValue:
		return "function"
	default:
		return "unknown"
	}
}
