package cas

import (
	"fmt"

	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
)

// RecomposeFrame rebuilds the frame stored under hash, together with its
// parent chain, as detached frames of session s. Recomposed frames carry
// bindings only: functions come back as named values that cannot be called.
func RecomposeFrame(c CAS, hash Hash, s *interp.Session) (*interp.Frame, error) {
	ref, err := Retrieve[*FrameRef](c, hash)
	if err != nil {
		return nil, fmt.Errorf("retrieving FrameRef: %w", err)
	}
	var parent *interp.Frame
	if ref.HasParent {
		parent, err = RecomposeFrame(c, ref.Parent, s)
		if err != nil {
			return nil, fmt.Errorf("recomposing parent of %s: %w", ref.Name, err)
		}
	}
	f := interp.NewSnapshotFrame(s, parent, interp.FrameKind(ref.Kind), ref.Name)
	for _, b := range ref.Variables {
		v, err := recomposeValue(c, b.Value)
		if err != nil {
			return nil, fmt.Errorf("recomposing %s: %w", b.Name, err)
		}
		f.SetVariable(b.Name, v)
	}
	for _, b := range ref.Config {
		v, err := recomposeValue(c, b.Value)
		if err != nil {
			return nil, fmt.Errorf("recomposing %s: %w", b.Name, err)
		}
		f.SetConfigVariable(b.Name, v)
	}
	return f, nil
}

func recomposeValue(c CAS, ref ValueRef) (vm.Value, error) {
	switch ref.Kind {
	case KindUndef:
		return vm.Undef, nil
	case KindBool:
		return vm.BoolValue(ref.Bool), nil
	case KindNumber:
		return vm.NumberValue(ref.Num), nil
	case KindString:
		return vm.StrValue(ref.Str), nil
	case KindRange:
		return vm.RangeValue{Begin: ref.Range[0], Step: ref.Range[1], End: ref.Range[2]}, nil
	case KindFunction:
		return vm.FunctionValue{Name: ref.Str, Fn: detachedFunction(ref.Str)}, nil
	case KindVector:
		return recomposeItems(c, ref.Items)
	case KindVectorRef:
		vec, err := Retrieve[*VectorRef](c, ref.Ref)
		if err != nil {
			return nil, fmt.Errorf("retrieving VectorRef: %w", err)
		}
		return recomposeItems(c, vec.Elements)
	}
	return nil, fmt.Errorf("unknown value kind %d", ref.Kind)
}

func recomposeItems(c CAS, items []ValueRef) (vm.Value, error) {
	out := make(vm.VectorValue, len(items))
	for i, r := range items {
		v, err := recomposeValue(c, r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// detachedFunction stands in for a function whose environment was not
// recorded.
type detachedFunction string

func (d detachedFunction) Call(args []vm.Arg, loc vm.Location) (vm.Value, error) {
	return nil, fmt.Errorf("%s: function '%s' was restored from a snapshot and cannot be called", loc, string(d))
}
