package cas

import (
	"fmt"

	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
)

// Decompose stores f and its parent chain, outermost first, and returns the
// hash of f's entry.
func Decompose(c CAS, f *interp.Frame) (Hash, error) {
	if f == nil {
		return 0, fmt.Errorf("cannot decompose nil Frame")
	}
	ref := &FrameRef{
		Kind: int(f.Kind()),
		Name: f.Name,
	}
	if p := f.Parent(); p != nil {
		h, err := Decompose(c, p)
		if err != nil {
			return 0, fmt.Errorf("decomposing parent of %s: %w", f.Name, err)
		}
		ref.HasParent = true
		ref.Parent = h
	}

	var err error
	if ref.Variables, err = decomposeBindings(c, f.LocalVariables()); err != nil {
		return 0, fmt.Errorf("decomposing variables of %s: %w", f.Name, err)
	}
	if ref.Config, err = decomposeBindings(c, f.LocalConfigVariables()); err != nil {
		return 0, fmt.Errorf("decomposing config variables of %s: %w", f.Name, err)
	}
	return c.Put(ref)
}

func decomposeBindings(c CAS, m *vm.ValueMap) ([]BindingRef, error) {
	var out []BindingRef
	var err error
	m.Each(func(name string, v vm.Value) {
		if err != nil {
			return
		}
		var ref ValueRef
		ref, err = decomposeValue(c, v)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return
		}
		out = append(out, BindingRef{Name: name, Value: ref})
	})
	return out, err
}

func decomposeValue(c CAS, v vm.Value) (ValueRef, error) {
	switch x := v.(type) {
	case nil, vm.UndefValue:
		return ValueRef{Kind: KindUndef}, nil
	case vm.BoolValue:
		return ValueRef{Kind: KindBool, Bool: bool(x)}, nil
	case vm.NumberValue:
		return ValueRef{Kind: KindNumber, Num: float64(x)}, nil
	case vm.StrValue:
		return ValueRef{Kind: KindString, Str: string(x)}, nil
	case vm.RangeValue:
		return ValueRef{Kind: KindRange, Range: [3]float64{x.Begin, x.Step, x.End}}, nil
	case vm.FunctionValue:
		// only the name survives; the closure environment is not stored
		return ValueRef{Kind: KindFunction, Str: x.Name}, nil
	case vm.VectorValue:
		items := make([]ValueRef, len(x))
		for i, elem := range x {
			r, err := decomposeValue(c, elem)
			if err != nil {
				return ValueRef{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = r
		}
		if len(x) < MinVectorSizeForRef {
			return ValueRef{Kind: KindVector, Items: items}, nil
		}
		h, err := c.Put(&VectorRef{Elements: items})
		if err != nil {
			return ValueRef{}, err
		}
		return ValueRef{Kind: KindVectorRef, Ref: h}, nil
	}
	return ValueRef{}, fmt.Errorf("unsupported value type %T", v)
}
