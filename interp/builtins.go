package interp

import (
	"github.com/timewinder-dev/solidscope/vm"
)

// specialVariables recorded on every primitive node.
var specialVariables = []string{"$fn", "$fa", "$fs"}

// builtinModule is a primitive. Its parameters are bound in a call frame
// nested in the caller and read back with the default helpers.
type builtinModule struct {
	name     string
	params   []vm.Param
	optional []vm.Param
	build    func(f *Frame, vars *vm.ValueMap, loc vm.Location)
}

var builtinModules = map[string]*builtinModule{
	"cube": {
		name:   "cube",
		params: mustParams("size=1, center=false"),
		build: func(f *Frame, vars *vm.ValueMap, loc vm.Location) {
			if v, _ := f.LookupVariable("size", true, loc); isVector(v) {
				vars.Set("size", v)
			} else {
				vars.Set("size", vm.NumberValue(f.LookupNumberWithDefault("size", 1, loc)))
			}
			vars.Set("center", boolVar(f, "center", loc))
		},
	},
	"sphere": {
		name:     "sphere",
		params:   mustParams("r=1"),
		optional: mustParams("d"),
		build: func(f *Frame, vars *vm.ValueMap, loc vm.Location) {
			r := f.LookupNumberWithDefault("r", 1, loc)
			if d := localNumber(f, "d", -1, loc); d >= 0 {
				r = d / 2
			}
			vars.Set("r", vm.NumberValue(r))
		},
	},
	"cylinder": {
		name:     "cylinder",
		params:   mustParams("h=1, r=1, center=false"),
		optional: mustParams("r1, r2, d"),
		build: func(f *Frame, vars *vm.ValueMap, loc vm.Location) {
			r := f.LookupNumberWithDefault("r", 1, loc)
			if d := localNumber(f, "d", -1, loc); d >= 0 {
				r = d / 2
			}
			vars.Set("h", vm.NumberValue(f.LookupNumberWithDefault("h", 1, loc)))
			vars.Set("r1", vm.NumberValue(localNumber(f, "r1", r, loc)))
			vars.Set("r2", vm.NumberValue(localNumber(f, "r2", r, loc)))
			vars.Set("center", boolVar(f, "center", loc))
		},
	},
	"text": {
		name:   "text",
		params: mustParams(`text="", size=10, font="Liberation Sans"`),
		build: func(f *Frame, vars *vm.ValueMap, loc vm.Location) {
			vars.Set("text", vm.StrValue(f.LookupStringWithDefault("text", "", loc)))
			vars.Set("size", vm.NumberValue(f.LookupNumberWithDefault("size", 10, loc)))
			vars.Set("font", vm.StrValue(f.LookupStringWithDefault("font", "Liberation Sans", loc)))
		},
	},
}

func (m *builtinModule) Instantiate(caller *Frame, args []vm.Arg, loc vm.Location) (*Node, error) {
	frame := NewFrame(caller)
	frame.Name = m.name
	h := Enter(frame)
	defer h.Close()

	if err := frame.SetVariables(args, m.params, m.optional, false); err != nil {
		return nil, err
	}
	node := &Node{
		Name:      m.name,
		Variables: vm.NewValueMap(),
		Special:   vm.NewValueMap(),
		Loc:       loc,
	}
	m.build(frame, node.Variables, loc)
	for _, name := range specialVariables {
		v, _ := frame.session.LookupSpecialVariable(name, true, loc)
		node.Special.Set(name, v)
	}
	return node, nil
}

// localNumber reads an optional parameter. Optional parameters stay unbound
// when not supplied, so the parent chain must not be consulted.
func localNumber(f *Frame, name string, def float64, loc vm.Location) float64 {
	if !f.HasLocalVariable(name) {
		return def
	}
	return f.LookupNumberWithDefault(name, def, loc)
}

func isVector(v vm.Value) bool {
	_, ok := v.(vm.VectorValue)
	return ok
}

func boolVar(f *Frame, name string, loc vm.Location) vm.Value {
	v, _ := f.LookupVariable(name, true, loc)
	return vm.BoolValue(v.AsBool())
}

func mustParams(src string) []vm.Param {
	params, err := vm.ParseParams("<builtin>", src)
	if err != nil {
		panic(err)
	}
	return params
}
