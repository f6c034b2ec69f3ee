package interp

import (
	"fmt"
	"math"

	"github.com/timewinder-dev/solidscope/vm"
)

// FrameKind selects which symbol table, if any, a frame hosts.
type FrameKind int

const (
	// CallFrame is a plain function call, comprehension or evaluation frame.
	CallFrame FrameKind = iota
	// BuiltinFrame hosts the builtin functions and modules.
	BuiltinFrame
	// FileFrame hosts top-level definitions.
	FileFrame
	// ModuleFrame is a user module instantiation hosting the module's
	// nested definitions.
	ModuleFrame
)

func (k FrameKind) String() string {
	switch k {
	case CallFrame:
		return "call"
	case BuiltinFrame:
		return "builtin"
	case FileFrame:
		return "file"
	case ModuleFrame:
		return "module"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Frame is one environment node. The parent edge is the only owning edge and
// points at the defining environment, not the caller.
type Frame struct {
	// Name labels the construct that created the frame.
	Name string

	kind            FrameKind
	parent          *Frame
	session         *Session
	variables       *vm.ValueMap
	configVariables *vm.ValueMap

	defs        *Definitions
	functions   map[string]vm.Callable
	modules     map[string]Module
	initialized bool
}

func newFrame(kind FrameKind, parent *Frame, session *Session) *Frame {
	return &Frame{
		kind:            kind,
		parent:          parent,
		session:         session,
		variables:       vm.NewValueMap(),
		configVariables: vm.NewValueMap(),
	}
}

// NewRootFrame creates a parentless frame with no symbol table.
func NewRootFrame(s *Session) *Frame {
	return newFrame(CallFrame, nil, s)
}

// NewBuiltinFrame creates the root frame that resolves builtin functions and
// modules once entered.
func NewBuiltinFrame(s *Session) *Frame {
	f := newFrame(BuiltinFrame, nil, s)
	f.Name = "builtins"
	return f
}

// NewFrame creates a plain frame nested inside parent.
func NewFrame(parent *Frame) *Frame {
	return newFrame(CallFrame, parent, parent.session)
}

// NewFileFrame creates a frame hosting top-level definitions.
func NewFileFrame(parent *Frame, defs *Definitions) *Frame {
	f := newFrame(FileFrame, parent, parent.session)
	f.Name = "file"
	f.defs = defs
	return f
}

// NewModuleFrame creates the frame a user module is instantiated in.
func NewModuleFrame(parent *Frame, mod *ModuleDef) *Frame {
	f := newFrame(ModuleFrame, parent, parent.session)
	f.Name = mod.Name
	f.defs = mod.Defs
	return f
}

// NewSnapshotFrame rebuilds a frame of the given kind from recorded
// bindings. It hosts no symbol table, even once entered. parent may be nil.
func NewSnapshotFrame(s *Session, parent *Frame, kind FrameKind, name string) *Frame {
	f := newFrame(kind, parent, s)
	f.Name = name
	f.initialized = true
	return f
}

// init runs once, before the frame is first pushed. Frames hosting
// definitions bind them here with the frame itself as the defining
// environment.
func (f *Frame) init() {
	if f.initialized {
		return
	}
	f.initialized = true
	switch f.kind {
	case BuiltinFrame:
		f.functions = make(map[string]vm.Callable, len(vm.BuiltinRegistry))
		for name, b := range vm.BuiltinRegistry {
			f.functions[name] = b
		}
		f.modules = make(map[string]Module, len(builtinModules))
		for name, m := range builtinModules {
			f.modules[name] = m
		}
		f.SetVariable("PI", vm.NumberValue(math.Pi))
	case FileFrame, ModuleFrame:
		if f.defs == nil {
			return
		}
		f.functions = make(map[string]vm.Callable, len(f.defs.Functions))
		for name, d := range f.defs.Functions {
			f.functions[name] = &UserFunction{Def: d, Env: f}
		}
		f.modules = make(map[string]Module, len(f.defs.Modules))
		for name, d := range f.defs.Modules {
			f.modules[name] = &UserModule{Def: d, Env: f}
		}
	}
}

func (f *Frame) Kind() FrameKind {
	return f.kind
}

func (f *Frame) Parent() *Frame {
	return f.parent
}

func (f *Frame) Session() *Session {
	return f.session
}

func (f *Frame) DocumentRoot() string {
	return f.session.DocumentRoot()
}

// SetVariable binds name locally, shadowing any binding in the parent chain.
func (f *Frame) SetVariable(name string, v vm.Value) {
	f.variables.Set(name, v)
}

func (f *Frame) HasLocalVariable(name string) bool {
	return f.variables.Has(name)
}

// LookupVariable resolves name through the parent chain. Unresolved names
// fail with an UndefinedVariable LookupError, or yield vm.Undef when silent.
func (f *Frame) LookupVariable(name string, silent bool, loc vm.Location) (vm.Value, error) {
	for c := f; c != nil; c = c.parent {
		if v, ok := c.variables.Get(name); ok {
			return v, nil
		}
	}
	if silent {
		return vm.Undef, nil
	}
	f.session.logger.Trace().Str("name", name).Str("loc", loc.String()).Msg("undefined variable")
	return vm.Undef, &LookupError{Kind: UndefinedVariable, Name: name, Loc: loc}
}

// LookupNumberWithDefault returns def when name is unbound or bound to
// something other than a number.
func (f *Frame) LookupNumberWithDefault(name string, def float64, loc vm.Location) float64 {
	v, _ := f.LookupVariable(name, true, loc)
	if n, ok := v.(vm.NumberValue); ok {
		return float64(n)
	}
	return def
}

// LookupStringWithDefault returns def when name is unbound or bound to
// something other than a string.
func (f *Frame) LookupStringWithDefault(name string, def string, loc vm.Location) string {
	v, _ := f.LookupVariable(name, true, loc)
	if s, ok := v.(vm.StrValue); ok {
		return string(s)
	}
	return def
}

// LookupLocalConfigVariable never delegates to the parent.
func (f *Frame) LookupLocalConfigVariable(name string) vm.Value {
	if v, ok := f.configVariables.Get(name); ok {
		return v
	}
	return vm.Undef
}

func (f *Frame) SetConfigVariable(name string, v vm.Value) {
	f.configVariables.Set(name, v)
}

func (f *Frame) ApplyVariables(m *vm.ValueMap) {
	f.variables.Merge(m)
}

// ApplyFrameVariables copies other's local bindings only; its parent chain is
// not flattened in.
func (f *Frame) ApplyFrameVariables(other *Frame) {
	f.variables.Merge(other.variables)
}

func (f *Frame) ApplyConfigMap(m *vm.ValueMap) {
	f.configVariables.Merge(m)
}

func (f *Frame) ApplyConfigVariables(other *Frame) {
	f.configVariables.Merge(other.configVariables)
}

// LocalVariables returns a copy of the local bindings.
func (f *Frame) LocalVariables() *vm.ValueMap {
	return f.variables.Clone()
}

// LocalConfigVariables returns a copy of the local config bindings.
func (f *Frame) LocalConfigVariables() *vm.ValueMap {
	return f.configVariables.Clone()
}

func (f *Frame) LookupLocalFunction(name string) (vm.Callable, bool) {
	fn, ok := f.functions[name]
	return fn, ok
}

func (f *Frame) LookupLocalModule(name string) (Module, bool) {
	m, ok := f.modules[name]
	return m, ok
}

func (f *Frame) LookupFunction(name string, loc vm.Location) (vm.Callable, error) {
	for c := f; c != nil; c = c.parent {
		if fn, ok := c.LookupLocalFunction(name); ok {
			return fn, nil
		}
	}
	return nil, &LookupError{Kind: FunctionNotFound, Name: name, Loc: loc}
}

func (f *Frame) LookupModule(name string, loc vm.Location) (Module, error) {
	for c := f; c != nil; c = c.parent {
		if m, ok := c.LookupLocalModule(name); ok {
			return m, nil
		}
	}
	return nil, &LookupError{Kind: ModuleNotFound, Name: name, Loc: loc}
}
