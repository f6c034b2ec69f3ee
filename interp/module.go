package interp

import (
	"fmt"

	"github.com/timewinder-dev/solidscope/vm"
	"go.starlark.net/syntax"
)

// Definitions is the symbol table hosted by file and module frames.
type Definitions struct {
	Functions map[string]*FunctionDef
	Modules   map[string]*ModuleDef
}

func NewDefinitions() *Definitions {
	return &Definitions{
		Functions: make(map[string]*FunctionDef),
		Modules:   make(map[string]*ModuleDef),
	}
}

type FunctionDef struct {
	Name   string
	Params []vm.Param
	Body   syntax.Expr
	Loc    vm.Location
}

type Assignment struct {
	Name string
	Expr syntax.Expr
	Loc  vm.Location
}

type ModuleDef struct {
	Name        string
	Params      []vm.Param
	Assignments []Assignment
	Echoes      []syntax.Expr
	Children    []*Instantiation
	Defs        *Definitions
	Loc         vm.Location
}

// Instantiation is a module instantiation statement, name(args).
type Instantiation struct {
	Name string
	Args []vm.ArgExpr
	Loc  vm.Location
	Src  string
}

func ParseInstantiation(filename string, src string) (*Instantiation, error) {
	name, args, loc, err := vm.ParseCall(filename, src)
	if err != nil {
		return nil, err
	}
	return &Instantiation{Name: name, Args: args, Loc: loc, Src: src}, nil
}

// String renders the instantiation for dumps and diagnostics.
func (inst *Instantiation) String() string {
	if inst.Src != "" {
		return inst.Src
	}
	return inst.Name + "(...)"
}

// Node records one instantiated module: its final local bindings, the
// special variables it saw and its children.
type Node struct {
	Name      string
	Variables *vm.ValueMap
	Special   *vm.ValueMap
	Children  []*Node
	Loc       vm.Location
}

// Module is anything that can be instantiated from a caller frame.
type Module interface {
	Instantiate(caller *Frame, args []vm.Arg, loc vm.Location) (*Node, error)
}

// Instantiate evaluates the arguments in caller, resolves the module through
// caller's parent chain and instantiates it.
func (inst *Instantiation) Instantiate(caller *Frame) (*Node, error) {
	args, err := EvalArgs(caller, inst.Args)
	if err != nil {
		return nil, err
	}
	mod, err := caller.LookupModule(inst.Name, inst.Loc)
	if err != nil {
		return nil, err
	}
	return mod.Instantiate(caller, args, inst.Loc)
}

// UserModule is a user defined module closed over its defining frame.
type UserModule struct {
	Def *ModuleDef
	Env *Frame
}

func (m *UserModule) Instantiate(caller *Frame, args []vm.Arg, loc vm.Location) (*Node, error) {
	s := m.Env.session
	if s.Depth() >= s.MaxDepth {
		return nil, fmt.Errorf("%s: Recursion detected calling module '%s'", loc, m.Def.Name)
	}
	frame := NewModuleFrame(m.Env, m.Def)
	h := Enter(frame)
	defer h.Close()
	s.logger.Trace().Str("module", m.Def.Name).Str("loc", loc.String()).Msg("instantiate module")

	frame.SetConfigVariable("$children", vm.NumberValue(len(m.Def.Children)))
	if err := frame.SetVariables(args, m.Def.Params, nil, true); err != nil {
		return nil, fmt.Errorf("%s: instantiating '%s': %w", loc, m.Def.Name, err)
	}
	for _, a := range m.Def.Assignments {
		v, err := Eval(frame, a.Expr)
		if err != nil {
			return nil, err
		}
		if vm.IsSpecial(a.Name) {
			frame.SetConfigVariable(a.Name, v)
		} else {
			frame.SetVariable(a.Name, v)
		}
	}
	for _, e := range m.Def.Echoes {
		v, err := Eval(frame, e)
		if err != nil {
			return nil, err
		}
		s.echo(vm.FormatValue(v))
	}

	node := &Node{Name: m.Def.Name, Loc: loc}
	for _, child := range m.Def.Children {
		n, err := child.Instantiate(frame)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, n)
	}
	node.Variables = frame.LocalVariables()
	node.Special = frame.LocalConfigVariables()
	return node, nil
}
