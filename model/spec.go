package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
	"gopkg.in/yaml.v3"
)

// Spec is a run file: the definitions and top-level statements of one
// evaluation.
type Spec struct {
	Spec      SpecDetails             `toml:"spec" yaml:"spec"`
	Config    map[string]any          `toml:"config,omitempty" yaml:"config,omitempty"`
	Variables map[string]any          `toml:"variables,omitempty" yaml:"variables,omitempty"`
	Functions map[string]FunctionSpec `toml:"functions,omitempty" yaml:"functions,omitempty"`
	Modules   map[string]ModuleSpec   `toml:"modules,omitempty" yaml:"modules,omitempty"`

	// Path is the file this was loaded from, used in source locations.
	Path string `toml:"-" yaml:"-"`
}

type SpecDetails struct {
	DocumentRoot string   `toml:"document_root,omitempty" yaml:"document_root,omitempty"`
	Assign       []string `toml:"assign,omitempty" yaml:"assign,omitempty"`
	Echo         []string `toml:"echo,omitempty" yaml:"echo,omitempty"`
	Instantiate  []string `toml:"instantiate,omitempty" yaml:"instantiate,omitempty"`
}

type FunctionSpec struct {
	Params string `toml:"params,omitempty" yaml:"params,omitempty"`
	Body   string `toml:"body" yaml:"body"`
}

type ModuleSpec struct {
	Params    string                  `toml:"params,omitempty" yaml:"params,omitempty"`
	Assign    []string                `toml:"assign,omitempty" yaml:"assign,omitempty"`
	Echo      []string                `toml:"echo,omitempty" yaml:"echo,omitempty"`
	Children  []string                `toml:"children,omitempty" yaml:"children,omitempty"`
	Functions map[string]FunctionSpec `toml:"functions,omitempty" yaml:"functions,omitempty"`
	Modules   map[string]ModuleSpec   `toml:"modules,omitempty" yaml:"modules,omitempty"`
}

// DefaultConfig holds the special variables every file frame starts with.
var DefaultConfig = map[string]vm.Value{
	"$fn":      vm.NumberValue(0),
	"$fa":      vm.NumberValue(12),
	"$fs":      vm.NumberValue(2),
	"$t":       vm.NumberValue(0),
	"$preview": vm.BoolFalse,
}

func parseSpec(f io.Reader) (*Spec, error) {
	var out Spec
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

func parseYAMLSpec(f io.Reader) (*Spec, error) {
	var out Spec
	err := yaml.NewDecoder(f).Decode(&out)
	if err == io.EOF {
		err = nil
	}
	return &out, err
}

// LoadSpecFromFile reads a .toml, .yaml or .yml run file. The document root
// defaults to the run file's directory; a relative root resolves against it.
func LoadSpecFromFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s *Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err = parseYAMLSpec(f)
	default:
		s, err = parseSpec(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	s.Path = path
	filedir := filepath.Dir(path)
	switch {
	case s.Spec.DocumentRoot == "":
		s.Spec.DocumentRoot = filedir
	case !filepath.IsAbs(s.Spec.DocumentRoot):
		s.Spec.DocumentRoot = filepath.Join(filedir, s.Spec.DocumentRoot)
	}
	s.Spec.DocumentRoot = filepath.Clean(s.Spec.DocumentRoot)
	return s, nil
}

func (s *Spec) filename() string {
	if s.Path == "" {
		return "<spec>"
	}
	return s.Path
}

// BuildExecutor parses every definition and statement of the run file.
func (s *Spec) BuildExecutor() (*Executor, error) {
	file := s.filename()
	defs, err := buildDefinitions(file, s.Functions, s.Modules)
	if err != nil {
		return nil, err
	}
	assigns, err := parseAssignments(file, s.Spec.Assign)
	if err != nil {
		return nil, err
	}
	echoes, err := parseEchoes(file, s.Spec.Echo)
	if err != nil {
		return nil, err
	}
	insts, err := parseInstantiations(file, s.Spec.Instantiate)
	if err != nil {
		return nil, err
	}
	config, err := toValueMap(s.Config, true)
	if err != nil {
		return nil, fmt.Errorf("[config]: %w", err)
	}
	vars, err := toValueMap(s.Variables, false)
	if err != nil {
		return nil, fmt.Errorf("[variables]: %w", err)
	}
	return &Executor{
		Spec:           s,
		Defs:           defs,
		Config:         config,
		Variables:      vars,
		Assignments:    assigns,
		Echoes:         echoes,
		Instantiations: insts,
		Reporter:       &SilentReporter{},
	}, nil
}

func buildDefinitions(file string, fns map[string]FunctionSpec, mods map[string]ModuleSpec) (*interp.Definitions, error) {
	defs := interp.NewDefinitions()
	for name, fs := range fns {
		params, err := vm.ParseParams(file, fs.Params)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", name, err)
		}
		body, err := vm.ParseExpr(file, fs.Body)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", name, err)
		}
		defs.Functions[name] = &interp.FunctionDef{Name: name, Params: params, Body: body, Loc: vm.ExprLocation(file, body)}
	}
	for name, ms := range mods {
		mod, err := buildModule(file, name, ms)
		if err != nil {
			return nil, err
		}
		defs.Modules[name] = mod
	}
	return defs, nil
}

func buildModule(file string, name string, ms ModuleSpec) (*interp.ModuleDef, error) {
	params, err := vm.ParseParams(file, ms.Params)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	nested, err := buildDefinitions(file, ms.Functions, ms.Modules)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	mod := &interp.ModuleDef{Name: name, Params: params, Defs: nested, Loc: vm.Location{File: file}}
	if mod.Assignments, err = parseAssignments(file, ms.Assign); err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	echoes, err := parseEchoes(file, ms.Echo)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	for _, e := range echoes {
		mod.Echoes = append(mod.Echoes, e.Expr)
	}
	if mod.Children, err = parseInstantiations(file, ms.Children); err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	return mod, nil
}

// toValueMap converts decoded TOML or YAML values. Keys are applied in
// sorted order; special keys get their '$' added when it is missing.
func toValueMap(in map[string]any, special bool) (*vm.ValueMap, error) {
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	sort.Strings(names)
	out := vm.NewValueMap()
	for _, k := range names {
		v, err := toValue(in[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		name := k
		if special && !vm.IsSpecial(name) {
			name = "$" + name
		}
		out.Set(name, v)
	}
	return out, nil
}

func toValue(x any) (vm.Value, error) {
	switch v := x.(type) {
	case nil:
		return vm.Undef, nil
	case bool:
		return vm.BoolValue(v), nil
	case int:
		return vm.NumberValue(v), nil
	case int64:
		return vm.NumberValue(v), nil
	case float64:
		return vm.NumberValue(v), nil
	case string:
		return vm.StrValue(v), nil
	case []any:
		out := make(vm.VectorValue, len(v))
		for i, item := range v {
			iv, err := toValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = iv
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", x, x)
}
