package interp

import (
	"errors"
	"fmt"

	"github.com/timewinder-dev/solidscope/vm"
)

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrModuleNotFound    = errors.New("module not found")
)

type LookupKind int

const (
	UndefinedVariable LookupKind = iota
	FunctionNotFound
	ModuleNotFound
)

func (k LookupKind) sentinel() error {
	switch k {
	case FunctionNotFound:
		return ErrFunctionNotFound
	case ModuleNotFound:
		return ErrModuleNotFound
	default:
		return ErrUndefinedVariable
	}
}

// LookupError is returned by non-silent lookups that walked the whole
// parent chain without finding the name.
type LookupError struct {
	Kind LookupKind
	Name string
	Loc  vm.Location
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case FunctionNotFound:
		return fmt.Sprintf("%s: Ignoring unknown function '%s'", e.Loc, e.Name)
	case ModuleNotFound:
		return fmt.Sprintf("%s: Ignoring unknown module '%s'", e.Loc, e.Name)
	default:
		return fmt.Sprintf("%s: Ignoring unknown variable '%s'", e.Loc, e.Name)
	}
}

func (e *LookupError) Unwrap() error {
	return e.Kind.sentinel()
}

// StackImbalanceError is the panic payload raised when handles are closed out
// of order or a session is torn down with frames still active.
type StackImbalanceError struct {
	Op    string
	Depth int
}

func (e *StackImbalanceError) Error() string {
	return fmt.Sprintf("active frame stack imbalance during %s (depth %d)", e.Op, e.Depth)
}
