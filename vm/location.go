package vm

import (
	"fmt"
	"path/filepath"

	"go.starlark.net/syntax"
)

// Location is a source position carried by user facing errors.
type Location struct {
	File string
	Line int
	Col  int
}

var NoLocation = Location{}

func (l Location) IsNone() bool {
	return l == NoLocation
}

func (l Location) String() string {
	switch {
	case l.IsNone():
		return "<unknown>"
	case l.File == "":
		return fmt.Sprintf("line %d:%d", l.Line, l.Col)
	default:
		return fmt.Sprintf("%s:%d:%d", filepath.Base(l.File), l.Line, l.Col)
	}
}

// PosLocation converts a starlark position. file overrides the position's own
// filename when non-empty.
func PosLocation(file string, pos syntax.Position) Location {
	if !pos.IsValid() {
		return Location{File: file}
	}
	if file == "" {
		file = pos.Filename()
	}
	return Location{File: file, Line: int(pos.Line), Col: int(pos.Col)}
}

// ExprLocation returns the start position of e.
func ExprLocation(file string, e syntax.Node) Location {
	start, _ := e.Span()
	return PosLocation(file, start)
}
