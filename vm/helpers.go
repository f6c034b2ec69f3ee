package vm

import (
	"fmt"
	"math/big"
	"strings"

	"go.starlark.net/syntax"
)

// specialPrefix stands in for '$' so special variable names survive the
// starlark scanner.
const specialPrefix = "__dollar_"

// SpecialName reports whether ident is a rewritten $-name and returns the
// original spelling.
func SpecialName(ident string) (string, bool) {
	if !strings.HasPrefix(ident, specialPrefix) {
		return ident, false
	}
	return "$" + strings.TrimPrefix(ident, specialPrefix), true
}

// IsSpecial reports whether a binding name is a $-prefixed config variable.
func IsSpecial(name string) bool {
	return strings.HasPrefix(name, "$")
}

// rewriteSpecials replaces $name outside of string literals.
func rewriteSpecials(src string) string {
	if !strings.Contains(src, "$") {
		return src
	}
	var b strings.Builder
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(c)
				i++
				c = src[i]
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '$' && i+1 < len(src) && isIdentStart(src[i+1]):
			b.WriteString(specialPrefix)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ParseExpr parses a single expression.
func ParseExpr(filename string, src string) (syntax.Expr, error) {
	opts := syntax.FileOptions{}
	return opts.ParseExpr(filename, rewriteSpecials(src), 0)
}

// Param is a declared parameter. Default is nil when the parameter has no
// default expression.
type Param struct {
	Name    string
	Default syntax.Expr
}

// ArgExpr is an unevaluated call-site argument.
type ArgExpr struct {
	Name string
	Expr syntax.Expr
}

// ParseParams parses a parameter list such as "a, b=10, c=a+b".
func ParseParams(filename string, src string) ([]Param, error) {
	call, err := parseCallExpr(filename, "_("+src+")")
	if err != nil {
		return nil, fmt.Errorf("parameter list %q: %w", src, err)
	}
	return getFunctionParams(call.Args)
}

func getFunctionParams(e []syntax.Expr) ([]Param, error) {
	var out []Param
	for _, x := range e {
		switch v := x.(type) {
		case *syntax.Ident:
			name, _ := SpecialName(v.Name)
			out = append(out, Param{Name: name})
		case *syntax.BinaryExpr:
			if v.Op != syntax.EQ {
				return nil, fmt.Errorf("Only assignments are allowed within a parameter list")
			}
			arg, ok := v.X.(*syntax.Ident)
			if !ok {
				return nil, fmt.Errorf("Parameter name must be an identifier")
			}
			name, _ := SpecialName(arg.Name)
			out = append(out, Param{Name: name, Default: v.Y})
		default:
			return nil, fmt.Errorf("Unhandled parameter expr type %T", x)
		}
	}
	return out, nil
}

// ParseCall parses an instantiation statement such as "box(size=3, 2)".
func ParseCall(filename string, src string) (string, []ArgExpr, Location, error) {
	call, err := parseCallExpr(filename, src)
	if err != nil {
		return "", nil, NoLocation, err
	}
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return "", nil, NoLocation, fmt.Errorf("%q: callee must be a name", src)
	}
	return fn.Name, CallArgs(call), ExprLocation(filename, call), nil
}

// CallArgs splits call arguments into named and positional ones.
func CallArgs(call *syntax.CallExpr) []ArgExpr {
	out := make([]ArgExpr, 0, len(call.Args))
	for _, a := range call.Args {
		if b, ok := a.(*syntax.BinaryExpr); ok && b.Op == syntax.EQ {
			if id, ok := b.X.(*syntax.Ident); ok {
				name, _ := SpecialName(id.Name)
				out = append(out, ArgExpr{Name: name, Expr: b.Y})
				continue
			}
		}
		out = append(out, ArgExpr{Expr: a})
	}
	return out
}

func parseCallExpr(filename string, src string) (*syntax.CallExpr, error) {
	e, err := ParseExpr(filename, src)
	if err != nil {
		return nil, err
	}
	call, ok := Unparen(e).(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("%q is not a call", src)
	}
	return call, nil
}

// ParseAssignment parses "name = expr".
func ParseAssignment(filename string, src string) (string, syntax.Expr, error) {
	opts := syntax.FileOptions{}
	f, err := opts.Parse(filename, rewriteSpecials(src), 0)
	if err != nil {
		return "", nil, err
	}
	if len(f.Stmts) != 1 {
		return "", nil, fmt.Errorf("%q: expected exactly one assignment", src)
	}
	a, ok := f.Stmts[0].(*syntax.AssignStmt)
	if !ok || a.Op != syntax.EQ {
		return "", nil, fmt.Errorf("%q is not an assignment", src)
	}
	id, ok := a.LHS.(*syntax.Ident)
	if !ok {
		return "", nil, fmt.Errorf("%q: can only assign to a name", src)
	}
	name, _ := SpecialName(id.Name)
	return name, a.RHS, nil
}

// Unparen strips any enclosing parentheses.
func Unparen(e syntax.Expr) syntax.Expr {
	if p, ok := e.(*syntax.ParenExpr); ok {
		return Unparen(p.X)
	}
	return e
}

// LitToValue converts a starlark literal token value.
func LitToValue(l any) (Value, error) {
	switch t := l.(type) {
	case int64:
		return NumberValue(float64(t)), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		return NumberValue(f), nil
	case float64:
		return NumberValue(t), nil
	case string:
		return StrValue(t), nil
	}
	return nil, fmt.Errorf("Unsupported literal value type %T", l)
}
