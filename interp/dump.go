package interp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/timewinder-dev/solidscope/vm"
)

// Dump returns a human readable listing of the frame's local bindings.
// construct names what created the frame, e.g. an instantiation.
func (f *Frame) Dump(construct string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %p (%s)", f, f.kind)
	if f.Name != "" {
		fmt.Fprintf(&b, " %s", f.Name)
	}
	b.WriteString("\n")
	if construct != "" {
		fmt.Fprintf(&b, "  construct: %s\n", construct)
	}
	if f.parent != nil {
		fmt.Fprintf(&b, "  parent: %p (%s)\n", f.parent, f.parent.kind)
	}
	if f.kind != BuiltinFrame {
		dumpMap(&b, "variables", f.variables)
	}
	dumpMap(&b, "config variables", f.configVariables)
	if f.kind != BuiltinFrame {
		dumpNames(&b, "functions", keys(f.functions))
		dumpNames(&b, "modules", keys(f.modules))
	}
	return b.String()
}

// DumpStack dumps every active frame, innermost first.
func (s *Session) DumpStack() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (document root %q), %d active frames\n", s.ID, s.documentRoot, len(s.stack))
	for i := len(s.stack) - 1; i >= 0; i-- {
		b.WriteString(s.stack[i].Dump(""))
	}
	return b.String()
}

func dumpMap(b *strings.Builder, title string, m *vm.ValueMap) {
	if m.Len() == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", title)
	m.Each(func(name string, v vm.Value) {
		fmt.Fprintf(b, "    %s = %s\n", name, vm.FormatValue(v))
	})
}

func dumpNames(b *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", title, strings.Join(names, ", "))
}

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
