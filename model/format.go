package model

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/timewinder-dev/solidscope/cas"
	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
)

// FormatNode renders an instantiated node and its children as an indented
// tree.
func FormatNode(n *interp.Node) string {
	var b strings.Builder
	formatNode(&b, n, 0)
	return b.String()
}

func formatNode(b *strings.Builder, n *interp.Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(color.Cyan.Sprint(n.Name))
	b.WriteString("(")
	b.WriteString(bindings(n.Variables))
	b.WriteString(")")
	if n.Special.Len() > 0 {
		b.WriteString(" ")
		b.WriteString(color.Gray.Sprint("{" + bindings(n.Special) + "}"))
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		formatNode(b, c, depth+1)
	}
}

func bindings(m *vm.ValueMap) string {
	var parts []string
	m.Each(func(name string, v vm.Value) {
		parts = append(parts, name+"="+vm.FormatValue(v))
	})
	return strings.Join(parts, ", ")
}

func FormatDiagnostics(ds []Diagnostic) string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(color.Red.Sprint("ERROR: "))
		b.WriteString(color.Bold.Sprint(d.Statement))
		b.WriteString(": ")
		b.WriteString(d.Err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func FormatStatistics(stats RunStatistics) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Run statistics ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Statements run: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Statements))
	b.WriteString(color.Bold.Sprint("Nodes instantiated: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Nodes))
	b.WriteString(color.Bold.Sprint("Echoes: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Echoes))
	if stats.Snapshots > 0 {
		b.WriteString(color.Bold.Sprint("Frame snapshots: "))
		b.WriteString(fmt.Sprintf("%d\n", stats.Snapshots))
	}

	b.WriteString(color.Bold.Sprint("Errors: "))
	if stats.Diagnostics > 0 {
		b.WriteString(color.Red.Sprintf("%d\n", stats.Diagnostics))
	} else {
		b.WriteString(color.Green.Sprintf("%d\n", stats.Diagnostics))
	}
	b.WriteString(color.Bold.Sprint("Elapsed: "))
	b.WriteString(fmt.Sprintf("%s\n", stats.Duration))
	return b.String()
}

// FormatTrace rebuilds every recorded frame snapshot, in close order.
func FormatTrace(e *Executor) string {
	if e.Recorder == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(color.Cyan.Sprint("=== Frame trace ==="))
	b.WriteString("\n")
	for i, h := range e.Recorder.History() {
		f, err := cas.RecomposeFrame(e.Store, h, e.Session)
		if err != nil {
			fmt.Fprintf(&b, "  %3d. 0x%x (unavailable: %v)\n", i+1, uint64(h), err)
			continue
		}
		fmt.Fprintf(&b, "  %3d. 0x%x %s %s", i+1, uint64(h), f.Kind(), f.Name)
		if vars := bindings(f.LocalVariables()); vars != "" {
			fmt.Fprintf(&b, " [%s]", vars)
		}
		if cfg := bindings(f.LocalConfigVariables()); cfg != "" {
			b.WriteString(" ")
			b.WriteString(color.Gray.Sprint("{" + cfg + "}"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
