package fsm

import (
	"bytes"
	"fmt"
	"sort"
)

// ToDOT renders the machine's declared graph as Graphviz DOT: one node per
// state, a solid edge for each entry in To, and a dashed edge from a
// composite state to its entry substate. Output is deterministic — states
// and their edges are walked in sorted name order — so it can be diffed in
// tests or checked into docs.
func (m *Machine) ToDOT() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", quoteID(m.name))

	names := make([]string, 0, len(m.states))
	for name := range m.states {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := m.states[name]
		shape := "ellipse"
		if s.IsComposite() {
			shape = "doublecircle"
		}
		fmt.Fprintf(&buf, "\t%s [shape=%s];\n", quoteID(name), shape)
	}

	for _, name := range names {
		s := m.states[name]
		if s.IsComposite() {
			fmt.Fprintf(&buf, "\t%s -> %s [style=dashed, label=\"entry\"];\n", quoteID(name), quoteID(s.EntrySubstate()))
		}
		to := append([]string(nil), s.To...)
		sort.Strings(to)
		for _, target := range to {
			fmt.Fprintf(&buf, "\t%s -> %s;\n", quoteID(name), quoteID(target))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func quoteID(name string) string {
	return fmt.Sprintf("%q", name)
}
