package plan

import (
	"fmt"
	"io"
	"strings"
)

// Print writes the plan trees with box-drawing characters followed by a
// per-action summary.
func Print(w io.Writer, p *Plan) {
	printed := make(map[*Node]bool)
	for _, root := range p.tree {
		printNode(w, root, "", true, true, printed)
	}
	fmt.Fprintln(w)

	counts := Counts(p)
	var parts []string
	for _, t := range []ActionType{Install, Upgrade, Downgrade, None} {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(t.String())))
		}
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "  Nothing to do")
		return
	}
	fmt.Fprintf(w, "  Plan: %s (%d extensions)\n", strings.Join(parts, ", "), len(p.actions))
}

func printNode(w io.Writer, n *Node, prefix string, isRoot, isLast bool, printed map[*Node]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}

	label := Label(n.Action)
	shared := printed[n]
	if shared && len(n.Children) > 0 {
		label += " (deduped)"
	}
	printed[n] = true

	if isRoot {
		fmt.Fprintf(w, "  %s\n", label)
	} else {
		fmt.Fprintf(w, "  %s%s%s\n", prefix, connector, label)
	}
	if shared {
		return
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range n.Children {
		printNode(w, child, childPrefix, false, i == len(n.Children)-1, printed)
	}
}

// Label renders one action on a single line, e.g.
// "UPGRADE b 1.0 -> 2.0 [wiki:dev]".
func Label(a Action) string {
	var b strings.Builder
	b.WriteString(a.Type.String())
	b.WriteByte(' ')
	if a.Previous != nil && a.Type != None {
		fmt.Fprintf(&b, "%s %s -> %s", a.Extension.ID, a.Previous.Version, a.Extension.Version)
		if a.Previous.ID != a.Extension.ID {
			fmt.Fprintf(&b, " (replaces %s)", a.Previous.ID)
		}
	} else {
		b.WriteString(a.Extension.Ref().String())
		if a.Type == None {
			fmt.Fprintf(&b, " (%s)", a.Extension.Origin)
		}
	}
	if a.Namespace != "" {
		fmt.Fprintf(&b, " [%s]", a.Namespace)
	}
	return b.String()
}

// Counts returns the number of actions of each type.
func Counts(p *Plan) map[ActionType]int {
	counts := make(map[ActionType]int)
	for _, a := range p.actions {
		counts[a.Type]++
	}
	return counts
}
