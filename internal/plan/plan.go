package plan

import (
	"slices"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

// ActionType is what must happen to an extension to reach the planned state.
type ActionType int

const (
	Install ActionType = iota
	Upgrade
	Downgrade
	None
)

func (t ActionType) String() string {
	switch t {
	case Install:
		return "INSTALL"
	case Upgrade:
		return "UPGRADE"
	case Downgrade:
		return "DOWNGRADE"
	case None:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// Classify compares the requested version with the one currently present.
// A nil current means nothing is present.
func Classify(requested version.Version, current *version.Version) ActionType {
	if current == nil {
		return Install
	}
	switch c := requested.Compare(*current); {
	case c > 0:
		return Upgrade
	case c < 0:
		return Downgrade
	default:
		return None
	}
}

// Action is the planned change for one extension at one namespace.
type Action struct {
	Extension *extension.Extension
	// Previous is the installed extension being replaced, if any.
	Previous  *extension.LocalExtension
	Type      ActionType
	Namespace string
}

// Node is one entry of a plan tree. A node for a given (id, namespace) is
// shared by every parent that depends on it.
type Node struct {
	Action   Action
	Children []*Node
}

type actionKey struct {
	id        string
	namespace string
}

func keyOf(a Action) actionKey {
	return actionKey{id: a.Extension.ID, namespace: a.Namespace}
}

// Plan is the immutable result of a planning run.
type Plan struct {
	tree    []*Node
	actions []Action
}

// Tree returns the root nodes, one per request, in request order.
func (p *Plan) Tree() []*Node {
	return slices.Clone(p.tree)
}

// Actions returns every distinct action, dependencies before dependents.
func (p *Plan) Actions() []Action {
	return slices.Clone(p.actions)
}

// Assemble builds a plan from resolved roots. Actions are collected in
// post-order across all roots; each (id, namespace) appears once, at its
// first completion.
func Assemble(roots []*Node) *Plan {
	p := &Plan{tree: slices.Clone(roots)}

	seen := make(map[actionKey]bool)
	visited := make(map[*Node]bool)
	for _, root := range roots {
		p.actions = flatten(root, seen, visited, p.actions)
	}
	return p
}

func flatten(n *Node, seen map[actionKey]bool, visited map[*Node]bool, out []Action) []Action {
	if n == nil || visited[n] {
		return out
	}
	visited[n] = true

	for _, child := range n.Children {
		out = flatten(child, seen, visited, out)
	}

	k := keyOf(n.Action)
	if !seen[k] {
		seen[k] = true
		out = append(out, n.Action)
	}
	return out
}
