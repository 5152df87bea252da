package plan

import "strings"

// Summary is a serializable view of a plan for JSON and YAML output.
type Summary struct {
	Actions []ActionSummary `json:"actions" yaml:"actions"`
	Tree    []NodeSummary   `json:"tree" yaml:"tree"`
	Counts  map[string]int  `json:"counts" yaml:"counts"`
}

// ActionSummary flattens an Action into plain values.
type ActionSummary struct {
	Action          string `json:"action" yaml:"action"`
	ID              string `json:"id" yaml:"id"`
	Version         string `json:"version" yaml:"version"`
	Type            string `json:"type,omitempty" yaml:"type,omitempty"`
	Namespace       string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Origin          string `json:"origin" yaml:"origin"`
	Repository      string `json:"repository,omitempty" yaml:"repository,omitempty"`
	PreviousID      string `json:"previous_id,omitempty" yaml:"previous_id,omitempty"`
	PreviousVersion string `json:"previous_version,omitempty" yaml:"previous_version,omitempty"`
}

// NodeSummary is a tree entry with its dependencies.
type NodeSummary struct {
	ActionSummary `yaml:",inline"`
	Dependencies  []NodeSummary `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Summarize converts p into its serializable view.
func Summarize(p *Plan) Summary {
	s := Summary{Counts: make(map[string]int)}
	for _, a := range p.actions {
		s.Actions = append(s.Actions, summarizeAction(a))
	}
	for t, n := range Counts(p) {
		s.Counts[strings.ToLower(t.String())] = n
	}
	for _, root := range p.tree {
		s.Tree = append(s.Tree, summarizeNode(root))
	}
	return s
}

func summarizeNode(n *Node) NodeSummary {
	ns := NodeSummary{ActionSummary: summarizeAction(n.Action)}
	for _, child := range n.Children {
		ns.Dependencies = append(ns.Dependencies, summarizeNode(child))
	}
	return ns
}

func summarizeAction(a Action) ActionSummary {
	s := ActionSummary{
		Action:     a.Type.String(),
		ID:         a.Extension.ID,
		Version:    a.Extension.Version.String(),
		Type:       a.Extension.Type,
		Namespace:  a.Namespace,
		Origin:     a.Extension.Origin.String(),
		Repository: a.Extension.Repository,
	}
	if a.Previous != nil {
		s.PreviousID = a.Previous.ID
		s.PreviousVersion = a.Previous.Version.String()
	}
	return s
}
