package plan

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

func node(id, v string, t ActionType, children ...*Node) *Node {
	return &Node{
		Action: Action{
			Extension: &extension.Extension{ID: id, Version: version.Parse(v)},
			Type:      t,
		},
		Children: children,
	}
}

func actionIDs(actions []Action) []string {
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.Extension.ID)
	}
	return ids
}

func TestClassify(t *testing.T) {
	v := func(s string) *version.Version {
		p := version.Parse(s)
		return &p
	}
	tests := []struct {
		requested string
		current   *version.Version
		want      ActionType
	}{
		{"1.0", nil, Install},
		{"1.0", v("1.0"), None},
		{"1.0", v("1.0.0"), None},
		{"2.0", v("1.0"), Upgrade},
		{"1.0", v("2.0"), Downgrade},
		{"1.10", v("1.9"), Upgrade},
	}
	for _, tt := range tests {
		if got := Classify(version.Parse(tt.requested), tt.current); got != tt.want {
			cur := "<nil>"
			if tt.current != nil {
				cur = tt.current.String()
			}
			t.Errorf("Classify(%s, %s) = %s, want %s", tt.requested, cur, got, tt.want)
		}
	}
}

func TestAssembleSingleChain(t *testing.T) {
	y := node("y", "1.0", Install)
	x := node("x", "1.0", Install, y)

	p := Assemble([]*Node{x})

	if got := actionIDs(p.Actions()); strings.Join(got, ",") != "y,x" {
		t.Errorf("Actions() = %v, want [y x]", got)
	}
	if tree := p.Tree(); len(tree) != 1 || tree[0] != x {
		t.Errorf("Tree() = %v, want [x]", tree)
	}
}

func TestAssembleSharedNodeAppearsOnce(t *testing.T) {
	// a -> {b, c}, b -> d, c -> d, and a second root e -> d.
	d := node("d", "1.0", Install)
	b := node("b", "1.0", Install, d)
	c := node("c", "1.0", Install, d)
	a := node("a", "1.0", Install, b, c)
	e := node("e", "1.0", Install, d)

	p := Assemble([]*Node{a, e})
	got := actionIDs(p.Actions())
	if strings.Join(got, ",") != "d,b,c,a,e" {
		t.Fatalf("Actions() = %v, want [d b c a e]", got)
	}

	pos := make(map[string]int)
	for i, id := range got {
		pos[id] = i
	}
	for _, n := range []*Node{a, b, c, e} {
		for _, child := range n.Children {
			if pos[child.Action.Extension.ID] >= pos[n.Action.Extension.ID] {
				t.Errorf("%s listed after its dependent %s", child.Action.Extension.ID, n.Action.Extension.ID)
			}
		}
	}
}

func TestAssembleKeysOnNamespace(t *testing.T) {
	root := node("x", "1.0", Install)
	sub := node("x", "1.0", Install)
	sub.Action.Namespace = "wiki:sub"

	p := Assemble([]*Node{root, sub})
	if n := len(p.Actions()); n != 2 {
		t.Errorf("len(Actions()) = %d, want 2 (one per namespace)", n)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := Assemble([]*Node{node("x", "1.0", Install)})

	tree := p.Tree()
	tree[0] = nil
	actions := p.Actions()
	actions[0].Type = Downgrade

	if p.Tree()[0] == nil {
		t.Error("Tree() exposed internal slice")
	}
	if p.Actions()[0].Type != Install {
		t.Error("Actions() exposed internal slice")
	}
}

func TestPrint(t *testing.T) {
	d := node("d", "1.0", Install)
	b := node("b", "2.0", Upgrade, d)
	b.Action.Previous = extension.NewLocal(&extension.Extension{ID: "b", Version: version.Parse("1.0")}, "")
	c := node("c", "1.0", None)
	c.Action.Extension.Origin = extension.OriginCore
	a := node("a", "1.0", Install, b, c, d)

	var buf bytes.Buffer
	Print(&buf, Assemble([]*Node{a}))
	out := buf.String()

	for _, want := range []string{
		"  INSTALL a/1.0\n",
		"├── UPGRADE b 1.0 -> 2.0\n",
		"│   └── INSTALL d/1.0\n",
		"├── NONE c/1.0 (core)\n",
		"└── INSTALL d/1.0\n",
		"Plan: 2 install, 1 upgrade, 1 none (4 extensions)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeJSON(t *testing.T) {
	y := node("y", "1.0", Install)
	y.Action.Extension.Repository = "central"
	x := node("x", "1.0", Install, y)

	data, err := json.Marshal(Summarize(Assemble([]*Node{x})))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got struct {
		Actions []struct {
			ID         string `json:"id"`
			Action     string `json:"action"`
			Repository string `json:"repository"`
		} `json:"actions"`
		Tree []struct {
			ID           string `json:"id"`
			Dependencies []struct {
				ID string `json:"id"`
			} `json:"dependencies"`
		} `json:"tree"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Actions) != 2 || got.Actions[0].ID != "y" || got.Actions[0].Repository != "central" {
		t.Errorf("actions = %+v", got.Actions)
	}
	if len(got.Tree) != 1 || len(got.Tree[0].Dependencies) != 1 || got.Tree[0].Dependencies[0].ID != "y" {
		t.Errorf("tree = %+v", got.Tree)
	}
	if got.Counts["install"] != 2 {
		t.Errorf("counts = %v", got.Counts)
	}
}
