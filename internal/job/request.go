package job

import (
	"fmt"
	"strings"

	"github.com/agentx-labs/extplan/internal/version"
)

// Request asks for one extension at one namespace.
type Request struct {
	ID         string
	Constraint version.Constraint
	Namespace  string
}

// ParseRequest reads "id" or "id@constraint".
func ParseRequest(s, namespace string) (Request, error) {
	id, raw, _ := strings.Cut(strings.TrimSpace(s), "@")
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, fmt.Errorf("parsing request %q: missing extension id", s)
	}
	c, err := version.ParseConstraint(raw)
	if err != nil {
		return Request{}, fmt.Errorf("parsing request %q: %w", s, err)
	}
	return Request{ID: id, Constraint: c, Namespace: namespace}, nil
}

func (r Request) String() string {
	s := r.ID
	if !r.Constraint.IsAny() {
		s += "@" + r.Constraint.String()
	}
	if r.Namespace != "" {
		s += " on " + r.Namespace
	}
	return s
}
