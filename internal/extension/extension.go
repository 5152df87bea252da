package extension

import (
	"fmt"
	"slices"

	"github.com/agentx-labs/extplan/internal/version"
)

// Origin tells where a resolved extension descriptor came from.
type Origin int

const (
	// OriginRemote is an extension supplied by a remote repository.
	OriginRemote Origin = iota
	// OriginCore is an extension embedded in the host application.
	OriginCore
	// OriginInstalled is an extension already installed at some namespace.
	OriginInstalled
)

func (o Origin) String() string {
	switch o {
	case OriginRemote:
		return "remote"
	case OriginCore:
		return "core"
	case OriginInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// ID identifies an extension at a version. Matching uses ID only.
type ID struct {
	ID      string
	Version version.Version
}

func (i ID) String() string {
	if i.Version.IsZero() {
		return i.ID
	}
	return i.ID + "/" + i.Version.String()
}

// Dependency is a declared requirement on another extension.
type Dependency struct {
	ID         string
	Constraint version.Constraint
	Optional   bool
}

func (d Dependency) String() string {
	s := d.ID + "@" + d.Constraint.String()
	if d.Optional {
		s += " (optional)"
	}
	return s
}

// Extension describes one version of an extension. Descriptors are not
// modified once a repository has returned them.
type Extension struct {
	ID           string
	Version      version.Version
	Type         string
	Name         string
	Summary      string
	Features     []string
	Dependencies []Dependency

	// Repository is the id of the repository that supplied the descriptor.
	Repository string
	Origin     Origin
}

// Ref returns the extension's identity.
func (e *Extension) Ref() ID {
	return ID{ID: e.ID, Version: e.Version}
}

// Provides reports whether the extension satisfies id, either as its own id
// or as one of its declared features.
func (e *Extension) Provides(id string) bool {
	return e.ID == id || slices.Contains(e.Features, id)
}

// ProvidedIDs returns the extension id followed by its features.
func (e *Extension) ProvidedIDs() []string {
	ids := make([]string, 0, 1+len(e.Features))
	ids = append(ids, e.ID)
	for _, f := range e.Features {
		if f != e.ID && !slices.Contains(ids, f) {
			ids = append(ids, f)
		}
	}
	return ids
}

func (e *Extension) String() string {
	return fmt.Sprintf("%s (%s)", e.Ref(), e.Origin)
}

// NewCore builds a core extension descriptor.
func NewCore(id string, v version.Version, features ...string) *Extension {
	return &Extension{
		ID:       id,
		Version:  v,
		Features: features,
		Origin:   OriginCore,
	}
}

// LocalExtension is an extension installed at a namespace. An empty
// namespace is the root scope.
type LocalExtension struct {
	*Extension

	Namespace string

	// Dependency is true when the extension was installed only to satisfy
	// another extension.
	Dependency bool
}

// NewLocal wraps ext as installed at namespace. The descriptor is copied so
// the caller's value keeps its origin.
func NewLocal(ext *Extension, namespace string) *LocalExtension {
	cp := *ext
	cp.Origin = OriginInstalled
	return &LocalExtension{Extension: &cp, Namespace: namespace}
}
