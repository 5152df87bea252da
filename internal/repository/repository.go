package repository

import (
	"context"
	"errors"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

// ErrNotFound is returned when a repository has no extension matching a query.
var ErrNotFound = errors.New("extension not found")

// CoreRepository exposes the extensions embedded in the host application.
// Lookups match an extension id or any feature a core extension declares.
type CoreRepository interface {
	IsCoreExtension(id string) bool
	CoreExtension(id string) (*extension.Extension, bool)
	CoreExtensions() []*extension.Extension
}

// LocalRepository exposes installed extensions. An extension installed at a
// namespace overrides one installed at the root namespace for the same id.
// Lookups match an extension id or any of its features and return
// ErrNotFound when nothing is installed.
type LocalRepository interface {
	InstalledExtension(ctx context.Context, id, namespace string) (*extension.LocalExtension, error)
}

// RemoteRepository supplies extensions that can be installed.
type RemoteRepository interface {
	// ID names the repository in logs and descriptors.
	ID() string

	// Resolve returns the best extension matching constraint, or an error
	// wrapping ErrNotFound.
	Resolve(ctx context.Context, id string, constraint version.Constraint) (*extension.Extension, error)

	// ResolveVersions lists the versions of id starting at offset. A limit
	// of -1 asks for all remaining versions.
	ResolveVersions(ctx context.Context, id string, offset, limit int) (*IterableResult[version.Version], error)
}

// HandlerRegistry reports which extension types can be installed.
type HandlerRegistry interface {
	SupportsType(typ string) bool
}
