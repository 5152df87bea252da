package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentx-labs/extplan/internal/extension"
)

// MemoryInstalled is an in-memory LocalRepository.
type MemoryInstalled struct {
	mu sync.RWMutex
	// namespace -> installed extensions
	byNamespace map[string][]*extension.LocalExtension
}

// NewMemoryInstalled returns an empty installed-extension store.
func NewMemoryInstalled() *MemoryInstalled {
	return &MemoryInstalled{byNamespace: make(map[string][]*extension.LocalExtension)}
}

// Install records ext as installed at namespace, replacing any extension
// already installed there under the same id.
func (m *MemoryInstalled) Install(ext *extension.Extension, namespace string) *extension.LocalExtension {
	local := extension.NewLocal(ext, namespace)

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byNamespace[namespace]
	for i, existing := range list {
		if existing.ID == ext.ID {
			list[i] = local
			return local
		}
	}
	m.byNamespace[namespace] = append(list, local)
	return local
}

// InstalledExtension returns the extension providing id at namespace,
// falling back to the root namespace.
func (m *MemoryInstalled) InstalledExtension(_ context.Context, id, namespace string) (*extension.LocalExtension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if local := m.find(id, namespace); local != nil {
		return local, nil
	}
	if namespace != "" {
		if local := m.find(id, ""); local != nil {
			return local, nil
		}
	}
	return nil, fmt.Errorf("%s installed at %q: %w", id, namespace, ErrNotFound)
}

// Installed lists the extensions installed at namespace.
func (m *MemoryInstalled) Installed(namespace string) []*extension.LocalExtension {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*extension.LocalExtension(nil), m.byNamespace[namespace]...)
}

// find prefers an exact id match over a feature match.
func (m *MemoryInstalled) find(id, namespace string) *extension.LocalExtension {
	var byFeature *extension.LocalExtension
	for _, local := range m.byNamespace[namespace] {
		if local.ID == id {
			return local
		}
		if byFeature == nil && local.Provides(id) {
			byFeature = local
		}
	}
	return byFeature
}
