package repository

import (
	"slices"
	"strings"
	"sync"

	"github.com/agentx-labs/extplan/internal/extension"
)

// CoreRegistry is an in-memory CoreRepository. It indexes every core
// extension by id and by each declared feature.
type CoreRegistry struct {
	mu        sync.RWMutex
	byID      map[string]*extension.Extension
	byFeature map[string]*extension.Extension
}

// NewCoreRegistry returns a registry pre-populated with exts.
func NewCoreRegistry(exts ...*extension.Extension) *CoreRegistry {
	r := &CoreRegistry{
		byID:      make(map[string]*extension.Extension),
		byFeature: make(map[string]*extension.Extension),
	}
	for _, ext := range exts {
		r.Add(ext)
	}
	return r
}

// Add registers ext as a core extension, replacing any previous core
// extension with the same id.
func (r *CoreRegistry) Add(ext *extension.Extension) {
	cp := *ext
	cp.Origin = extension.OriginCore

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[cp.ID] = &cp
	for _, f := range cp.Features {
		r.byFeature[f] = &cp
	}
}

// IsCoreExtension reports whether id is a core extension id or feature.
func (r *CoreRegistry) IsCoreExtension(id string) bool {
	_, ok := r.CoreExtension(id)
	return ok
}

// CoreExtension returns the core extension providing id. Ids take
// precedence over features.
func (r *CoreRegistry) CoreExtension(id string) (*extension.Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext, ok := r.byID[id]; ok {
		return ext, true
	}
	ext, ok := r.byFeature[id]
	return ext, ok
}

// CoreExtensions returns all core extensions ordered by id.
func (r *CoreRegistry) CoreExtensions() []*extension.Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]*extension.Extension, 0, len(r.byID))
	for _, ext := range r.byID {
		exts = append(exts, ext)
	}
	slices.SortFunc(exts, func(a, b *extension.Extension) int {
		return strings.Compare(a.ID, b.ID)
	})
	return exts
}
