package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

// MemoryRemote is a RemoteRepository serving a fixed set of descriptors.
// File-backed repositories and tests use it.
type MemoryRemote struct {
	id string

	mu   sync.RWMutex
	exts map[string][]*extension.Extension
}

// NewMemoryRemote returns a repository named id holding exts.
func NewMemoryRemote(id string, exts ...*extension.Extension) *MemoryRemote {
	r := &MemoryRemote{id: id, exts: make(map[string][]*extension.Extension)}
	for _, ext := range exts {
		r.Add(ext)
	}
	return r
}

// Add publishes ext in the repository.
func (r *MemoryRemote) Add(ext *extension.Extension) {
	cp := *ext
	cp.Repository = r.id
	cp.Origin = extension.OriginRemote

	r.mu.Lock()
	defer r.mu.Unlock()

	// Readers may still hold the previous slice; never sort it in place.
	list := append(slices.Clone(r.exts[cp.ID]), &cp)
	slices.SortStableFunc(list, func(a, b *extension.Extension) int {
		return a.Version.Compare(b.Version)
	})
	r.exts[cp.ID] = list
}

func (r *MemoryRemote) ID() string { return r.id }

// Resolve returns the highest version of id satisfying constraint. When no
// extension carries id, extensions declaring id as a feature are considered;
// equal versions are broken by the lowest extension id.
func (r *MemoryRemote) Resolve(ctx context.Context, id string, constraint version.Constraint) (*extension.Extension, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext := highest(r.exts[id], constraint); ext != nil {
		return ext, nil
	}

	var best *extension.Extension
	for _, list := range r.exts {
		for _, ext := range list {
			if !slices.Contains(ext.Features, id) || !constraint.Contains(ext.Version) {
				continue
			}
			if best == nil || better(ext, best) {
				best = ext
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s@%s in repository %s: %w", id, constraint, r.id, ErrNotFound)
	}
	return best, nil
}

// ResolveVersions lists the versions of id in ascending order.
func (r *MemoryRemote) ResolveVersions(ctx context.Context, id string, offset, limit int) (*IterableResult[version.Version], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	list := r.exts[id]
	r.mu.RUnlock()

	if len(list) == 0 {
		return nil, fmt.Errorf("versions of %s in repository %s: %w", id, r.id, ErrNotFound)
	}

	versions := make([]version.Version, 0, len(list))
	for _, ext := range list {
		versions = append(versions, ext.Version)
	}
	return SliceResult(offset, len(versions), page(versions, offset, limit)), nil
}

// better orders feature candidates by version, then by lowest id.
func better(a, b *extension.Extension) bool {
	if c := a.Version.Compare(b.Version); c != 0 {
		return c > 0
	}
	return a.ID < b.ID
}

// highest returns the last entry of an ascending list accepted by c.
func highest(list []*extension.Extension, c version.Constraint) *extension.Extension {
	for i := len(list) - 1; i >= 0; i-- {
		if c.Contains(list[i].Version) {
			return list[i]
		}
	}
	return nil
}

// page slices items by offset and limit. A negative limit means all.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
