package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/agentx-labs/extplan/internal/extension"
	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/plan"
	"github.com/agentx-labs/extplan/internal/repository"
	"github.com/agentx-labs/extplan/internal/version"
)

// Sources are the collaborators consulted during resolution, in the order
// core, installed, remote.
type Sources struct {
	Core      repository.CoreRepository
	Installed repository.LocalRepository
	Remote    repository.RemoteRepository
	Handlers  repository.HandlerRegistry
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

type memoKey struct {
	id        string
	namespace string
}

type memoEntry struct {
	node *plan.Node
	done bool
}

// Resolver turns extension requests into plan nodes. A Resolver serves a
// single planning run: nodes are memoized per (id, namespace) for the whole
// run and the first resolution wins. It is not safe for concurrent use.
type Resolver struct {
	src    Sources
	logger *slog.Logger

	memo map[memoKey]*memoEntry
	// memoLog records memo insertions so a failed optional dependency can
	// be rolled back.
	memoLog []memoKey
}

// New returns a resolver over src. Missing collaborators behave as empty
// sources; a missing handler registry supports no type.
func New(src Sources, opts ...Option) *Resolver {
	if src.Core == nil {
		src.Core = repository.NewCoreRegistry()
	}
	if src.Installed == nil {
		src.Installed = repository.NewMemoryInstalled()
	}
	if src.Remote == nil {
		src.Remote = repository.NewChain(nil)
	}
	if src.Handlers == nil {
		src.Handlers = repository.NewHandlerTable()
	}

	r := &Resolver{
		src:  src,
		memo: make(map[memoKey]*memoEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = xlog.For(r.logger, xlog.CatResolver)
	return r
}

// CheckRoot reports whether id may be requested at the top level. Ids and
// features provided by a core extension cannot.
func (r *Resolver) CheckRoot(id, namespace string) error {
	if id == "" {
		return installError(ReasonInvalidRequest, id, namespace, errors.New("empty extension id"))
	}
	if core, ok := r.src.Core.CoreExtension(id); ok {
		return installError(ReasonCoreExtension, id, namespace, fmt.Errorf("provided by %s", core.Ref()))
	}
	return nil
}

// ResolveRoot checks and resolves a top-level request.
func (r *Resolver) ResolveRoot(ctx context.Context, id string, constraint version.Constraint, namespace string) (*plan.Node, error) {
	if err := r.CheckRoot(id, namespace); err != nil {
		return nil, err
	}
	return r.Resolve(ctx, id, constraint, namespace)
}

// Resolve resolves id at namespace, reusing any node already resolved for
// the same (id, namespace) during this run.
func (r *Resolver) Resolve(ctx context.Context, id string, constraint version.Constraint, namespace string) (*plan.Node, error) {
	return r.resolve(ctx, id, constraint, namespace, nil)
}

func (r *Resolver) resolve(ctx context.Context, id string, constraint version.Constraint, namespace string, path []string) (*plan.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if slices.Contains(path, id) {
		return nil, installError(ReasonCyclicDependency, id, namespace, fmt.Errorf("path %v", append(slices.Clone(path), id)))
	}

	key := memoKey{id: id, namespace: namespace}
	if e, ok := r.memo[key]; ok {
		if !e.done {
			return nil, installError(ReasonCyclicDependency, id, namespace, errors.New("dependency is still being resolved"))
		}
		return e.node, nil
	}

	entry := &memoEntry{node: &plan.Node{}}
	r.remember(key, entry)

	// Repository calls inside a node are not interrupted; cancellation is
	// only observed between nodes.
	nctx := context.WithoutCancel(ctx)

	if core, ok := r.src.Core.CoreExtension(id); ok {
		entry.node.Action = plan.Action{Extension: core, Type: plan.None, Namespace: namespace}
		return r.finish(entry, core), nil
	}

	installed, err := r.installed(nctx, id, namespace)
	if err != nil {
		return nil, err
	}
	if installed != nil && constraint.Contains(installed.Version) {
		entry.node.Action = plan.Action{Extension: installed.Extension, Type: plan.None, Namespace: namespace}
		return r.finish(entry, installed.Extension), nil
	}

	ext, err := r.src.Remote.Resolve(nctx, id, constraint)
	if err != nil {
		return nil, installError(ReasonUnresolvedDependency, id, namespace, err)
	}
	if !r.src.Handlers.SupportsType(ext.Type) {
		return nil, installError(ReasonUnsupportedType, ext.ID, namespace, fmt.Errorf("type %q of %s", ext.Type, ext.Ref()))
	}
	for _, provided := range ext.ProvidedIDs() {
		if core, ok := r.src.Core.CoreExtension(provided); ok {
			return nil, installError(ReasonCoreExtension, ext.ID, namespace, fmt.Errorf("%s of %s is provided by %s", provided, ext.Ref(), core.Ref()))
		}
	}

	previous := installed
	if previous == nil {
		// Upgrade on a different id: the new extension replaces an installed
		// one registered under its id or one of its features.
		for _, provided := range ext.ProvidedIDs() {
			if provided == id {
				continue
			}
			if previous, err = r.installed(nctx, provided, namespace); err != nil {
				return nil, err
			}
			if previous != nil {
				break
			}
		}
	}

	action := plan.Action{Extension: ext, Type: plan.Install, Namespace: namespace}
	if previous != nil {
		action.Previous = previous
		action.Type = plan.Classify(ext.Version, &previous.Version)
		if action.Type == plan.None {
			entry.node.Action = plan.Action{Extension: previous.Extension, Type: plan.None, Namespace: namespace}
			return r.finish(entry, previous.Extension), nil
		}
	}
	entry.node.Action = action
	r.alias(entry, ext, namespace)

	childPath := append(slices.Clone(path), id)
	childPath = append(childPath, ext.ProvidedIDs()...)

	for _, dep := range ext.Dependencies {
		mark := len(r.memoLog)
		child, err := r.resolve(ctx, dep.ID, dep.Constraint, namespace, childPath)
		if err != nil {
			if !dep.Optional || ctx.Err() != nil {
				return nil, err
			}
			r.rollback(mark)
			r.logger.Debug("skipping optional dependency", "extension", ext.Ref().String(), "dependency", dep.String(), "namespace", namespace, "error", err)
			continue
		}
		entry.node.Children = append(entry.node.Children, child)
	}

	entry.done = true
	r.logger.Debug("resolved extension", "request", id, "extension", ext.Ref().String(), "namespace", namespace,
		"action", action.Type.String(), "repository", ext.Repository, "dependencies", len(entry.node.Children))
	return entry.node, nil
}

// installed returns the extension providing id at namespace, or nil when
// nothing is installed.
func (r *Resolver) installed(ctx context.Context, id, namespace string) (*extension.LocalExtension, error) {
	local, err := r.src.Installed.InstalledExtension(ctx, id, namespace)
	switch {
	case err == nil:
		return local, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	default:
		return nil, installError(ReasonUnresolvedDependency, id, namespace, err)
	}
}

// finish completes a leaf node and registers it under the ids ext provides.
func (r *Resolver) finish(entry *memoEntry, ext *extension.Extension) *plan.Node {
	r.alias(entry, ext, entry.node.Action.Namespace)
	entry.done = true
	r.logger.Debug("resolved extension", "extension", ext.Ref().String(), "namespace", entry.node.Action.Namespace,
		"action", entry.node.Action.Type.String(), "origin", ext.Origin.String())
	return entry.node
}

// alias registers entry under every id ext provides that is not already
// memoized.
func (r *Resolver) alias(entry *memoEntry, ext *extension.Extension, namespace string) {
	for _, provided := range ext.ProvidedIDs() {
		key := memoKey{id: provided, namespace: namespace}
		if _, ok := r.memo[key]; !ok {
			r.remember(key, entry)
		}
	}
}

func (r *Resolver) remember(key memoKey, entry *memoEntry) {
	r.memo[key] = entry
	r.memoLog = append(r.memoLog, key)
}

// rollback forgets every memo entry recorded after mark.
func (r *Resolver) rollback(mark int) {
	for _, key := range r.memoLog[mark:] {
		delete(r.memo, key)
	}
	r.memoLog = r.memoLog[:mark]
}
