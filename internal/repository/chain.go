package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentx-labs/extplan/internal/extension"
	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/version"
)

// Chain is a RemoteRepository that delegates to an ordered list of
// repositories. The first repository in priority order that answers wins; a
// repository that fails or times out is treated as not having the extension.
type Chain struct {
	repos       []RemoteRepository
	parallelism int
	callTimeout time.Duration
	logger      *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithParallelism lets the chain query up to n repositories at once. The
// answer is still taken in priority order. n <= 1 queries sequentially.
func WithParallelism(n int) ChainOption {
	return func(c *Chain) {
		c.parallelism = n
	}
}

// WithCallTimeout bounds every single repository call. Zero means no bound.
func WithCallTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.callTimeout = d
	}
}

// WithLogger sets the logger used for per-repository failures.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = l
	}
}

// NewChain returns a chain over repos, highest priority first.
func NewChain(repos []RemoteRepository, opts ...ChainOption) *Chain {
	c := &Chain{
		repos:       append([]RemoteRepository(nil), repos...),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = xlog.For(c.logger, xlog.CatChain)
	return c
}

func (c *Chain) ID() string { return "chain" }

// Repositories returns the chained repositories in priority order.
func (c *Chain) Repositories() []RemoteRepository {
	return append([]RemoteRepository(nil), c.repos...)
}

// Repository returns the chained repository named id.
func (c *Chain) Repository(id string) (RemoteRepository, bool) {
	for _, r := range c.repos {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Resolve returns the extension supplied by the highest-priority repository
// able to satisfy id and constraint.
func (c *Chain) Resolve(ctx context.Context, id string, constraint version.Constraint) (*extension.Extension, error) {
	return firstAnswer(ctx, c, "resolve "+id+"@"+constraint.String(), func(ctx context.Context, r RemoteRepository) (*extension.Extension, error) {
		return r.Resolve(ctx, id, constraint)
	})
}

// ResolveVersions returns the version page of the highest-priority
// repository that knows id.
func (c *Chain) ResolveVersions(ctx context.Context, id string, offset, limit int) (*IterableResult[version.Version], error) {
	return firstAnswer(ctx, c, "versions of "+id, func(ctx context.Context, r RemoteRepository) (*IterableResult[version.Version], error) {
		return r.ResolveVersions(ctx, id, offset, limit)
	})
}

type answer[T any] struct {
	val T
	err error
}

func firstAnswer[T any](ctx context.Context, c *Chain, what string, call func(context.Context, RemoteRepository) (T, error)) (T, error) {
	var zero T
	if len(c.repos) == 0 {
		return zero, fmt.Errorf("%s: no repositories configured: %w", what, ErrNotFound)
	}

	answers := make([]answer[T], len(c.repos))
	if c.parallelism <= 1 {
		for i, r := range c.repos {
			v, err := callRepository(ctx, c, r, call)
			if err == nil {
				return v, nil
			}
			answers[i] = answer[T]{err: err}
			if ctx.Err() != nil {
				break
			}
		}
	} else {
		p := pool.New().WithMaxGoroutines(c.parallelism)
		for i, r := range c.repos {
			p.Go(func() {
				v, err := callRepository(ctx, c, r, call)
				answers[i] = answer[T]{val: v, err: err}
			})
		}
		p.Wait()
		for _, a := range answers {
			if a.err == nil {
				return a.val, nil
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	errs := []error{ErrNotFound}
	for i, a := range answers {
		if a.err == nil {
			continue
		}
		if !errors.Is(a.err, ErrNotFound) {
			c.logger.Debug("repository call failed", "repository", c.repos[i].ID(), "query", what, "error", a.err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.repos[i].ID(), a.err))
	}
	return zero, fmt.Errorf("%s: %w", what, errors.Join(errs...))
}

func callRepository[T any](ctx context.Context, c *Chain, r RemoteRepository, call func(context.Context, RemoteRepository) (T, error)) (T, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	return call(ctx, r)
}
