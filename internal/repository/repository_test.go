package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

func ext(id, v string, features ...string) *extension.Extension {
	return &extension.Extension{ID: id, Version: version.Parse(v), Type: "jar", Features: features}
}

func TestCoreRegistryMatchesIDsAndFeatures(t *testing.T) {
	core := NewCoreRegistry(ext("platform-core", "1.0", "platform-api"), ext("logging", "2.0"))

	assert.True(t, core.IsCoreExtension("platform-core"))
	assert.True(t, core.IsCoreExtension("platform-api"))
	assert.False(t, core.IsCoreExtension("other"))

	got, ok := core.CoreExtension("platform-api")
	require.True(t, ok)
	assert.Equal(t, "platform-core", got.ID)
	assert.Equal(t, extension.OriginCore, got.Origin)

	ids := []string{}
	for _, e := range core.CoreExtensions() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"logging", "platform-core"}, ids)
}

func TestMemoryInstalledNamespaceFallback(t *testing.T) {
	store := NewMemoryInstalled()
	store.Install(ext("a", "1.0"), "")
	store.Install(ext("a", "2.0"), "wiki:sub")
	store.Install(ext("b", "1.0", "b-api"), "")

	ctx := context.Background()

	got, err := store.InstalledExtension(ctx, "a", "wiki:sub")
	require.NoError(t, err)
	assert.Equal(t, "2.0", got.Version.String())
	assert.Equal(t, "wiki:sub", got.Namespace)

	got, err = store.InstalledExtension(ctx, "a", "wiki:other")
	require.NoError(t, err)
	assert.Equal(t, "1.0", got.Version.String())

	got, err = store.InstalledExtension(ctx, "b-api", "wiki:sub")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
	assert.Equal(t, extension.OriginInstalled, got.Origin)

	_, err = store.InstalledExtension(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInstalledReplacesSameID(t *testing.T) {
	store := NewMemoryInstalled()
	store.Install(ext("a", "1.0"), "")
	store.Install(ext("a", "1.1"), "")

	list := store.Installed("")
	require.Len(t, list, 1)
	assert.Equal(t, "1.1", list[0].Version.String())
}

func TestMemoryRemoteResolve(t *testing.T) {
	repo := NewMemoryRemote("central",
		ext("a", "1.0"), ext("a", "2.0"), ext("a", "1.5"),
		ext("impl", "3.0", "api"),
	)
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		constraint string
		want       string
		wantErr    bool
	}{
		{name: "any picks highest", id: "a", constraint: "", want: "a/2.0"},
		{name: "exact", id: "a", constraint: "1.5", want: "a/1.5"},
		{name: "range", id: "a", constraint: "<2.0", want: "a/1.5"},
		{name: "feature", id: "api", constraint: "", want: "impl/3.0"},
		{name: "no match", id: "a", constraint: ">=3.0", wantErr: true},
		{name: "unknown", id: "zzz", constraint: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Resolve(ctx, tt.id, version.MustParseConstraint(tt.constraint))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Ref().String())
			assert.Equal(t, "central", got.Repository)
			assert.Equal(t, extension.OriginRemote, got.Origin)
		})
	}
}

func TestMemoryRemoteResolveVersions(t *testing.T) {
	repo := NewMemoryRemote("central", ext("a", "2.0"), ext("a", "1.0"), ext("a", "1.5"))

	res, err := repo.ResolveVersions(context.Background(), "a", 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Offset())
	assert.Equal(t, 3, res.TotalHits())

	var got []string
	for v := range res.All() {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"1.5", "2.0"}, got)
	assert.Empty(t, res.Collect(), "second iteration must yield nothing")

	res, err = repo.ResolveVersions(context.Background(), "a", 0, 1)
	require.NoError(t, err)
	assert.Len(t, res.Collect(), 1)
}

func TestMemoryRemoteFeatureTieBreak(t *testing.T) {
	repo := NewMemoryRemote("central",
		ext("impl-c", "1.0", "api"),
		ext("impl-a", "1.0", "api"),
		ext("impl-b", "1.0", "api"),
		ext("impl-old", "0.9", "api"),
	)

	for range 50 {
		got, err := repo.Resolve(context.Background(), "api", version.Any)
		require.NoError(t, err)
		require.Equal(t, "impl-a/1.0", got.Ref().String())
	}
}

func TestMemoryRemoteConcurrentAddAndList(t *testing.T) {
	repo := NewMemoryRemote("central", ext("a", "5.0"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 10; i > 0; i-- {
			repo.Add(ext("a", fmt.Sprintf("%d.0", i)))
		}
	}()

	for range 50 {
		res, err := repo.ResolveVersions(context.Background(), "a", 0, -1)
		require.NoError(t, err)
		got := res.Collect()
		assert.True(t, slices.IsSortedFunc(got, version.Version.Compare), "versions out of order: %v", got)
	}
	wg.Wait()

	res, err := repo.ResolveVersions(context.Background(), "a", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 11, res.TotalHits())
}

func TestIterableResultKeepsReportedCounts(t *testing.T) {
	res := SliceResult(5, 7, []version.Version{version.Parse("1.3"), version.Parse("2.4.1")})
	assert.Equal(t, 5, res.Offset())
	assert.Equal(t, 7, res.TotalHits())
	assert.Len(t, res.Collect(), 2)
}

type stubRemote struct {
	id    string
	delay time.Duration
	err   error
	ext   *extension.Extension
	calls atomic.Int32
}

func (s *stubRemote) ID() string { return s.id }

func (s *stubRemote) Resolve(ctx context.Context, id string, _ version.Constraint) (*extension.Extension, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.ext == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return s.ext, nil
}

func (s *stubRemote) ResolveVersions(context.Context, string, int, int) (*IterableResult[version.Version], error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.ext == nil {
		return nil, ErrNotFound
	}
	return SliceResult(0, 1, []version.Version{s.ext.Version}), nil
}

func TestChainPriorityOrder(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			broken := &stubRemote{id: "broken", err: errors.New("connection refused")}
			empty := &stubRemote{id: "empty"}
			low := &stubRemote{id: "low", ext: ext("a", "1.0")}
			lower := &stubRemote{id: "lower", ext: ext("a", "9.0")}

			chain := NewChain([]RemoteRepository{broken, empty, low, lower}, WithParallelism(parallelism))
			got, err := chain.Resolve(context.Background(), "a", version.Any)
			require.NoError(t, err)
			assert.Equal(t, "1.0", got.Version.String())

			res, err := chain.ResolveVersions(context.Background(), "a", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"1.0"}, versionStrings(res.Collect()))
		})
	}
}

func TestChainSequentialStopsAtFirstAnswer(t *testing.T) {
	first := &stubRemote{id: "first", ext: ext("a", "1.0")}
	second := &stubRemote{id: "second", ext: ext("a", "2.0")}

	chain := NewChain([]RemoteRepository{first, second})
	_, err := chain.Resolve(context.Background(), "a", version.Any)
	require.NoError(t, err)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestChainNotFound(t *testing.T) {
	cause := errors.New("boom")
	chain := NewChain([]RemoteRepository{&stubRemote{id: "x", err: cause}, &stubRemote{id: "y"}})

	_, err := chain.Resolve(context.Background(), "a", version.Any)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)

	_, err = NewChain(nil).Resolve(context.Background(), "a", version.Any)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChainCallTimeoutFallsThrough(t *testing.T) {
	slow := &stubRemote{id: "slow", delay: time.Second, ext: ext("a", "2.0")}
	fast := &stubRemote{id: "fast", ext: ext("a", "1.0")}

	chain := NewChain([]RemoteRepository{slow, fast}, WithCallTimeout(20*time.Millisecond))
	got, err := chain.Resolve(context.Background(), "a", version.Any)
	require.NoError(t, err)
	assert.Equal(t, "1.0", got.Version.String())
}

func TestChainRepositoryLookup(t *testing.T) {
	a := NewMemoryRemote("a")
	chain := NewChain([]RemoteRepository{a})

	got, ok := chain.Repository("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = chain.Repository("b")
	assert.False(t, ok)
	assert.Len(t, chain.Repositories(), 1)
}

func TestHandlerTable(t *testing.T) {
	h := NewHandlerTable("jar", "xar")
	assert.True(t, h.SupportsType("jar"))
	assert.False(t, h.SupportsType("webjar"))
	assert.Equal(t, []string{"jar", "xar"}, h.Types())
}

func versionStrings(vs []version.Version) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}
	slices.Sort(out)
	return out
}
