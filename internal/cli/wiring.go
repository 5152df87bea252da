package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentx-labs/extplan/internal/branding"
	"github.com/agentx-labs/extplan/internal/component"
	"github.com/agentx-labs/extplan/internal/config"
	"github.com/agentx-labs/extplan/internal/installed"
	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/manifest"
	"github.com/agentx-labs/extplan/internal/metrics"
	"github.com/agentx-labs/extplan/internal/remote"
	"github.com/agentx-labs/extplan/internal/repository"
	"github.com/agentx-labs/extplan/internal/tracing"
)

// runtime holds everything a command needs to plan or query.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *installed.Store
	chain    *repository.Chain
	registry *component.Registry
	tracing  *tracing.Provider
	gatherer *prometheus.Registry
	metrics  *metrics.Recorder
}

// loadConfig reads the config file and applies the --log-* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// openRuntime loads the configuration and builds every collaborator. Logs go
// to logOut. The caller must Close the result.
func openRuntime(ctx context.Context, logOut io.Writer) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := xlog.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return buildRuntime(ctx, cfg, logger)
}

func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *runtime, err error) {
	rt := &runtime{cfg: cfg, logger: logger}
	// Release whatever was opened before the failure.
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	core, err := loadCore(cfg.Core.File)
	if err != nil {
		return nil, err
	}

	rt.store, err = installed.Open(ctx, cfg.Installed.Database, installed.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	rt.chain, err = buildChain(cfg, logger)
	if err != nil {
		return nil, err
	}

	rt.tracing, err = tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	rt.gatherer = prometheus.NewRegistry()
	rt.metrics = metrics.NewRecorder(rt.gatherer)

	rt.registry = component.NewRegistry()
	rt.registry.Register(component.RoleCoreRepository, component.DefaultHint, core)
	rt.registry.Register(component.RoleLocalRepository, component.DefaultHint, rt.store)
	rt.registry.Register(component.RoleRemoteRepository, component.DefaultHint, rt.chain)
	rt.registry.Register(component.RoleHandlerRegistry, component.DefaultHint, repository.NewHandlerTable(cfg.Handlers...))

	xlog.For(logger, xlog.CatConfig).Debug("runtime ready",
		"repositories", len(cfg.Repositories),
		"core_extensions", len(core.CoreExtensions()),
		"handlers", cfg.Handlers,
		"tracing", rt.tracing.Enabled())
	return rt, nil
}

// Close releases the installed store and flushes pending spans.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.tracing != nil {
		errs = append(errs, rt.tracing.Shutdown(ctx))
	}
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	return errors.Join(errs...)
}

// loadCore builds the core registry from the catalog at path. An empty path
// means there are no core extensions.
func loadCore(path string) (*repository.CoreRegistry, error) {
	core := repository.NewCoreRegistry()
	if path == "" {
		return core, nil
	}
	exts, err := manifest.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading core extensions: %w", err)
	}
	for _, ext := range exts {
		core.Add(ext)
	}
	return core, nil
}

// buildChain creates one repository per configured entry, in priority order.
func buildChain(cfg *config.Config, logger *slog.Logger) (*repository.Chain, error) {
	repos := make([]repository.RemoteRepository, 0, len(cfg.Repositories))
	for _, rc := range cfg.Repositories {
		switch rc.Type {
		case config.RepositoryREST:
			opts := []remote.Option{
				remote.WithCacheTTL(cfg.Cache.TTL),
				remote.WithUserAgent(branding.CLIName() + "/" + buildVersion),
				remote.WithLogger(logger),
			}
			if rc.Timeout > 0 {
				opts = append(opts, remote.WithTimeout(rc.Timeout))
			}
			repos = append(repos, remote.New(rc.ID, rc.URL, opts...))
		case config.RepositoryFile:
			exts, err := manifest.LoadFile(rc.Path)
			if err != nil {
				return nil, fmt.Errorf("loading repository %s: %w", rc.ID, err)
			}
			repos = append(repos, repository.NewMemoryRemote(rc.ID, exts...))
		default:
			return nil, fmt.Errorf("repository %s: unknown type %q", rc.ID, rc.Type)
		}
	}
	return repository.NewChain(repos,
		repository.WithParallelism(cfg.Resolver.Parallelism),
		repository.WithCallTimeout(cfg.Resolver.CallTimeout),
		repository.WithLogger(logger),
	), nil
}
