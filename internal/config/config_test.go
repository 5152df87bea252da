package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Resolver.Parallelism != 1 {
		t.Errorf("Resolver.Parallelism = %d, want 1", cfg.Resolver.Parallelism)
	}
	if cfg.Resolver.CallTimeout != 30*time.Second {
		t.Errorf("Resolver.CallTimeout = %v, want 30s", cfg.Resolver.CallTimeout)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want info/text", cfg.Log)
	}
	if len(cfg.Handlers) != 3 {
		t.Errorf("Handlers = %v, want 3 defaults", cfg.Handlers)
	}
	if !strings.HasSuffix(cfg.Installed.Database, "installed.db") {
		t.Errorf("Installed.Database = %q, want suffix installed.db", cfg.Installed.Database)
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled = true, want false")
	}
	if len(cfg.Repositories) != 0 {
		t.Errorf("Repositories = %v, want none", cfg.Repositories)
	}
}

func TestLoad_File(t *testing.T) {
	resetViper(t)

	path := writeConfig(t, `
repositories:
  - id: central
    type: rest
    url: https://extensions.example.org/rest
    timeout: 5s
  - id: local
    type: file
    path: ./catalog.yaml
core:
  file: ./core.yaml
handlers: [jar]
resolver:
  parallelism: 4
  call_timeout: 2s
log:
  level: debug
  format: json
tracing:
  enabled: true
  exporter: stdout
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Repositories) != 2 {
		t.Fatalf("Repositories = %d, want 2", len(cfg.Repositories))
	}
	central := cfg.Repositories[0]
	if central.ID != "central" || central.Type != RepositoryREST || central.Timeout != 5*time.Second {
		t.Errorf("Repositories[0] = %+v", central)
	}
	if cfg.Repositories[1].Path != "./catalog.yaml" {
		t.Errorf("Repositories[1].Path = %q", cfg.Repositories[1].Path)
	}
	if cfg.Core.File != "./core.yaml" {
		t.Errorf("Core.File = %q", cfg.Core.File)
	}
	if cfg.Resolver.Parallelism != 4 || cfg.Resolver.CallTimeout != 2*time.Second {
		t.Errorf("Resolver = %+v", cfg.Resolver)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "stdout" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	// Unset tracing keys keep their defaults.
	if cfg.Tracing.ServiceName != "extplan" {
		t.Errorf("Tracing.ServiceName = %q, want extplan", cfg.Tracing.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("EXTPLAN_LOG_LEVEL", "warn")
	t.Setenv("EXTPLAN_RESOLVER_PARALLELISM", "8")

	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Resolver.Parallelism != 8 {
		t.Errorf("Resolver.Parallelism = %d, want 8", cfg.Resolver.Parallelism)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	resetViper(t)

	if _, err := Load(writeConfig(t, "repositories: [\n")); err == nil {
		t.Fatal("Load() expected error for malformed file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: Config{
				Repositories: []RepositoryConfig{
					{ID: "a", Type: RepositoryREST, URL: "http://a"},
					{ID: "b", Type: RepositoryFile, Path: "b.yaml"},
				},
				Resolver: ResolverConfig{Parallelism: 1},
			},
		},
		{
			name:    "missing id",
			cfg:     Config{Repositories: []RepositoryConfig{{Type: RepositoryREST, URL: "http://a"}}, Resolver: ResolverConfig{Parallelism: 1}},
			wantErr: "id is required",
		},
		{
			name: "duplicate id",
			cfg: Config{
				Repositories: []RepositoryConfig{
					{ID: "a", Type: RepositoryREST, URL: "http://a"},
					{ID: "a", Type: RepositoryFile, Path: "a.yaml"},
				},
				Resolver: ResolverConfig{Parallelism: 1},
			},
			wantErr: "duplicate id",
		},
		{
			name:    "rest without url",
			cfg:     Config{Repositories: []RepositoryConfig{{ID: "a", Type: RepositoryREST}}, Resolver: ResolverConfig{Parallelism: 1}},
			wantErr: "url is required",
		},
		{
			name:    "file without path",
			cfg:     Config{Repositories: []RepositoryConfig{{ID: "a", Type: RepositoryFile}}, Resolver: ResolverConfig{Parallelism: 1}},
			wantErr: "path is required",
		},
		{
			name:    "unknown type",
			cfg:     Config{Repositories: []RepositoryConfig{{ID: "a", Type: "maven"}}, Resolver: ResolverConfig{Parallelism: 1}},
			wantErr: "unknown type",
		},
		{
			name:    "zero parallelism",
			cfg:     Config{},
			wantErr: "parallelism",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetAndGet(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if _, err := Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := Set("log.level", "debug"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := Get("log.level"); got != "debug" {
		t.Errorf("Get(log.level) = %q, want debug", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	if !strings.Contains(string(data), "debug") {
		t.Errorf("written config does not contain the new value:\n%s", data)
	}

	viper.Reset()
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("reloaded Log.Level = %q, want debug", cfg.Log.Level)
	}
}
