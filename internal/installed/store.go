package installed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/agentx-labs/extplan/internal/extension"
	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/repository"
	"github.com/agentx-labs/extplan/internal/version"
)

// InMemory opens a private database that lives as long as the Store.
const InMemory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS installed_extensions (
	id           TEXT NOT NULL,
	namespace    TEXT NOT NULL DEFAULT '',
	version      TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT '',
	features     TEXT NOT NULL DEFAULT '[]',
	dependencies TEXT NOT NULL DEFAULT '[]',
	dependency   INTEGER NOT NULL DEFAULT 0,
	installed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id, namespace)
);
CREATE INDEX IF NOT EXISTS installed_extensions_namespace ON installed_extensions(namespace);
`

const columns = `id, namespace, version, type, name, features, dependencies, dependency`

// Store is a LocalRepository backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open opens (creating if needed) the database at path. Use InMemory for a
// throwaway store.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = xlog.For(s.logger, xlog.CatInstalled)

	dsn := path
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = "file:" + path
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening installed database %s: %w", path, err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating installed schema: %w", err)
	}
	s.logger.Debug("opened installed database", "path", path)

	s.db = db
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records ext as installed at namespace, replacing any extension with
// the same id there. dependency marks extensions installed only to satisfy
// another one.
func (s *Store) Add(ctx context.Context, ext *extension.Extension, namespace string, dependency bool) error {
	features, err := json.Marshal(nonNil(ext.Features))
	if err != nil {
		return fmt.Errorf("encoding features: %w", err)
	}
	deps := make([]storedDependency, 0, len(ext.Dependencies))
	for _, d := range ext.Dependencies {
		deps = append(deps, storedDependency{ID: d.ID, Constraint: d.Constraint.String(), Optional: d.Optional})
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("encoding dependencies: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO installed_extensions (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, namespace) DO UPDATE SET
			version = excluded.version,
			type = excluded.type,
			name = excluded.name,
			features = excluded.features,
			dependencies = excluded.dependencies,
			dependency = excluded.dependency,
			installed_at = CURRENT_TIMESTAMP`,
		ext.ID, namespace, ext.Version.String(), ext.Type, ext.Name, string(features), string(depsJSON), dependency)
	if err != nil {
		return fmt.Errorf("recording %s: %w", ext.Ref(), err)
	}
	s.logger.Debug("recorded installed extension", "extension", ext.Ref().String(), "namespace", namespace)
	return nil
}

// List returns the extensions installed at namespace ordered by id.
func (s *Store) List(ctx context.Context, namespace string) ([]*extension.LocalExtension, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM installed_extensions WHERE namespace = ? ORDER BY id`, namespace)
	if err != nil {
		return nil, fmt.Errorf("listing installed extensions: %w", err)
	}
	defer rows.Close()

	var out []*extension.LocalExtension
	for rows.Next() {
		local, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, local)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing installed extensions: %w", err)
	}
	return out, nil
}

// InstalledExtension returns the extension providing id at namespace,
// falling back to the root namespace. An id match wins over a feature match.
func (s *Store) InstalledExtension(ctx context.Context, id, namespace string) (*extension.LocalExtension, error) {
	namespaces := []string{namespace}
	if namespace != "" {
		namespaces = append(namespaces, "")
	}

	for _, ns := range namespaces {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+columns+` FROM installed_extensions e
			WHERE e.namespace = ?
			  AND (e.id = ? OR EXISTS (SELECT 1 FROM json_each(e.features) f WHERE f.value = ?))
			ORDER BY e.id = ? DESC, e.id
			LIMIT 1`, ns, id, id, id)

		local, err := scan(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("looking up %s at %q: %w", id, ns, err)
		}
		return local, nil
	}
	return nil, fmt.Errorf("%s installed at %q: %w", id, namespace, repository.ErrNotFound)
}

type storedDependency struct {
	ID         string `json:"id"`
	Constraint string `json:"constraint"`
	Optional   bool   `json:"optional,omitempty"`
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*extension.LocalExtension, error) {
	var (
		id, namespace, ver, typ, name, features, deps string
		dependency                                    bool
	)
	if err := row.Scan(&id, &namespace, &ver, &typ, &name, &features, &deps, &dependency); err != nil {
		return nil, err
	}

	ext := &extension.Extension{ID: id, Version: version.Parse(ver), Type: typ, Name: name}
	if err := json.Unmarshal([]byte(features), &ext.Features); err != nil {
		return nil, fmt.Errorf("decoding features of %s: %w", id, err)
	}
	var stored []storedDependency
	if err := json.Unmarshal([]byte(deps), &stored); err != nil {
		return nil, fmt.Errorf("decoding dependencies of %s: %w", id, err)
	}
	for _, d := range stored {
		c, err := version.ParseConstraint(d.Constraint)
		if err != nil {
			return nil, fmt.Errorf("dependency %s of %s: %w", d.ID, id, err)
		}
		ext.Dependencies = append(ext.Dependencies, extension.Dependency{ID: d.ID, Constraint: c, Optional: d.Optional})
	}
	if len(ext.Features) == 0 {
		ext.Features = nil
	}

	local := extension.NewLocal(ext, namespace)
	local.Dependency = dependency
	return local, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
