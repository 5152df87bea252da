package manifest

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

// Parse decodes catalog YAML without validating it.
func Parse(data []byte, path string) (*Catalog, error) {
	return parseTyped[Catalog](data, path)
}

// ParseFile reads and decodes a catalog file without validating it.
func ParseFile(path string) (*Catalog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// LoadFile reads a catalog, validates it against the schema and converts
// it to extension descriptors.
func LoadFile(path string) ([]*extension.Extension, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating catalog %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &InvalidCatalogError{Path: path, Issues: result.Issues}
	}

	catalog, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	return catalog.Descriptors()
}

// Descriptors converts the catalog entries to extension descriptors.
func (c *Catalog) Descriptors() ([]*extension.Extension, error) {
	exts := make([]*extension.Extension, 0, len(c.Extensions))
	for i, e := range c.Extensions {
		ext, err := e.extension()
		if err != nil {
			return nil, fmt.Errorf("extensions[%d] (%s): %w", i, e.ID, err)
		}
		ext.Repository = c.Repository
		exts = append(exts, ext)
	}
	return exts, nil
}

func (e Entry) extension() (*extension.Extension, error) {
	ext := &extension.Extension{
		ID:       e.ID,
		Version:  version.Parse(e.Version),
		Type:     e.Type,
		Name:     e.Name,
		Summary:  e.Summary,
		Features: e.Features,
	}
	for _, d := range e.Dependencies {
		c, err := version.ParseConstraint(d.Version)
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", d.ID, err)
		}
		ext.Dependencies = append(ext.Dependencies, extension.Dependency{ID: d.ID, Constraint: c, Optional: d.Optional})
	}
	return ext, nil
}

// InvalidCatalogError reports schema violations in a catalog file.
type InvalidCatalogError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *InvalidCatalogError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path != "" {
			parts = append(parts, issue.Path+": "+issue.Message)
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return fmt.Sprintf("invalid catalog %s: %s", e.Path, strings.Join(parts, "; "))
}

// parseTyped unmarshals YAML data into a typed struct.
func parseTyped[T any](data []byte, path string) (*T, error) {
	var m T
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return &m, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
