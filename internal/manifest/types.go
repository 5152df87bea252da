package manifest

// Catalog is a YAML list of extension descriptors.
type Catalog struct {
	// Repository names the repository the catalog describes, if any.
	Repository string  `yaml:"repository,omitempty" json:"repository,omitempty"`
	Extensions []Entry `yaml:"extensions" json:"extensions"`
}

// Entry describes one extension version.
type Entry struct {
	ID           string            `yaml:"id" json:"id"`
	Version      string            `yaml:"version" json:"version"`
	Type         string            `yaml:"type,omitempty" json:"type,omitempty"`
	Name         string            `yaml:"name,omitempty" json:"name,omitempty"`
	Summary      string            `yaml:"summary,omitempty" json:"summary,omitempty"`
	Features     []string          `yaml:"features,omitempty" json:"features,omitempty"`
	Dependencies []DependencyEntry `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// DependencyEntry is a declared dependency. Version is a constraint; empty
// means any version.
type DependencyEntry struct {
	ID       string `yaml:"id" json:"id"`
	Version  string `yaml:"version,omitempty" json:"version,omitempty"`
	Optional bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}
