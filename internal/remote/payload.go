package remote

import (
	"fmt"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

type versionsPayload struct {
	Offset    int              `json:"offset"`
	TotalHits int              `json:"totalHits"`
	Summaries []versionSummary `json:"extensionVersionSummaries"`
}

type versionSummary struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

type descriptorPayload struct {
	ID           string              `json:"id"`
	Version      string              `json:"version"`
	Type         string              `json:"type"`
	Name         string              `json:"name,omitempty"`
	Summary      string              `json:"summary,omitempty"`
	Features     []string            `json:"features,omitempty"`
	Dependencies []dependencyPayload `json:"dependencies,omitempty"`
}

type dependencyPayload struct {
	ID         string `json:"id"`
	Constraint string `json:"constraint,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
}

func (p versionsPayload) versions() []version.Version {
	out := make([]version.Version, 0, len(p.Summaries))
	for _, s := range p.Summaries {
		out = append(out, version.Parse(s.Version))
	}
	return out
}

func (p descriptorPayload) extension(repository string) (*extension.Extension, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("descriptor without id")
	}
	ext := &extension.Extension{
		ID:         p.ID,
		Version:    version.Parse(p.Version),
		Type:       p.Type,
		Name:       p.Name,
		Summary:    p.Summary,
		Features:   p.Features,
		Repository: repository,
		Origin:     extension.OriginRemote,
	}
	for _, d := range p.Dependencies {
		c, err := version.ParseConstraint(d.Constraint)
		if err != nil {
			return nil, fmt.Errorf("dependency %s of %s: %w", d.ID, p.ID, err)
		}
		ext.Dependencies = append(ext.Dependencies, extension.Dependency{ID: d.ID, Constraint: c, Optional: d.Optional})
	}
	return ext, nil
}
