package extension

import (
	"slices"
	"testing"

	"github.com/agentx-labs/extplan/internal/version"
)

func TestProvides(t *testing.T) {
	ext := &Extension{
		ID:       "org.example:editor",
		Version:  version.Parse("1.0"),
		Features: []string{"editor", "org.example:legacy-editor"},
	}

	for _, id := range []string{"org.example:editor", "editor", "org.example:legacy-editor"} {
		if !ext.Provides(id) {
			t.Errorf("Provides(%q) = false, want true", id)
		}
	}
	if ext.Provides("org.example:other") {
		t.Error("Provides(org.example:other) = true, want false")
	}

	want := []string{"org.example:editor", "editor", "org.example:legacy-editor"}
	if got := ext.ProvidedIDs(); !slices.Equal(got, want) {
		t.Errorf("ProvidedIDs() = %v, want %v", got, want)
	}
}

func TestNewLocalCopiesDescriptor(t *testing.T) {
	remote := &Extension{ID: "x", Version: version.Parse("1.0"), Origin: OriginRemote}

	local := NewLocal(remote, "wiki:dev")

	if local.Origin != OriginInstalled {
		t.Errorf("local origin = %s, want installed", local.Origin)
	}
	if remote.Origin != OriginRemote {
		t.Errorf("remote origin changed to %s", remote.Origin)
	}
	if local.Namespace != "wiki:dev" {
		t.Errorf("namespace = %q, want wiki:dev", local.Namespace)
	}
}

func TestStrings(t *testing.T) {
	id := ID{ID: "x", Version: version.Parse("2.0")}
	if id.String() != "x/2.0" {
		t.Errorf("ID.String() = %q", id.String())
	}
	if (ID{ID: "x"}).String() != "x" {
		t.Errorf("versionless ID.String() = %q", (ID{ID: "x"}).String())
	}

	dep := Dependency{ID: "y", Constraint: version.MustParseConstraint(">=1.0"), Optional: true}
	if dep.String() != "y@>=1.0 (optional)" {
		t.Errorf("Dependency.String() = %q", dep.String())
	}

	core := NewCore("core", version.Parse("3.1"), "f")
	if core.String() != "core/3.1 (core)" {
		t.Errorf("Extension.String() = %q", core.String())
	}
}
