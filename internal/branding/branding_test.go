package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "extplan" {
		t.Errorf("CLIName() = %q, want extplan", got)
	}
	if got := HomeDir(); got != ".extplan" {
		t.Errorf("HomeDir() = %q, want .extplan", got)
	}
	if got := EnvVar("config"); got != "EXTPLAN_CONFIG" {
		t.Errorf("EnvVar(config) = %q, want EXTPLAN_CONFIG", got)
	}
}
