// Package cli defines the Cobra command tree for the extplan CLI. Each file
// registers one top-level command (plan, versions, installed, config,
// version) with the root command. Commands load the configuration, build the
// collaborators through the component registry and delegate to the internal
// packages; they only handle flags, output formatting and exit status.
package cli
