package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/extplan/internal/extension"
	"github.com/agentx-labs/extplan/internal/version"
)

var (
	installedNamespace  string
	installedJSON       bool
	installedType       string
	installedName       string
	installedFeatures   []string
	installedDependency bool
)

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "Inspect or seed the installed state",
	Long: `Inspect the installed-state database read by the planner, or record
extensions in it. Planning itself never writes the installed state.`,
}

var installedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Args:  cobra.NoArgs,
	RunE:  runInstalledList,
}

var installedAddCmd = &cobra.Command{
	Use:   "add <id@version>",
	Short: "Record an extension as installed",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstalledAdd,
}

func init() {
	installedCmd.PersistentFlags().StringVarP(&installedNamespace, "namespace", "n", "", "Namespace (default root)")
	installedListCmd.Flags().BoolVar(&installedJSON, "json", false, "Output in JSON format")
	installedAddCmd.Flags().StringVar(&installedType, "type", "", "Extension type")
	installedAddCmd.Flags().StringVar(&installedName, "name", "", "Display name")
	installedAddCmd.Flags().StringArrayVar(&installedFeatures, "feature", nil, "Feature provided by the extension (repeatable)")
	installedAddCmd.Flags().BoolVar(&installedDependency, "dependency", false, "Mark as installed only as a dependency")
	installedCmd.AddCommand(installedListCmd)
	installedCmd.AddCommand(installedAddCmd)
	rootCmd.AddCommand(installedCmd)
}

// installedEntry is an installed extension for display.
type installedEntry struct {
	ID         string   `json:"id"`
	Version    string   `json:"version"`
	Type       string   `json:"type,omitempty"`
	Namespace  string   `json:"namespace,omitempty"`
	Features   []string `json:"features,omitempty"`
	Dependency bool     `json:"dependency"`
}

func runInstalledList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	locals, err := rt.store.List(ctx, installedNamespace)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(locals) == 0 && !installedJSON {
		fmt.Fprintln(out, "No extensions installed.")
		return nil
	}

	entries := make([]installedEntry, 0, len(locals))
	for _, l := range locals {
		entries = append(entries, installedEntry{
			ID:         l.ID,
			Version:    l.Version.String(),
			Type:       l.Type,
			Namespace:  l.Namespace,
			Features:   l.Features,
			Dependency: l.Dependency,
		})
	}

	if installedJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tTYPE\tFEATURES\tDEPENDENCY")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", e.ID, e.Version, e.Type, strings.Join(e.Features, ","), e.Dependency)
	}
	return w.Flush()
}

func runInstalledAdd(cmd *cobra.Command, args []string) error {
	ext, err := parseInstalledArg(args[0])
	if err != nil {
		return err
	}
	ext.Type = installedType
	ext.Name = installedName
	ext.Features = installedFeatures

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if err := rt.store.Add(ctx, ext, installedNamespace, installedDependency); err != nil {
		return err
	}
	where := "root namespace"
	if installedNamespace != "" {
		where = "namespace " + installedNamespace
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s as installed on %s.\n", ext.Ref(), where)
	return nil
}

// parseInstalledArg reads "id@version". The version is required.
func parseInstalledArg(s string) (*extension.Extension, error) {
	id, raw, ok := strings.Cut(s, "@")
	if !ok || id == "" || raw == "" {
		return nil, fmt.Errorf("expected <id@version>, got %q", s)
	}
	return &extension.Extension{ID: id, Version: version.Parse(raw), Origin: extension.OriginInstalled}, nil
}
