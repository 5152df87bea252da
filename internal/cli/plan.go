package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/job"
	"github.com/agentx-labs/extplan/internal/plan"
)

// Plan output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	planNamespace   string
	planOutput      string
	planMetricsFile string
)

var planCmd = &cobra.Command{
	Use:   "plan <id[@constraint]>...",
	Short: "Compute an installation plan",
	Long: `Compute the actions needed to install the given extensions and their
dependencies. Each argument is an extension id, optionally followed by a
version constraint: "web-ui", "web-ui@2.1" or "web-ui@>=2.0 <3.0".

The installed state is only read; nothing is installed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planNamespace, "namespace", "n", "", "Target namespace (default root)")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", outputText, "Output format (text, json, yaml)")
	planCmd.Flags().StringVar(&planMetricsFile, "metrics-file", "", "Write Prometheus metrics of the run to this file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := checkOutput(planOutput); err != nil {
		return err
	}

	requests := make([]job.Request, 0, len(args))
	for _, arg := range args {
		req, err := job.ParseRequest(arg, planNamespace)
		if err != nil {
			return err
		}
		requests = append(requests, req)
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	j, err := job.NewFromRegistry(rt.registry,
		job.WithLogger(rt.logger),
		job.WithTracer(rt.tracing.Tracer()),
		job.WithMetrics(rt.metrics),
	)
	if err != nil {
		return err
	}

	p, runErr := j.Run(ctx, requests...)
	if planMetricsFile != "" {
		if err := prometheus.WriteToTextfile(planMetricsFile, rt.gatherer); err != nil {
			xlog.For(rt.logger, xlog.CatCLI).Warn("writing metrics file", "path", planMetricsFile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	return writePlan(cmd.OutOrStdout(), p, planOutput)
}

func checkOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, outputText, outputJSON, outputYAML)
	}
}

// writePlan renders p in the requested format.
func writePlan(w io.Writer, p *plan.Plan, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan.Summarize(p)); err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan.Summarize(p)); err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		return enc.Close()
	default:
		plan.Print(w, p)
	}
	return nil
}
