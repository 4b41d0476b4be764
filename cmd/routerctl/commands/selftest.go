package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/registry"
	"github.com/hupe1980/routemesh/selftest"
)

var (
	selfTestSettle time.Duration
	selfTestPrefix string
)

type selfTestReport struct {
	Results []selftest.Result `json:"results"`
	Summary selftest.Summary  `json:"summary"`
}

// NewSelfTestCmd creates the selftest command.
func NewSelfTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Dispatch every route with its test parameters",
		Long: `Run the route self-test: every route not marked as skipped is
dispatched once with its test parameters, one after another. Presented
surfaces are dismissed after the settle delay.

The command fails when any route fails.

Examples:
  routerctl selftest
  routerctl selftest --prefix /calc
  routerctl selftest --settle 100ms --format json`,
		Args: cobra.NoArgs,
		RunE: runSelfTest,
	}

	cmd.Flags().DurationVar(&selfTestSettle, "settle", 0, "Settle delay before dismissing surfaces (default from config)")
	cmd.Flags().StringVar(&selfTestPrefix, "prefix", "", "Only test routes under this path prefix")

	return cmd
}

func runSelfTest(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	settle := a.cfg.SelfTest.SettleDelay
	if selfTestSettle > 0 {
		settle = selfTestSettle
	}

	runner := selftest.New(a.router, a.router, func(o *selftest.Options) {
		o.SettleDelay = settle
		o.Dismisser = a.bridge
		o.Logger = a.cfg.Logger(logOutput(cmd)).WithComponent("selftest")
		if selfTestPrefix != "" {
			prefix := registry.Canonical(selfTestPrefix)
			o.Filter = func(def *core.RouteDefinition) bool {
				return strings.HasPrefix(registry.Canonical(def.Path), prefix)
			}
		}
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := runner.Run(ctx)
	summary := selftest.Summarize(results)

	if outputFormat == "json" {
		if err := printJSON(cmd.OutOrStdout(), selfTestReport{Results: results, Summary: summary}); err != nil {
			return err
		}
	} else {
		printSelfTest(cmd, results, summary)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d route(s) failed", summary.Failed, summary.Total)
	}

	return nil
}

func printSelfTest(cmd *cobra.Command, results []selftest.Result, summary selftest.Summary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STATUS\tPATH\tKIND\tPARAMS\tDURATION\tMESSAGE\n")
	fmt.Fprintf(w, "------\t----\t----\t------\t--------\t-------\n")
	for _, res := range results {
		status := "PASS"
		if !res.Success {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			status,
			truncate(res.Path, 40),
			res.Kind.String(),
			res.ParamSource.String(),
			res.Duration.Round(time.Millisecond),
			truncate(res.Message, 50))
	}
	w.Flush()

	if quiet {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nPassed: %d/%d (%.1f%%) in %s\n",
		summary.Passed, summary.Total, summary.SuccessRate, summary.TotalDuration.Round(time.Millisecond))

	for _, res := range summary.Slow {
		fmt.Fprintf(cmd.OutOrStdout(), "Slow: %s took %s\n", res.Path, res.Duration.Round(time.Millisecond))
	}
}
