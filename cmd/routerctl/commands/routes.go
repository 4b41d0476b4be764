package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type routeView struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	Intent      string `json:"intent"`
	Caching     bool   `json:"caching"`
	CacheTTL    string `json:"cacheTTL,omitempty"`
	Concurrency bool   `json:"concurrencyControl"`
	SelfTest    bool   `json:"selfTest"`
	ParamSource string `json:"paramSource"`
}

// NewRoutesCmd creates the routes command.
func NewRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List registered routes",
		Long: `List the routes of the demo router in path order.

Examples:
  routerctl routes
  routerctl routes --format json`,
		Args: cobra.NoArgs,
		RunE: runRoutes,
	}
}

func runRoutes(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	defs := a.router.Routes()
	views := make([]routeView, 0, len(defs))
	for _, def := range defs {
		v := routeView{
			Path:        def.Path,
			Kind:        def.Kind().String(),
			Intent:      def.DefaultIntent.String(),
			Caching:     def.Caching,
			Concurrency: def.ConcurrencyControl,
			SelfTest:    !def.SkipSelfTest,
			ParamSource: def.ParamSource().String(),
		}
		if def.Caching {
			v.CacheTTL = def.CacheTTL.String()
		}
		views = append(views, v)
	}

	if outputFormat == "json" {
		return printJSON(cmd.OutOrStdout(), views)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PATH\tKIND\tINTENT\tCACHE\tSELFTEST\tPARAMS\n")
	fmt.Fprintf(w, "----\t----\t------\t-----\t--------\t------\n")
	for _, v := range views {
		cache := "-"
		if v.Caching {
			cache = v.CacheTTL
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", truncate(v.Path, 40), v.Kind, v.Intent, cache, v.SelfTest, v.ParamSource)
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d route(s)\n", len(views))
	}

	return nil
}
