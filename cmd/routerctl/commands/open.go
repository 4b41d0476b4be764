package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh/core"
)

// NewOpenCmd creates the open command.
func NewOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <link>",
		Short: "Dispatch a scheme link",
		Long: `Dispatch a link of the configured scheme (default "routemesh").

The link host and path form the route path; query parameters become call
parameters, with "true" and "false" turned into booleans.

Examples:
  routerctl open "routemesh://calculate?a=1&b=2&operation=add"
  routerctl open "routemesh://weather?city=paris"`,
		Args: cobra.ExactArgs(1),
		RunE: runOpen,
	}

	addPresentationFlags(cmd)

	return cmd
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.run(cmd.Context(), func(ctx context.Context) core.Outcome {
		return a.router.HandleScheme(ctx, args[0])
	})

	return printOutcome(cmd.OutOrStdout(), args[0], out)
}
