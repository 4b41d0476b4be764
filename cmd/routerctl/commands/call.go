package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh/core"
)

var (
	callIntent       string
	callCloseWith    string
	callDismissAfter time.Duration
	callTimeout      time.Duration
)

// NewCallCmd creates the call command.
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <path> [key=value...]",
		Short: "Dispatch a route by path",
		Long: `Dispatch a route by path with key=value parameters.

Values that parse as JSON keep their type (numbers, booleans, objects);
everything else is passed as a string.

A surface presented during the call, including one shown by a redirect,
is closed after --dismiss-after with the --close-with JSON value. A
negative --dismiss-after leaves surfaces open until --timeout.

Examples:
  routerctl call /calculate a=10.5 b=2.5 operation=multiply
  routerctl call /home --intent modal
  routerctl call /profile --close-with '{"success":true}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCall,
	}

	addPresentationFlags(cmd)
	cmd.Flags().StringVar(&callIntent, "intent", "", "Force the navigation intent: push, modal, replace-current, replace-all")

	return cmd
}

func addPresentationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&callCloseWith, "close-with", "", "JSON value surfaces are closed with")
	cmd.Flags().DurationVar(&callDismissAfter, "dismiss-after", 200*time.Millisecond, "Delay before a presented surface is closed")
	cmd.Flags().DurationVar(&callTimeout, "timeout", 30*time.Second, "Give up on the call after this long")
}

func runCall(cmd *cobra.Command, args []string) error {
	params, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	var intents []core.NavigationIntent
	if callIntent != "" {
		intent, err := core.ParseNavigationIntent(callIntent)
		if err != nil {
			return err
		}
		intents = append(intents, intent)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.run(cmd.Context(), func(ctx context.Context) core.Outcome {
		return a.router.Dispatch(ctx, args[0], params, intents...)
	})

	return printOutcome(cmd.OutOrStdout(), args[0], out)
}

// run executes call under the --timeout limit and closes surfaces it
// presents according to the presentation flags.
func (a *app) run(parent context.Context, call func(ctx context.Context) core.Outcome) core.Outcome {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, callTimeout)
	defer cancel()

	var result any
	if callCloseWith != "" {
		result = parseValue(callCloseWith)
	}

	if callDismissAfter >= 0 {
		dctx, stop := context.WithCancel(ctx)
		defer stop()
		go a.dismissWhenShown(dctx, callDismissAfter, result)
	}

	out := call(ctx)
	if !out.Success && core.KindOf(out.Err) == core.KindCancelled && ctx.Err() != nil {
		return core.Failed(core.NewTimeout(callTimeout))
	}
	return out
}
