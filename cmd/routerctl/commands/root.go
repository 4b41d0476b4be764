package commands

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh/config"
)

var (
	configPath   string
	outputFormat string
	verbose      bool
	quiet        bool
)

// NewRootCmd creates the routerctl root command with all subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routerctl",
		Short: "Drive a routemesh router from the terminal",
		Long: `routerctl runs a demo route table on an in-memory presentation
stack and lets you call its routes by path or scheme link.

Configuration is read from $ROUTEMESH_CONFIG or
~/.config/routemesh/config.toml, overridden by ROUTEMESH_* environment
variables. A .env file in the working directory is loaded first.

Examples:
  routerctl routes
  routerctl call /calculate a=10.5 b=2.5 operation=multiply
  routerctl open "routemesh://weather?city=berlin"
  routerctl selftest --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (overrides $ROUTEMESH_CONFIG)")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log router activity to stderr")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewRoutesCmd(),
		NewCallCmd(),
		NewOpenCmd(),
		NewSelfTestCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads .env, then the routemesh configuration.
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()

	if configPath != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG", configPath); err != nil {
			return config.Config{}, err
		}
	}

	return config.Load()
}

// logOutput is where router logs go.
func logOutput(cmd *cobra.Command) io.Writer {
	if verbose {
		return cmd.ErrOrStderr()
	}
	return io.Discard
}
