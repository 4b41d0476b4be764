// Command routerctl drives a demo routemesh router from the terminal: open
// scheme links, call routes, list the route table and run the self-test.
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/routemesh/cmd/routerctl/commands"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
