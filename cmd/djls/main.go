// Command djls is the Django template language server and its batch
// driver: `djls serve` speaks LSP over stdio, `djls check` validates
// templates from the command line, and `djls extract` dumps the facts
// the extraction engine recovers from a tag library.
package main

import (
	"fmt"
	"os"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	root := &cobra.Command{
		Use:           "djls",
		Short:         "Django template language server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to stderr")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			if err := loggo.ConfigureLoggers("djls=DEBUG"); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}

	root.AddCommand(newCheckCommand())
	root.AddCommand(newExtractCommand())
	root.AddCommand(newServeCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "djls:", err)
		os.Exit(2)
	}
}
