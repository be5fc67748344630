// Command dispatcherctl is a CLI façade over the schema dispatcher,
// talking to an in-process dispatcher built from the same store the
// server binary uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storePath string

	root := &cobra.Command{
		Use:           "dispatcherctl",
		Short:         "Inspect and drive the schema dispatcher from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storePath, "store", "metacat.sqlite", "path to the dispatcher's SQLite entity store")

	root.AddCommand(newSchemasCmd(&storePath))
	root.AddCommand(newAuditCmd(&storePath))
	return root
}
