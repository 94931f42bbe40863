package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kosmojs/dev/internal/worker"
)

// workerCmd is the child side of the process transport.
func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Run a dev worker on stdin and stdout",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return worker.Serve(cmd.Context(), os.Stdin, os.Stdout, worker.Options{
				Loader: worker.DefaultLoader(),
			})
		},
	}
}
