// Command solve is a thin demonstration CLI over the solver core: given a
// JSON table of fixture packages and a root requirement list, it runs the
// two-phase solve and prints the resulting tree, or the explanation if the
// external solver reports unsatisfiable. It is not a package-manager CLI;
// registry access, manifests, and lockfiles are out of scope for this
// module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "solve:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "solve",
		Short: "Run the two-phase dependency solve against a fixture package table",
	}
	root.AddCommand(newRunCommand())
	return root
}
