// Command accessgate runs the CivicWorks edge gate as a standalone reverse
// gatekeeper, or evaluates single requests offline for policy debugging.
//
//	accessgate serve --config configs/gate.yaml
//	accessgate check --config configs/gate.yaml --path /admin/triage
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "accessgate",
		Short:         "CivicWorks route-protection gate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to gate config YAML (defaults built in)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newCheckCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "accessgate:", err)
		os.Exit(1)
	}
}
