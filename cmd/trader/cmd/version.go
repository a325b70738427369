package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Long:        `Display the current version of the trader CLI.`,
		Annotations: skipSetup,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trader version %s\n", version)
			fmt.Fprintln(cmd.OutOrStdout(), "A martingale paper-trading bot and simulator")
		},
	}
}
