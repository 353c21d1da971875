package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  `Display the version, build time, git commit and Go version of repeatq.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Details())
		},
	}
}
