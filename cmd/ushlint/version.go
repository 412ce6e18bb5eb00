package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ushlint/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ushlint version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Fprintf(os.Stdout, "ushlint %s", version.Version)
		if version.GitCommit != "" {
			fmt.Fprintf(os.Stdout, " (%s)", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Fprintf(os.Stdout, " built %s", version.BuildDate)
		}
		fmt.Fprintln(os.Stdout)
	},
}
