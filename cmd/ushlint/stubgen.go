package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ushlint/internal/stubs"
)

var stubgenCmd = &cobra.Command{
	Use:          "stubgen <description.json> <out.dll>",
	Short:        "Compile a JSON stub description into a stub catalog",
	Long:         `Compile a JSON description of an API surface into the binary stub catalog format consumed by the reference resolver`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runStubgen,
}

func runStubgen(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0]) // #nosec G304 -- path comes from the command line
	if err != nil {
		return err
	}
	cat, err := stubs.CompileJSON(data)
	if err != nil {
		return err
	}
	if err := stubs.WriteFile(args[1], cat); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s: %d types\n", args[1], len(cat.Types))
	return nil
}
