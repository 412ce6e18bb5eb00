package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
)

var rulesCmd = &cobra.Command{
	Use:          "rules",
	Short:        "Print the merged rule catalogue",
	SilenceUsage: true,
	RunE:         runRulesCmd,
}

func init() {
	rulesCmd.Flags().String("export", "", "write the catalogue as a policy pack JSON file")
	rulesCmd.Flags().String("profile", "latest", "severity profile to resolve against")
}

func runRulesCmd(cmd *cobra.Command, _ []string) error {
	configureColor(cmd)
	repo := policy.FromDescriptors()

	if export, _ := cmd.Flags().GetString("export"); export != "" {
		data, err := repo.ExportPack()
		if err != nil {
			return err
		}
		if err := os.WriteFile(export, data, 0o644); err != nil {
			return fmt.Errorf("write pack: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %d rules to %s\n", repo.Len(), export)
		return nil
	}

	profile, _ := cmd.Flags().GetString("profile")
	errorColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	infoColor := color.New(color.FgCyan)
	hiddenColor := color.New(color.Faint)
	for _, def := range repo.AllRules() {
		sev := repo.Severity(def.ID, profile, nil)
		var sevText string
		switch sev {
		case diag.SevError:
			sevText = errorColor.Sprintf("%-11s", sev)
		case diag.SevWarning:
			sevText = warnColor.Sprintf("%-11s", sev)
		case diag.SevInfo:
			sevText = infoColor.Sprintf("%-11s", sev)
		default:
			sevText = hiddenColor.Sprintf("%-11s", sev)
		}
		fmt.Fprintf(os.Stdout, "%s  %s  %s\n", def.ID, sevText, def.Title)
	}
	return nil
}
