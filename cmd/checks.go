package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldstone-cms/sitecheck/internal/output"
)

var checksFlags struct {
	json bool
}

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the registered data-quality checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		type checkView struct {
			ID    string   `json:"id"`
			Label string   `json:"label"`
			Steps []string `json:"steps"`
		}

		rows := [][]string{{"ID", "LABEL", "STEPS"}}
		var views []checkView
		for _, check := range registeredChecks(nil) {
			info := check.Info()
			steps := make([]string, 0, len(info.Steps))
			for _, step := range info.Steps {
				steps = append(steps, string(step))
			}
			rows = append(rows, []string{info.ID, info.Label, strings.Join(steps, ", ")})
			views = append(views, checkView{ID: info.ID, Label: info.Label, Steps: steps})
		}

		if checksFlags.json {
			return output.JSON(views)
		}
		output.Table(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	checksCmd.Flags().BoolVarP(&checksFlags.json, "json", "j", false, "Output in JSON format")
	rootCmd.AddCommand(checksCmd)
}
