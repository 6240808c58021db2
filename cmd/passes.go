package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fieldstone-cms/sitecheck/internal/cmdutil"
	"github.com/fieldstone-cms/sitecheck/internal/output"
	"github.com/fieldstone-cms/sitecheck/pkg/config"
	"github.com/fieldstone-cms/sitecheck/pkg/gateway"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
)

var passesFlags struct {
	limit int
	json  bool
}

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List recorded QA passes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load[config.Config]()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, err := cmdutil.OpenResultsStore(ctx, cfg.Repo)
		if err != nil {
			return err
		}
		defer store.Close()

		api := passes.API{Repo: store}
		recorded, err := api.ListPasses(ctx, passesFlags.limit)
		if err != nil {
			return fmt.Errorf("listing passes: %w", err)
		}

		if passesFlags.json {
			views := make([]gateway.PassView, 0, len(recorded))
			for _, pass := range recorded {
				views = append(views, gateway.NewPassView(pass))
			}
			return output.JSON(views)
		}

		if len(recorded) == 0 {
			cmd.Println("No passes recorded yet. Run `sitecheck scan` first.")
			return nil
		}

		rows := [][]string{{"ID", "STATE", "STEPS", "STARTED"}}
		for _, pass := range recorded {
			rows = append(rows, []string{
				pass.ID().String(),
				string(pass.State()),
				fmt.Sprintf("%d/%d", pass.CompletedSteps(), pass.ExpectedSteps()),
				humanize.Time(pass.CreatedAt().Time()),
			})
		}
		output.Table(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	passesCmd.Flags().IntVarP(&passesFlags.limit, "limit", "n", 10, "Number of passes to list (0 for all)")
	passesCmd.Flags().BoolVarP(&passesFlags.json, "json", "j", false, "Output in JSON format")
	rootCmd.AddCommand(passesCmd)
}
