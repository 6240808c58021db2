package cmd

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"

	"github.com/fieldstone-cms/sitecheck/internal/cmdutil"
	"github.com/fieldstone-cms/sitecheck/pkg/bus"
	"github.com/fieldstone-cms/sitecheck/pkg/bus/events"
	"github.com/fieldstone-cms/sitecheck/pkg/config"
	platformrepo "github.com/fieldstone-cms/sitecheck/pkg/platform/sqlrepo"
	"github.com/fieldstone-cms/sitecheck/pkg/qa"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/cachesize"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/references"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/sqlrepo"
)

var scanFlags struct {
	checks []string
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run data-quality checks against the site database",
	Long: wordwrap.WrapString(
		"Run the registered data-quality checks against the site database and "+
			"record the findings as a pass in the results store. By default every "+
			"registered check runs; one or more --check flags restrict the scan to "+
			"those checks only.",
		80),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load[config.Config]()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		platformRepo, err := cmdutil.OpenPlatform(ctx, cfg.Platform)
		if err != nil {
			return err
		}
		defer platformRepo.Close()

		eventBus := bus.New()
		store, err := cmdutil.OpenResultsStore(ctx, cfg.Repo, sqlrepo.WithEventBus(eventBus))
		if err != nil {
			return err
		}
		defer store.Close()

		checks, err := selectChecks(registeredChecks(platformRepo), scanFlags.checks)
		if err != nil {
			return err
		}

		runner := qa.Runner{Checks: checks, Passes: passes.API{Repo: store}}

		pass, err := runner.Passes.StartPass(ctx, runner.TotalSteps())
		if err != nil {
			return fmt.Errorf("starting pass: %w", err)
		}

		cmd.Printf("Scanning %s (%d checks, %d steps)\n", cfg.Platform.DatabasePath, len(checks), runner.TotalSteps())

		var s *spinner.Spinner
		if isatty.IsTerminal(os.Stdout.Fd()) {
			s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr())) // Spinner: ⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏
			s.Suffix = " scanning"
			s.Start()
			defer s.Stop()
		}

		// the store publishes synchronously, so these fire between steps
		onStep := func(view events.StepResultView) {
			if s != nil {
				s.Stop()
			}
			cmd.Printf("%s %s/%s\n", passMark(view.Passed), view.CheckID, view.Step)
			if s != nil {
				s.Start()
			}
		}
		onPass := func(view events.PassView) {
			if s == nil || view.State != string(model.PassStateRunning) {
				return
			}
			s.Stop()
			s.Suffix = fmt.Sprintf(" scanning (%d/%d steps)", view.CompletedSteps, view.ExpectedSteps)
			s.Start()
		}
		if err := eventBus.Subscribe(events.TopicStep(pass.ID()), onStep); err != nil {
			return fmt.Errorf("subscribing to step events: %w", err)
		}
		defer eventBus.Unsubscribe(events.TopicStep(pass.ID()), onStep)
		if err := eventBus.Subscribe(events.TopicPass(pass.ID()), onPass); err != nil {
			return fmt.Errorf("subscribing to pass events: %w", err)
		}
		defer eventBus.Unsubscribe(events.TopicPass(pass.ID()), onPass)

		report, err := runner.Run(ctx, pass)
		if err != nil {
			return cmdutil.TranslateError(err)
		}
		if s != nil {
			s.Stop()
		}

		printRunReport(cmd, report)

		if !report.OverallPass {
			failed := 0
			for _, recorded := range report.Results {
				if !recorded.Result.Passed {
					failed++
				}
			}
			return cmdutil.NewHandledCliError(fmt.Errorf("%d check step(s) failed", failed))
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFlags.checks, "check", nil, "Run only the named check (repeatable)")
	rootCmd.AddCommand(scanCmd)
}

// registeredChecks returns every check sitecheck knows, wired to the given
// platform repo. Order here is run order.
func registeredChecks(repo *platformrepo.Repo) []qa.Check {
	return []qa.Check{
		cachesize.API{Repo: repo},
		references.API{Repo: repo},
	}
}

// selectChecks filters the registered checks down to the requested IDs. An
// empty request selects all of them.
func selectChecks(all []qa.Check, requested []string) ([]qa.Check, error) {
	if len(requested) == 0 {
		return all, nil
	}
	byID := make(map[string]qa.Check, len(all))
	known := make([]string, 0, len(all))
	for _, check := range all {
		byID[check.Info().ID] = check
		known = append(known, check.Info().ID)
	}
	var selected []qa.Check
	for _, id := range requested {
		check, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown check %q (known checks: %s)", id, strings.Join(known, ", "))
		}
		selected = append(selected, check)
	}
	return selected, nil
}

func passMark(passed bool) string {
	if passed {
		return "✓"
	}
	return "✗"
}

func printRunReport(cmd *cobra.Command, report *qa.RunReport) {
	cmd.Println(strings.Repeat("-", 60))
	for _, recorded := range report.Results {
		printRecordedResult(cmd, recorded)
	}
	cmd.Println(strings.Repeat("-", 60))
	verdict := "PASSED"
	if !report.OverallPass {
		verdict = "FAILED"
	}
	cmd.Printf("Pass %s: %s (%d steps)\n", report.Pass.ID(), verdict, report.Pass.CompletedSteps())
}

func printRecordedResult(cmd *cobra.Command, recorded qa.RecordedResult) {
	cmd.Printf("%s %s/%s\n", passMark(recorded.Result.Passed), recorded.CheckID, recorded.Result.Step)
	switch payload := recorded.Result.Payload.(type) {
	case cachesize.Summary:
		cmd.Printf("  %d cache bins scanned, every entry within limits\n", payload.BinsScanned)
	case cachesize.Findings:
		printCacheFindings(cmd, payload)
	case references.Summary:
		cmd.Printf("  %d entities checked, every reference resolves\n", payload.EntitiesChecked)
	case references.Findings:
		printReferenceFindings(cmd, payload)
	case qa.StepFailure:
		cmd.Printf("  step failed: %s\n", payload.Error)
	}
}

func printCacheFindings(cmd *cobra.Command, findings cachesize.Findings) {
	for _, bin := range findings.Bins {
		if bin.Err != "" {
			cmd.Printf("  %s: %s\n", bin.Bin, bin.Err)
		}
	}
	for _, row := range findings.Rows {
		cmd.Printf("  %s %s: %s\n", row.Bin, row.CID, humanizeSize(row.Size))
	}
}

func printReferenceFindings(cmd *cobra.Command, findings references.Findings) {
	for _, entityType := range slices.Sorted(maps.Keys(findings.Broken)) {
		byID := findings.Broken[entityType]
		for _, entityID := range slices.Sorted(maps.Keys(byID)) {
			byField := byID[entityID]
			for _, field := range slices.Sorted(maps.Keys(byField)) {
				byDelta := byField[field]
				for _, delta := range slices.Sorted(maps.Keys(byDelta)) {
					cmd.Printf("  %s %d %s[%d] references missing entity %d\n",
						entityType, entityID, field, delta, byDelta[delta])
				}
			}
		}
	}
	for _, failure := range findings.Failures {
		if failure.EntityID != 0 {
			cmd.Printf("  %s %d: %s\n", failure.EntityType, failure.EntityID, failure.Error)
		} else {
			cmd.Printf("  %s: %s\n", failure.EntityType, failure.Error)
		}
	}
}

// humanizeSize renders a stored size string for people, keeping the exact
// byte count alongside.
func humanizeSize(size string) string {
	n, err := strconv.ParseUint(size, 10, 64)
	if err != nil {
		return size
	}
	return fmt.Sprintf("%s (%s bytes)", humanize.IBytes(n), size)
}
