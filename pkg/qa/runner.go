package qa

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
)

var log = logging.Logger("qa")

var tracer = otel.Tracer("qa")

// RecordedResult pairs a result with the check that produced it.
type RecordedResult struct {
	CheckID string
	Result  Result
}

// RunReport is the outcome of driving every registered check through a pass.
// OverallPass is true iff every recorded result passed.
type RunReport struct {
	Pass        *model.Pass
	Results     []RecordedResult
	OverallPass bool
}

// Runner drives registered checks step by step against a pass. Checks run in
// registration order; a check's steps run in their declared order.
type Runner struct {
	Checks []Check
	Passes passes.API
}

// TotalSteps returns the number of steps the registered checks declare. A
// pass driven by Run must expect exactly this many.
func (r Runner) TotalSteps() int {
	total := 0
	for _, check := range r.Checks {
		total += len(check.Info().Steps)
	}
	return total
}

// Run executes every registered check against the given running pass. A step
// returning an error does not abort the run: the error becomes a failed
// result recorded for that step, and the run continues. The pass is ticked
// after every step and ended after the last one. Only results-store failures
// abort the run; in that case the pass is failed best-effort.
func (r Runner) Run(ctx context.Context, pass *model.Pass) (*RunReport, error) {
	ctx, span := tracer.Start(ctx, "qa-run", trace.WithAttributes(
		attribute.String("pass.id", pass.ID().String()),
		attribute.Int("steps.total", r.TotalSteps()),
	))
	defer span.End()

	if pass.State() != model.PassStateRunning {
		return nil, fmt.Errorf("cannot run checks against pass in state %s", pass.State())
	}
	if pass.ExpectedSteps() != r.TotalSteps() {
		return nil, fmt.Errorf("pass expects %d steps, registered checks declare %d", pass.ExpectedSteps(), r.TotalSteps())
	}

	report := &RunReport{Pass: pass, OverallPass: true}
	for _, check := range r.Checks {
		info := check.Info()
		for _, step := range info.Steps {
			result, err := r.runStep(ctx, check, step)
			if err != nil {
				log.Errorf("check %s step %s failed: %v", info.ID, step, err)
				result = &Result{Step: step, Passed: false, Payload: StepFailure{Error: err.Error()}}
			}
			if result != nil {
				if _, err := r.Passes.RecordResult(ctx, pass, info.ID, string(result.Step), result.Passed, result.Payload); err != nil {
					return nil, r.abort(ctx, pass, err)
				}
				report.Results = append(report.Results, RecordedResult{CheckID: info.ID, Result: *result})
				if !result.Passed {
					report.OverallPass = false
				}
			}
			if err := r.Passes.Tick(ctx, pass); err != nil {
				return nil, r.abort(ctx, pass, err)
			}
		}
	}
	if err := r.Passes.End(ctx, pass); err != nil {
		return nil, r.abort(ctx, pass, err)
	}
	return report, nil
}

func (r Runner) runStep(ctx context.Context, check Check, step StepID) (*Result, error) {
	ctx, span := tracer.Start(ctx, "run-step", trace.WithAttributes(
		attribute.String("check.id", check.Info().ID),
		attribute.String("step", string(step)),
	))
	defer span.End()
	return check.RunStep(ctx, step)
}

// abort fails the pass best-effort and returns the error that ended the run.
func (r Runner) abort(ctx context.Context, pass *model.Pass, err error) error {
	if failErr := r.Passes.Fail(ctx, pass, err.Error()); failErr != nil {
		log.Warnf("failed to mark pass %s as failed: %v", pass.ID(), failErr)
	}
	return err
}
