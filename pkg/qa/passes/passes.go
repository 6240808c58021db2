// Package passes drives the lifecycle of QA passes: one pass per run of the
// registered checks, ticked once per executed step and ended after the last,
// with every step result recorded against it.
package passes

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/types"
)

var log = logging.Logger("qa/passes")

// API provides pass lifecycle operations over a results store.
type API struct {
	Repo Repo
}

// StartPass creates a pass expecting the given number of steps and moves it
// to running.
func (a API) StartPass(ctx context.Context, expectedSteps int) (*model.Pass, error) {
	pass, err := model.NewPass(expectedSteps)
	if err != nil {
		return nil, err
	}
	if err := a.Repo.CreatePass(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}
	if err := pass.Start(); err != nil {
		return nil, err
	}
	if err := a.Repo.UpdatePass(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to start pass: %w", err)
	}
	log.Debugf("pass %s started, expecting %d steps", pass.ID(), expectedSteps)
	return pass, nil
}

// RecordResult records a step outcome against a pass. The payload must be
// JSON-marshalable.
func (a API) RecordResult(ctx context.Context, pass *model.Pass, checkID string, step string, passed bool, payload any) (*model.StepResult, error) {
	result, err := model.NewStepResult(pass.ID(), checkID, step, passed, payload)
	if err != nil {
		return nil, err
	}
	if err := a.Repo.AddStepResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to record step result: %w", err)
	}
	return result, nil
}

// Tick records that one step of the pass has run.
func (a API) Tick(ctx context.Context, pass *model.Pass) error {
	if err := pass.Tick(); err != nil {
		return err
	}
	if err := a.Repo.UpdatePass(ctx, pass); err != nil {
		return fmt.Errorf("failed to persist pass tick: %w", err)
	}
	return nil
}

// End completes the pass after its final step.
func (a API) End(ctx context.Context, pass *model.Pass) error {
	if err := pass.Complete(); err != nil {
		return err
	}
	if err := a.Repo.UpdatePass(ctx, pass); err != nil {
		return fmt.Errorf("failed to persist pass completion: %w", err)
	}
	log.Debugf("pass %s completed after %d steps", pass.ID(), pass.CompletedSteps())
	return nil
}

// Fail abandons the pass with an error message.
func (a API) Fail(ctx context.Context, pass *model.Pass, message string) error {
	if err := pass.Fail(message); err != nil {
		return err
	}
	if err := a.Repo.UpdatePass(ctx, pass); err != nil {
		return fmt.Errorf("failed to persist pass failure: %w", err)
	}
	return nil
}

// GetPass returns the pass with the given ID, or nil if none exists.
func (a API) GetPass(ctx context.Context, passID types.PassID) (*model.Pass, error) {
	return a.Repo.GetPassByID(ctx, passID)
}

// ListPasses returns recorded passes, newest first. A non-positive limit
// returns all of them.
func (a API) ListPasses(ctx context.Context, limit int) ([]*model.Pass, error) {
	return a.Repo.ListPasses(ctx, limit)
}

// ResultsForPass returns the step results recorded against a pass.
func (a API) ResultsForPass(ctx context.Context, passID types.PassID) ([]*model.StepResult, error) {
	return a.Repo.ResultsForPass(ctx, passID)
}
