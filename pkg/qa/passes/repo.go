package passes

import (
	"context"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/types"
)

// Repo persists passes and the step results recorded against them.
type Repo interface {
	// CreatePass inserts a new pass.
	CreatePass(ctx context.Context, pass *model.Pass) error
	// UpdatePass persists the current state of a pass.
	UpdatePass(ctx context.Context, pass *model.Pass) error
	// GetPassByID returns the pass with the given ID, or nil if none exists.
	GetPassByID(ctx context.Context, passID types.PassID) (*model.Pass, error)
	// ListPasses returns passes ordered newest first. A non-positive limit
	// returns all of them.
	ListPasses(ctx context.Context, limit int) ([]*model.Pass, error)
	// AddStepResult inserts a step result recorded against a pass.
	AddStepResult(ctx context.Context, result *model.StepResult) error
	// ResultsForPass returns the step results recorded against a pass, in
	// the order they were recorded.
	ResultsForPass(ctx context.Context, passID types.PassID) ([]*model.StepResult, error)
}
