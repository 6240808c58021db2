package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/bus/events"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/fieldstone-cms/sitecheck/pkg/types/timestamp"
)

var _ passes.Repo = (*Repo)(nil)

// CreatePass inserts a new pass.
func (r *Repo) CreatePass(ctx context.Context, pass *model.Pass) error {
	stmt, err := r.prepareStmt(ctx, `
		INSERT INTO passes (id, state, expected_steps, completed_steps, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	err = model.WritePassToDatabase(func(id types.PassID, state model.PassState, expectedSteps int, completedSteps int, errorMessage *string, createdAt timestamp.Timestamp, updatedAt timestamp.Timestamp) error {
		_, err := stmt.ExecContext(ctx, id.String(), string(state), expectedSteps, completedSteps, NullString(errorMessage), createdAt, updatedAt)
		return err
	}, pass)
	if err != nil {
		return fmt.Errorf("failed to insert pass: %w", err)
	}
	r.publishPass(pass)
	return nil
}

// UpdatePass persists the current state of a pass.
func (r *Repo) UpdatePass(ctx context.Context, pass *model.Pass) error {
	stmt, err := r.prepareStmt(ctx, `
		UPDATE passes
		SET state = ?, expected_steps = ?, completed_steps = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	err = model.WritePassToDatabase(func(id types.PassID, state model.PassState, expectedSteps int, completedSteps int, errorMessage *string, createdAt timestamp.Timestamp, updatedAt timestamp.Timestamp) error {
		_, err := stmt.ExecContext(ctx, string(state), expectedSteps, completedSteps, NullString(errorMessage), updatedAt, id.String())
		return err
	}, pass)
	if err != nil {
		return fmt.Errorf("failed to update pass: %w", err)
	}
	r.publishPass(pass)
	return nil
}

// GetPassByID returns the pass with the given ID, or nil if none exists.
func (r *Repo) GetPassByID(ctx context.Context, passID types.PassID) (*model.Pass, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT id, state, expected_steps, completed_steps, error_message, created_at, updated_at
		FROM passes
		WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	row := stmt.QueryRowContext(ctx, passID.String())
	pass, err := model.ReadPassFromDatabase(scanPass(row.Scan))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return pass, err
}

// ListPasses returns passes ordered newest first. A non-positive limit
// returns all of them.
func (r *Repo) ListPasses(ctx context.Context, limit int) ([]*model.Pass, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT id, state, expected_steps, completed_steps, error_message, created_at, updated_at
		FROM passes
		ORDER BY created_at DESC, id
		LIMIT ?
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	var passes []*model.Pass
	for rows.Next() {
		pass, err := model.ReadPassFromDatabase(scanPass(rows.Scan))
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passes: %w", err)
	}
	return passes, nil
}

// scanPass adapts a database scan function to a model.PassScanner.
func scanPass(scan func(dest ...any) error) model.PassScanner {
	return func(id *types.PassID, state *model.PassState, expectedSteps *int, completedSteps *int, errorMessage **string, createdAt *timestamp.Timestamp, updatedAt *timestamp.Timestamp) error {
		var idStr string
		var errMsg sql.NullString
		if err := scan(&idStr, (*string)(state), expectedSteps, completedSteps, &errMsg, createdAt, updatedAt); err != nil {
			return err
		}
		parsed, err := types.ParsePassID(idStr)
		if err != nil {
			return fmt.Errorf("failed to parse pass ID: %w", err)
		}
		*id = parsed
		if errMsg.Valid {
			msg := errMsg.String
			*errorMessage = &msg
		}
		return nil
	}
}

func (r *Repo) publishPass(pass *model.Pass) {
	r.bus.Publish(events.TopicPass(pass.ID()), events.PassView{
		ID:             pass.ID(),
		State:          string(pass.State()),
		ExpectedSteps:  pass.ExpectedSteps(),
		CompletedSteps: pass.CompletedSteps(),
		UpdatedAt:      pass.UpdatedAt(),
	})
}

// AddStepResult inserts a step result recorded against a pass.
func (r *Repo) AddStepResult(ctx context.Context, result *model.StepResult) error {
	stmt, err := r.prepareStmt(ctx, `
		INSERT INTO step_results (id, pass_id, check_id, step, passed, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	err = model.WriteStepResultToDatabase(func(id types.ResultID, passID types.PassID, checkID string, step string, passed bool, payload []byte, createdAt timestamp.Timestamp) error {
		var payloadValue any
		if payload != nil {
			payloadValue = string(payload)
		}
		_, err := stmt.ExecContext(ctx, id.String(), passID.String(), checkID, step, passed, payloadValue, createdAt)
		return err
	}, result)
	if err != nil {
		return fmt.Errorf("failed to insert step result: %w", err)
	}
	r.bus.Publish(events.TopicStep(result.PassID()), events.StepResultView{
		PassID:  result.PassID(),
		CheckID: result.CheckID(),
		Step:    result.Step(),
		Passed:  result.Passed(),
	})
	return nil
}

// ResultsForPass returns the step results recorded against a pass, in the
// order they were recorded.
func (r *Repo) ResultsForPass(ctx context.Context, passID types.PassID) ([]*model.StepResult, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT id, pass_id, check_id, step, passed, payload, created_at
		FROM step_results
		WHERE pass_id = ?
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx, passID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query step results: %w", err)
	}
	defer rows.Close()

	var results []*model.StepResult
	for rows.Next() {
		result, err := model.ReadStepResultFromDatabase(func(id *types.ResultID, passID *types.PassID, checkID *string, step *string, passed *bool, payload *[]byte, createdAt *timestamp.Timestamp) error {
			var idStr, passIDStr string
			var payloadStr sql.NullString
			if err := rows.Scan(&idStr, &passIDStr, checkID, step, passed, &payloadStr, createdAt); err != nil {
				return err
			}
			parsedID, err := types.ParseResultID(idStr)
			if err != nil {
				return fmt.Errorf("failed to parse result ID: %w", err)
			}
			*id = parsedID
			parsedPassID, err := types.ParsePassID(passIDStr)
			if err != nil {
				return fmt.Errorf("failed to parse pass ID: %w", err)
			}
			*passID = parsedPassID
			if payloadStr.Valid {
				*payload = []byte(payloadStr.String)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read step results: %w", err)
	}
	return results, nil
}
