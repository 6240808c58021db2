package model

import (
	"encoding/json"
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/fieldstone-cms/sitecheck/pkg/types/timestamp"
)

// StepResult is one finding a check step recorded against a pass. Results are
// insert-only; a pass accumulates them as its steps run. The payload is
// whatever structured data the step produced, stored as JSON.
type StepResult struct {
	id        types.ResultID
	passID    types.PassID
	checkID   string
	step      string
	passed    bool
	payload   json.RawMessage
	createdAt timestamp.Timestamp
}

// ID returns the unique identifier of the result.
func (r *StepResult) ID() types.ResultID {
	return r.id
}

// PassID returns the pass the result was recorded against.
func (r *StepResult) PassID() types.PassID {
	return r.passID
}

// CheckID returns the identifier of the check that produced the result.
func (r *StepResult) CheckID() string {
	return r.checkID
}

// Step returns the identifier of the step that produced the result.
func (r *StepResult) Step() string {
	return r.step
}

// Passed reports whether the step passed.
func (r *StepResult) Passed() bool {
	return r.passed
}

// Payload returns the step's structured payload as JSON, or nil when the step
// recorded none.
func (r *StepResult) Payload() json.RawMessage {
	return r.payload
}

// CreatedAt returns the time the result was recorded.
func (r *StepResult) CreatedAt() timestamp.Timestamp {
	return r.createdAt
}

func validateStepResult(result *StepResult) error {
	if result.id == types.NilResultID {
		return types.ErrEmpty{Field: "result ID"}
	}
	if result.passID == types.NilPassID {
		return types.ErrEmpty{Field: "pass ID"}
	}
	if result.checkID == "" {
		return types.ErrEmpty{Field: "check ID"}
	}
	if result.step == "" {
		return types.ErrEmpty{Field: "step"}
	}
	if result.createdAt.IsZero() {
		return types.ErrEmpty{Field: "created at"}
	}
	return nil
}

// NewStepResult records a step outcome against a pass. The payload is
// marshaled to JSON; a nil payload stays nil.
func NewStepResult(passID types.PassID, checkID string, step string, passed bool, payload any) (*StepResult, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result payload: %w", err)
		}
		raw = data
	}
	result := &StepResult{
		id:        types.NewResultID(),
		passID:    passID,
		checkID:   checkID,
		step:      step,
		passed:    passed,
		payload:   raw,
		createdAt: timestamp.Now(),
	}
	if err := validateStepResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

// StepResultWriter is a function type that defines the signature for writing
// step results to a database row.
type StepResultWriter func(id types.ResultID, passID types.PassID, checkID string, step string, passed bool, payload []byte, createdAt timestamp.Timestamp) error

// WriteStepResultToDatabase writes a step result to the database using the
// provided writer function.
func WriteStepResultToDatabase(writer StepResultWriter, result *StepResult) error {
	return writer(result.id, result.passID, result.checkID, result.step, result.passed, result.payload, result.createdAt)
}

// StepResultScanner is a function type that defines the signature for
// scanning step results from a database row.
type StepResultScanner func(id *types.ResultID, passID *types.PassID, checkID *string, step *string, passed *bool, payload *[]byte, createdAt *timestamp.Timestamp) error

// ReadStepResultFromDatabase reads a step result from the database using the
// provided scanner function.
func ReadStepResultFromDatabase(scanner StepResultScanner) (*StepResult, error) {
	var result StepResult
	var payload []byte

	if err := scanner(&result.id, &result.passID, &result.checkID, &result.step, &result.passed, &payload, &result.createdAt); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		result.payload = json.RawMessage(payload)
	}

	if err := validateStepResult(&result); err != nil {
		return nil, err
	}

	return &result, nil
}
