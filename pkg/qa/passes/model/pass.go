// Package model contains the models the QA results store persists: passes and
// the step results recorded against them.
package model

import (
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/fieldstone-cms/sitecheck/pkg/types/timestamp"
)

// PassState represents the state of a QA pass.
type PassState string

const (
	// PassStatePending indicates that the pass has been created, but no step
	// has run yet.
	PassStatePending PassState = "pending"

	// PassStateRunning indicates that the pass is working through its steps.
	PassStateRunning PassState = "running"

	// PassStateCompleted indicates that every expected step of the pass ran.
	PassStateCompleted PassState = "completed"

	// PassStateFailed indicates that the pass was abandoned before its last
	// step, usually because the platform database became unusable.
	PassStateFailed PassState = "failed"
)

func validPassState(state PassState) bool {
	switch state {
	case PassStatePending, PassStateRunning, PassStateCompleted, PassStateFailed:
		return true
	default:
		return false
	}
}

// Pass represents one full run of the registered QA checks against a platform
// database. Checks declare how many steps they will run up front; the runner
// ticks the pass once per executed step and ends it after the last one.
type Pass struct {
	id             types.PassID
	state          PassState
	expectedSteps  int
	completedSteps int
	errorMessage   *string
	createdAt      timestamp.Timestamp
	updatedAt      timestamp.Timestamp
}

// ID returns the unique identifier of the pass.
func (p *Pass) ID() types.PassID {
	return p.id
}

// State returns the current state of the pass.
func (p *Pass) State() PassState {
	return p.state
}

// ExpectedSteps returns the number of steps declared for the pass.
func (p *Pass) ExpectedSteps() int {
	return p.expectedSteps
}

// CompletedSteps returns the number of steps that have run so far.
func (p *Pass) CompletedSteps() int {
	return p.completedSteps
}

// Error returns the error the pass was failed with, if any.
func (p *Pass) Error() error {
	if p.errorMessage == nil {
		return nil
	}
	return fmt.Errorf("pass error: %s", *p.errorMessage)
}

// CreatedAt returns the creation time of the pass.
func (p *Pass) CreatedAt() timestamp.Timestamp {
	return p.createdAt
}

// UpdatedAt returns the last time the pass changed.
func (p *Pass) UpdatedAt() timestamp.Timestamp {
	return p.updatedAt
}

// Start moves the pass from pending to running.
func (p *Pass) Start() error {
	if p.state != PassStatePending {
		return fmt.Errorf("cannot start pass in state %s", p.state)
	}
	p.state = PassStateRunning
	p.updatedAt = timestamp.Now()
	return nil
}

// Tick records that one step of the pass has run.
func (p *Pass) Tick() error {
	if p.state != PassStateRunning {
		return fmt.Errorf("cannot tick pass in state %s", p.state)
	}
	if p.completedSteps >= p.expectedSteps {
		return fmt.Errorf("cannot tick pass past its %d expected steps", p.expectedSteps)
	}
	p.completedSteps++
	p.updatedAt = timestamp.Now()
	return nil
}

// Complete ends the pass. All expected steps must have been ticked.
func (p *Pass) Complete() error {
	if p.state != PassStateRunning {
		return fmt.Errorf("cannot complete pass in state %s", p.state)
	}
	if p.completedSteps != p.expectedSteps {
		return fmt.Errorf("cannot complete pass after %d of %d steps", p.completedSteps, p.expectedSteps)
	}
	p.state = PassStateCompleted
	p.errorMessage = nil
	p.updatedAt = timestamp.Now()
	return nil
}

// Fail abandons the pass with an error message.
func (p *Pass) Fail(errorMessage string) error {
	if p.state == PassStateCompleted {
		return fmt.Errorf("cannot fail pass in state %s", p.state)
	}
	p.state = PassStateFailed
	p.errorMessage = &errorMessage
	p.updatedAt = timestamp.Now()
	return nil
}

func validatePass(pass *Pass) error {
	if pass.id == types.NilPassID {
		return types.ErrEmpty{Field: "pass ID"}
	}
	if !validPassState(pass.state) {
		return fmt.Errorf("invalid pass state: %s", pass.state)
	}
	if pass.expectedSteps < 0 {
		return fmt.Errorf("expected steps cannot be negative: %d", pass.expectedSteps)
	}
	if pass.completedSteps < 0 || pass.completedSteps > pass.expectedSteps {
		return fmt.Errorf("completed steps out of range: %d of %d", pass.completedSteps, pass.expectedSteps)
	}
	if pass.createdAt.IsZero() {
		return types.ErrEmpty{Field: "created at"}
	}
	if pass.updatedAt.IsZero() {
		return types.ErrEmpty{Field: "updated at"}
	}
	return nil
}

// NewPass creates a pending pass expecting the given number of steps.
func NewPass(expectedSteps int) (*Pass, error) {
	pass := &Pass{
		id:            types.NewPassID(),
		state:         PassStatePending,
		expectedSteps: expectedSteps,
		createdAt:     timestamp.Now(),
		updatedAt:     timestamp.Now(),
	}
	if err := validatePass(pass); err != nil {
		return nil, err
	}
	return pass, nil
}

// PassWriter is a function type that defines the signature for writing passes
// to a database row.
type PassWriter func(id types.PassID, state PassState, expectedSteps int, completedSteps int, errorMessage *string, createdAt timestamp.Timestamp, updatedAt timestamp.Timestamp) error

// WritePassToDatabase writes a pass to the database using the provided writer
// function.
func WritePassToDatabase(writer PassWriter, pass *Pass) error {
	return writer(pass.id, pass.state, pass.expectedSteps, pass.completedSteps, pass.errorMessage, pass.createdAt, pass.updatedAt)
}

// PassScanner is a function type that defines the signature for scanning
// passes from a database row.
type PassScanner func(id *types.PassID, state *PassState, expectedSteps *int, completedSteps *int, errorMessage **string, createdAt *timestamp.Timestamp, updatedAt *timestamp.Timestamp) error

// ReadPassFromDatabase reads a pass from the database using the provided
// scanner function.
func ReadPassFromDatabase(scanner PassScanner) (*Pass, error) {
	var pass Pass

	if err := scanner(&pass.id, &pass.state, &pass.expectedSteps, &pass.completedSteps, &pass.errorMessage, &pass.createdAt, &pass.updatedAt); err != nil {
		return nil, err
	}

	if err := validatePass(&pass); err != nil {
		return nil, err
	}

	return &pass, nil
}
