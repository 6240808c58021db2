// Package qa defines sitecheck's data-quality check framework. A check
// declares an ordered list of steps up front; the runner drives the steps one
// at a time against a pass, ticking the pass after each step and ending it
// after the last. Each step reports its findings as a Result.
package qa

import "context"

// StepID names one step of a check. Step IDs are stable identifiers; recorded
// results refer to them.
type StepID string

// Result is the outcome of one executed step. Payload carries structured
// findings and must be JSON-marshalable; rendering payloads for people is the
// caller's business, never the check's.
type Result struct {
	Step    StepID `json:"step"`
	Passed  bool   `json:"passed"`
	Payload any    `json:"payload,omitempty"`
}

// CheckInfo describes a check: its identity and presentation strings, the
// ordered steps the runner will drive, and whether the check is written to
// run across multiple driver invocations.
type CheckInfo struct {
	ID          string
	Label       string
	Description string
	Steps       []StepID
	UsesBatch   bool
}

// Check is a single data-quality check. RunStep executes one declared step. A
// nil Result means the step ran and found nothing to report; an error means
// the step itself could not run.
type Check interface {
	Info() CheckInfo
	RunStep(ctx context.Context, step StepID) (*Result, error)
}

// StepFailure is the payload recorded when a step errors outright instead of
// reporting findings.
type StepFailure struct {
	Error string `json:"error"`
}
