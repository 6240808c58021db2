package events

import (
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/fieldstone-cms/sitecheck/pkg/types/timestamp"
)

const (
	passTopic = "event.pass"
	stepTopic = "event.step"
)

func TopicPass(pid types.PassID) string {
	return fmt.Sprintf("%s:%s", passTopic, pid)
}

func TopicStep(pid types.PassID) string {
	return fmt.Sprintf("%s:%s", stepTopic, pid)
}

// PassView is a snapshot of a pass's progress, published whenever the pass
// record changes.
type PassView struct {
	ID             types.PassID
	State          string
	ExpectedSteps  int
	CompletedSteps int
	UpdatedAt      timestamp.Timestamp
}

// StepResultView is published when a step records a result against a pass.
type StepResultView struct {
	PassID  types.PassID
	CheckID string
	Step    string
	Passed  bool
}
