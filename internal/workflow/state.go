// Package workflow drives the three step issuance flow: collect a hostname,
// collect subject details, then generate, submit and show the result.
package workflow

import (
	"encoding/gob"

	"certer/internal/models"
)

// State is everything a session knows about its current run. It is a plain
// value; callers persist it after every transition.
type State struct {
	Step models.WorkflowStep `json:"step"`

	// Draft is the step-2 form data. It only exists between advance and
	// submit or retreat.
	Draft     *models.SubjectProfile `json:"draft,omitempty"`
	// KeyExists is shown on the details step only; submit checks the key
	// file again.
	KeyExists bool `json:"key_exists"`

	Submitted       *models.SubjectProfile   `json:"submitted,omitempty"`
	ForceRegenerate bool                     `json:"force_regenerate"`
	Status          models.GenerationStatus  `json:"status,omitempty"`
	GeneratedFiles  []string                 `json:"generated_files,omitempty"`
	Log             string                   `json:"log,omitempty"`
	Generation      *models.GenerationResult `json:"generation,omitempty"`
	Enrollment      *models.EnrollmentResult `json:"enrollment,omitempty"`

	// JustCompleted is set by submit and consumed by the next Observe.
	JustCompleted bool `json:"-"`
}

func init() {
	gob.Register(State{})
}

// Fresh is the state of a session that has not started a run.
func Fresh() State {
	return State{Step: models.StepCollectHostname}
}

func (s State) Failed() bool {
	return s.Step == models.StepShowResult && s.Status == models.GenerationFail
}

// Observe is applied whenever the state is read for display. A completed run
// is shown exactly once; any other read outside step 2 starts over.
func Observe(s State) State {
	if s.JustCompleted {
		s.JustCompleted = false
		return s
	}

	if s.Step != models.StepCollectDetails && s.Draft == nil {
		return Fresh()
	}

	if !s.Step.Valid() {
		return Fresh()
	}

	return s
}
