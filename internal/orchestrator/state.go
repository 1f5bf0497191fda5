package orchestrator

import (
	"time"

	"github.com/promptly/client/internal/models"
)

// Kind names the active member of the submission state
type Kind string

const (
	KindIdle    Kind = "idle"
	KindLoading Kind = "loading"
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// State is a snapshot of the submission lifecycle. Exactly one of Result
// and Error is set for terminal kinds; neither is set otherwise.
type State struct {
	Kind         Kind                     `json:"kind"`
	SubmissionID uint64                   `json:"submission_id,omitempty"`
	Result       *models.GenerationResult `json:"result,omitempty"`
	Error        *models.GenerationError  `json:"error,omitempty"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Terminal reports whether the state ends a submission
func (s State) Terminal() bool {
	return s.Kind == KindSuccess || s.Kind == KindFailure
}

// clone detaches the snapshot from the orchestrator's copy
func (s State) clone() State {
	if s.Result != nil {
		r := *s.Result
		if r.Documents != nil {
			docs := make([]string, len(r.Documents))
			copy(docs, r.Documents)
			r.Documents = docs
		}
		if r.Reason != nil {
			reason := *r.Reason
			r.Reason = &reason
		}
		s.Result = &r
	}
	if s.Error != nil {
		e := *s.Error
		s.Error = &e
	}
	return s
}
