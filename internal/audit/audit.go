// Package audit keeps a log of finished submission attempts. Only metadata
// is stored; generated content never leaves the process.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/promptly/client/internal/orchestrator"
	"go.uber.org/zap"
)

// Outcomes recorded for an attempt
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeReset   = "reset"
)

// Attempt is one row of the audit log
type Attempt struct {
	ID           uuid.UUID     `json:"id"`
	SubmissionID uint64        `json:"submission_id"`
	Outcome      string        `json:"outcome"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	StatusCode   int           `json:"status_code,omitempty"`
	FallbackUsed bool          `json:"fallback_used"`
	Latency      time.Duration `json:"latency"`
	RecordedAt   time.Time     `json:"recorded_at"`
}

// Store persists attempts
type Store interface {
	Insert(ctx context.Context, a Attempt) error
	Recent(ctx context.Context, limit int) ([]Attempt, error)
}

// Recorder turns orchestrator transitions into audit rows
type Recorder struct {
	store   Store
	logger  *zap.Logger
	timeout time.Duration

	mu           sync.Mutex
	loadingSince time.Time
}

// NewRecorder creates a recorder writing to store
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Observe is registered as an orchestrator listener
func (r *Recorder) Observe(st orchestrator.State) {
	a, ok := r.track(st)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.Insert(ctx, a); err != nil {
		r.logger.Warn("failed to record attempt",
			zap.Uint64("submission_id", a.SubmissionID),
			zap.Error(err),
		)
	}
}

// track folds st into the recorder and returns the attempt it completes
func (r *Recorder) track(st orchestrator.State) (Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.Kind == orchestrator.KindLoading {
		r.loadingSince = st.UpdatedAt
		return Attempt{}, false
	}
	if r.loadingSince.IsZero() {
		// Reset from a terminal state; nothing was in flight.
		return Attempt{}, false
	}

	a := Attempt{
		ID:           uuid.New(),
		SubmissionID: st.SubmissionID,
		Latency:      st.UpdatedAt.Sub(r.loadingSince),
		RecordedAt:   st.UpdatedAt,
	}
	r.loadingSince = time.Time{}

	switch st.Kind {
	case orchestrator.KindSuccess:
		a.Outcome = OutcomeSuccess
		if st.Result != nil {
			a.FallbackUsed = st.Result.FallbackUsed
		}
	case orchestrator.KindFailure:
		a.Outcome = OutcomeFailure
		if st.Error != nil {
			a.ErrorKind = string(st.Error.Kind)
			a.StatusCode = st.Error.StatusCode
		}
	default:
		a.Outcome = OutcomeReset
	}
	return a, true
}
