package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/promptly/client/internal/models"
	"github.com/promptly/client/internal/orchestrator"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu       sync.Mutex
	attempts []Attempt
	err      error
}

func (m *memoryStore) Insert(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memoryStore) Recent(_ context.Context, limit int) ([]Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.attempts) {
		limit = len(m.attempts)
	}
	return m.attempts[:limit], nil
}

func TestRecorderOutcomes(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }

	store := &memoryStore{}
	r := NewRecorder(store, zap.NewNop())

	transitions := []orchestrator.State{
		{Kind: orchestrator.KindLoading, SubmissionID: 1, UpdatedAt: at(0)},
		{Kind: orchestrator.KindSuccess, SubmissionID: 1, UpdatedAt: at(120),
			Result: &models.GenerationResult{Content: "ok", FallbackUsed: true}},
		{Kind: orchestrator.KindIdle, SubmissionID: 1, UpdatedAt: at(130)},
		{Kind: orchestrator.KindLoading, SubmissionID: 2, UpdatedAt: at(200)},
		{Kind: orchestrator.KindFailure, SubmissionID: 2, UpdatedAt: at(250),
			Error: models.NewServerError(500, "model unavailable")},
		{Kind: orchestrator.KindLoading, SubmissionID: 3, UpdatedAt: at(300)},
		{Kind: orchestrator.KindIdle, SubmissionID: 3, UpdatedAt: at(310)},
	}
	for _, st := range transitions {
		r.Observe(st)
	}

	want := []Attempt{
		{SubmissionID: 1, Outcome: OutcomeSuccess, FallbackUsed: true, Latency: 120 * time.Millisecond, RecordedAt: at(120)},
		{SubmissionID: 2, Outcome: OutcomeFailure, ErrorKind: "server", StatusCode: 500, Latency: 50 * time.Millisecond, RecordedAt: at(250)},
		{SubmissionID: 3, Outcome: OutcomeReset, Latency: 10 * time.Millisecond, RecordedAt: at(310)},
	}
	if diff := cmp.Diff(want, store.attempts, cmpopts.IgnoreFields(Attempt{}, "ID")); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
	for _, a := range store.attempts {
		if a.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("expected attempt ID to be set")
		}
	}
}

func TestRecorderIgnoresStoreErrors(t *testing.T) {
	store := &memoryStore{err: errors.New("connection refused")}
	r := NewRecorder(store, zap.NewNop())

	now := time.Now()
	r.Observe(orchestrator.State{Kind: orchestrator.KindLoading, SubmissionID: 1, UpdatedAt: now})
	r.Observe(orchestrator.State{Kind: orchestrator.KindSuccess, SubmissionID: 1, UpdatedAt: now,
		Result: &models.GenerationResult{}})

	if len(store.attempts) != 0 {
		t.Errorf("expected nothing stored, got %d", len(store.attempts))
	}
}

func TestRecorderWithOrchestrator(t *testing.T) {
	store := &memoryStore{}
	r := NewRecorder(store, zap.NewNop())

	gen := generatorFunc(func(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
		return models.GenerationResult{Content: req.Text}, nil
	})
	o := orchestrator.New(gen, zap.NewNop(), orchestrator.WithListener(r.Observe))
	defer o.Close()

	id, err := o.Submit(models.FormInput{Text: "hello"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := o.Wait(ctx, id); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := store.Recent(ctx, 10); len(got) == 1 {
			if got[0].Outcome != OutcomeSuccess || got[0].SubmissionID != id {
				t.Errorf("unexpected attempt %+v", got[0])
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the listener to record one attempt")
}

type generatorFunc func(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)

func (f generatorFunc) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	return f(ctx, req)
}
