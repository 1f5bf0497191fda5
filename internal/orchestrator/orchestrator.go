package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/promptly/client/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrEmptyText is returned by Submit when the text is blank
	ErrEmptyText = errors.New("text is required")
	// ErrClosed is returned once the orchestrator has been closed
	ErrClosed = errors.New("orchestrator closed")
	// ErrSuperseded is returned by Wait when a newer submission replaced the awaited one
	ErrSuperseded = errors.New("submission superseded by a newer one")
	// ErrReset is returned by Wait when the awaited submission was reset
	ErrReset = errors.New("submission reset")
	// ErrUnknownSubmission is returned by Wait for an id that was never issued
	ErrUnknownSubmission = errors.New("unknown submission")
)

// Generator performs one generation call against the remote service
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
}

// Orchestrator owns the submission state machine. At most one Generate call
// is in flight; submissions arriving meanwhile collapse into a single queued
// request, and only the newest submission may produce a terminal state.
type Orchestrator struct {
	client  Generator
	logger  *zap.Logger
	baseCtx context.Context
	now     func() time.Time

	mu       sync.Mutex
	state    State
	latest   uint64
	inflight *attempt
	pending  *attempt
	subs     map[*subscriber]struct{}
	closed   bool
}

type attempt struct {
	id     uint64
	req    models.GenerationRequest
	cancel context.CancelFunc
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithBaseContext parents every remote call on ctx
func WithBaseContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.baseCtx = ctx
		}
	}
}

// WithListener registers fn to observe every transition in order. fn runs
// on its own goroutine and may block without stalling the orchestrator.
func WithListener(fn func(State)) Option {
	return func(o *Orchestrator) {
		if fn == nil {
			return
		}
		s := o.subscribe(false)
		go func() {
			for st := range s.out {
				fn(st)
			}
		}()
	}
}

// New creates an orchestrator in the Idle state
func New(client Generator, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		client:  client,
		logger:  logger,
		baseCtx: context.Background(),
		now:     time.Now,
		subs:    make(map[*subscriber]struct{}),
	}
	o.state = State{Kind: KindIdle, UpdatedAt: o.now()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit normalizes input and starts a generation. It returns the submission
// ID, or ErrEmptyText without touching state when the text is blank.
func (o *Orchestrator) Submit(input models.FormInput) (uint64, error) {
	req, err := Normalize(input)
	if err != nil {
		o.logger.Debug("submission rejected", zap.Error(err))
		return 0, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, ErrClosed
	}

	o.latest++
	id := o.latest

	if o.inflight != nil {
		if o.pending != nil {
			o.logger.Info("queued submission collapsed",
				zap.Uint64("dropped_id", o.pending.id),
				zap.Uint64("submission_id", id),
			)
		}
		o.pending = &attempt{id: id, req: req}
		o.setLocked(State{Kind: KindLoading, SubmissionID: id})
		return id, nil
	}

	o.setLocked(State{Kind: KindLoading, SubmissionID: id})
	o.dispatchLocked(id, req)
	return id, nil
}

// Reset returns a terminal state to Idle. A loading submission is
// cancelled and will not produce a terminal state. Reset from Idle is a no-op.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.state.Kind == KindIdle {
		return
	}

	cleared := o.state.SubmissionID
	if o.state.Kind == KindLoading {
		if o.inflight != nil {
			o.inflight.cancel()
		}
		o.pending = nil
		o.logger.Info("loading submission cancelled", zap.Uint64("submission_id", cleared))
	}
	o.setLocked(State{Kind: KindIdle, SubmissionID: cleared})
}

// State returns a snapshot of the current state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Subscribe returns a channel yielding the current state followed by every
// later transition, in order. The returned func unsubscribes.
func (o *Orchestrator) Subscribe() (<-chan State, func()) {
	s := o.subscribe(true)
	return s.out, func() {
		o.mu.Lock()
		delete(o.subs, s)
		o.mu.Unlock()
		s.abort()
	}
}

func (o *Orchestrator) subscribe(initial bool) *subscriber {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := newSubscriber()
	if initial {
		s.push(o.state.clone())
	}
	if o.closed {
		s.close()
		return s
	}
	o.subs[s] = struct{}{}
	return s
}

// Wait blocks until submission id ends. It returns the terminal state, or
// ErrSuperseded / ErrReset when the submission never got one, and
// ErrUnknownSubmission when id was never issued.
func (o *Orchestrator) Wait(ctx context.Context, id uint64) (State, error) {
	o.mu.Lock()
	issued := id != 0 && id <= o.latest
	o.mu.Unlock()
	if !issued {
		return State{}, ErrUnknownSubmission
	}

	ch, unsubscribe := o.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return State{}, ctx.Err()
		case st, ok := <-ch:
			if !ok {
				return State{}, ErrClosed
			}
			switch {
			case st.SubmissionID > id:
				return st, ErrSuperseded
			case st.SubmissionID < id:
				continue
			case st.Terminal():
				return st, nil
			case st.Kind == KindIdle:
				return st, ErrReset
			}
		}
	}
}

// Close cancels in-flight work and closes every subscriber channel
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	if o.inflight != nil {
		o.inflight.cancel()
	}
	o.pending = nil
	for s := range o.subs {
		s.close()
		delete(o.subs, s)
	}
}

// dispatchLocked starts the remote call for id. o.mu must be held.
func (o *Orchestrator) dispatchLocked(id uint64, req models.GenerationRequest) {
	ctx, cancel := context.WithCancel(o.baseCtx)
	a := &attempt{id: id, req: req, cancel: cancel}
	o.inflight = a

	o.logger.Info("generation dispatched",
		zap.Uint64("submission_id", id),
		zap.String("platform", string(req.Platform)),
		zap.Float64("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
	)
	go o.run(ctx, a)
}

func (o *Orchestrator) run(ctx context.Context, a *attempt) {
	result, err := o.generate(ctx, a.req)
	a.cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.inflight = nil
	if o.closed {
		return
	}

	if next := o.pending; next != nil {
		o.pending = nil
		o.logger.Info("discarding superseded outcome",
			zap.Uint64("submission_id", a.id),
			zap.Uint64("next_id", next.id),
		)
		o.dispatchLocked(next.id, next.req)
		return
	}

	if o.state.Kind != KindLoading || o.state.SubmissionID != a.id {
		o.logger.Debug("stale outcome dropped", zap.Uint64("submission_id", a.id))
		return
	}

	if err != nil {
		o.setLocked(State{Kind: KindFailure, SubmissionID: a.id, Error: models.AsGenerationError(err)})
		return
	}
	o.setLocked(State{Kind: KindSuccess, SubmissionID: a.id, Result: &result})
}

// generate calls the client, turning a panic into a ClientError so the
// state machine never stays in Loading.
func (o *Orchestrator) generate(ctx context.Context, req models.GenerationRequest) (result models.GenerationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("generator panicked", zap.Any("panic", r))
			err = models.NewClientError(fmt.Sprintf("generation failed: %v", r), nil)
		}
	}()
	if o.client == nil {
		return models.GenerationResult{}, models.NewClientError("no generation client configured", nil)
	}
	return o.client.Generate(ctx, req)
}

// setLocked replaces the state and fans it out. o.mu must be held.
func (o *Orchestrator) setLocked(st State) {
	st.UpdatedAt = o.now()
	o.state = st
	for s := range o.subs {
		s.push(st.clone())
	}
}
