package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kingrea/prospector/internal/metrics"
	"github.com/kingrea/prospector/internal/stage"
)

// Order is the canonical stage sequence. Each stage consumes the artifact the
// previous one produced.
var Order = []string{"scout", "hunter", "enrich", "stakeholders", "outreach", "score"}

// Runner sequences registered stages over a shared stage context, persisting
// run state across every transition.
type Runner struct {
	registry *stage.Registry
	env      *stage.Context
	store    *StateStore
	clock    func() time.Time
}

// Option customizes the runner instance.
type Option func(*Runner)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRunner wires a runner to the stage registry and state store.
func NewRunner(registry *stage.Registry, env *stage.Context, store *StateStore, opts ...Option) (*Runner, error) {
	if registry == nil {
		return nil, fmt.Errorf("pipeline: stage registry is required")
	}
	if env == nil {
		return nil, fmt.Errorf("pipeline: stage context is required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: state store is required")
	}
	runner := &Runner{registry: registry, env: env, store: store, clock: time.Now}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// RunAll executes every stage in order on a fresh run record. The first stage
// whose output is unusable halts the pipeline; its error is returned together
// with the final state.
func (r *Runner) RunAll(ctx context.Context) (RunState, error) {
	state := NewRunState(Order, r.clock())
	if err := r.store.Save(state); err != nil {
		return state, err
	}
	for _, id := range Order {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		result, err := r.runStage(ctx, id, &state)
		if err != nil {
			return state, fmt.Errorf("pipeline: stage %s: %w", id, err)
		}
		if !result.Status.Usable() || result.Processed == 0 {
			return state, fmt.Errorf("pipeline: stage %s produced no usable records, halting", id)
		}
	}
	return state, nil
}

// RunOne executes a single stage against the last persisted run record. The
// stage's input artifact must be present and non-empty; the stage itself
// reports the integrity error when it is not.
func (r *Runner) RunOne(ctx context.Context, id string) (RunState, error) {
	if _, err := r.registry.Resolve(id); err != nil {
		return RunState{}, err
	}
	state, err := r.store.Load()
	if err != nil {
		return RunState{}, err
	}
	if state.RunID == "" {
		state = NewRunState(Order, r.clock())
	}
	result, err := r.runStage(ctx, id, &state)
	if err != nil {
		return state, fmt.Errorf("pipeline: stage %s: %w", id, err)
	}
	if !result.Status.Usable() {
		return state, fmt.Errorf("pipeline: stage %s failed", id)
	}
	return state, nil
}

// runStage drives one stage through its lifecycle, recording both the running
// and terminal transitions and the prometheus series for the execution.
func (r *Runner) runStage(ctx context.Context, id string, state *RunState) (stage.Result, error) {
	st, err := r.registry.Resolve(id)
	if err != nil {
		return stage.Result{}, err
	}
	started := r.clock()
	state.Stages[id] = StageState{Status: stage.StatusRunning, StartedAt: started}
	state.UpdatedAt = started
	if err := r.store.Save(*state); err != nil {
		return stage.Result{}, err
	}
	r.env.Logbook.Info("stage %s starting", id)

	result, runErr := st.Run(ctx, r.env)
	if result.Status == "" {
		result.Status = stage.StatusFailed
	}
	finished := r.clock()

	record := StageState{
		Status:     result.Status,
		Processed:  result.Processed,
		Failed:     result.Failed,
		Message:    result.Message,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if runErr != nil {
		record.Error = runErr.Error()
		r.env.Logbook.Error("stage %s: %v", id, runErr)
	} else {
		r.env.Logbook.Info("stage %s %s: %s", id, result.Status, result.Message)
	}
	state.Stages[id] = record
	state.UpdatedAt = finished
	if err := r.store.Save(*state); err != nil {
		return result, err
	}

	metrics.StageRuns.WithLabelValues(id, string(result.Status)).Inc()
	metrics.StageDuration.WithLabelValues(id).Observe(finished.Sub(started).Seconds())
	metrics.ItemsProcessed.WithLabelValues(id).Add(float64(result.Processed))
	metrics.ItemsFailed.WithLabelValues(id).Add(float64(result.Failed))

	// A stage that degraded but still produced usable output does not abort
	// the sequence, so its error is consumed here after logging.
	if runErr != nil && result.Status.Usable() {
		runErr = nil
	}
	return result, runErr
}
