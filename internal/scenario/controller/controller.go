// Package controller coordinates scenario simulation for one entity's
// session: debounced dispatch, cancellation of superseded requests, bounded
// retry with fixed backoff, and the capped session timeline.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/axisgrid/concentra/api/dataset"
	"github.com/axisgrid/concentra/api/scenario"
	"github.com/axisgrid/concentra/internal/axis"
	"github.com/axisgrid/concentra/internal/scenario/payload"
	"github.com/axisgrid/concentra/internal/scenario/sched"
	"github.com/axisgrid/concentra/internal/scenario/schema"
	"github.com/axisgrid/concentra/internal/scenario/timeline"
	"github.com/axisgrid/concentra/internal/scenario/transport"
)

// State is the controller's presentation-facing state.
type State string

const (
	StateIdle        State = "idle"
	StateComputing   State = "computing"
	StateRetrying    State = "retrying"
	StateSuccess     State = "success"
	StateServiceDown State = "service_down"
	StateError       State = "error"
)

// Defaults for the dispatch timing policy.
var (
	DefaultDebounce     = 100 * time.Millisecond
	DefaultRetryBackoff = []time.Duration{800 * time.Millisecond, 2400 * time.Millisecond}
)

// Config wires a controller instance.
type Config struct {
	EntityCode   string
	Cohort       payload.CodeSet
	Transport    transport.Client
	Scheduler    sched.Scheduler
	Validator    *schema.Validator
	Timeline     *timeline.Log
	Logger       *zap.Logger
	Debounce     time.Duration
	RetryBackoff []time.Duration
}

// Snapshot is the reactive view handed to the presentation layer. Result is
// the last successful simulation if any; Stale marks it as retained from
// before the current failure or recompute.
type Snapshot struct {
	State       State                    `json:"state"`
	EntityCode  string                   `json:"entity_code"`
	Adjustments map[axis.Slug]float64    `json:"adjustments"`
	Result      *scenario.ScenarioResult `json:"result,omitempty"`
	Stale       bool                     `json:"stale"`
	Failure     *scenario.Failure        `json:"failure,omitempty"`
	Timeline    []timeline.Entry         `json:"timeline"`
}

// Controller is the per-entity simulation state machine. At most one request
// chain is live at a time; a new adjustment set supersedes the previous chain
// before dispatching.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	state       State
	adjustments map[axis.Slug]float64
	presetLabel string
	result      *scenario.ScenarioResult
	failure     *scenario.Failure

	generation int
	cancel     context.CancelFunc
	ctx        context.Context
	attempt    int

	debounceHandle sched.Handle
	retryHandle    sched.Handle
	closed         bool
}

// New builds a controller. Transport, Scheduler, Validator and Timeline are
// required; Logger defaults to a nop logger.
func New(cfg Config) (*Controller, error) {
	if len(cfg.EntityCode) != 2 {
		return nil, fmt.Errorf("entity code must be exactly 2 characters, got %q", cfg.EntityCode)
	}
	if _, ok := cfg.Cohort[cfg.EntityCode]; !ok {
		return nil, fmt.Errorf("entity code %q is not in the cohort", cfg.EntityCode)
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if cfg.Timeline == nil {
		return nil, fmt.Errorf("timeline is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.RetryBackoff == nil {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &Controller{
		cfg:         cfg,
		state:       StateIdle,
		adjustments: map[axis.Slug]float64{},
	}, nil
}

// ApplyAdjustment sets one axis adjustment. A zero value clears the axis.
// The dispatch is debounced; rapid successive calls coalesce into one request.
func (c *Controller) ApplyAdjustment(slug axis.Slug, value float64) error {
	if err := slug.Validate(); err != nil {
		return scenario.NewFailure(scenario.FailureBadInput, err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("controller is closed")
	}
	if value == 0 {
		delete(c.adjustments, slug)
	} else {
		c.adjustments[slug] = value
	}
	c.presetLabel = ""
	c.scheduleDispatchLocked()
	return nil
}

// ApplyAdjustments replaces the whole adjustment set.
func (c *Controller) ApplyAdjustments(adjustments map[axis.Slug]float64) error {
	return c.replace(adjustments, "")
}

// ApplyPreset replaces the adjustment set and tags subsequent timeline
// entries with the preset label.
func (c *Controller) ApplyPreset(label string, adjustments map[axis.Slug]float64) error {
	if label == "" {
		return scenario.NewFailure(scenario.FailureBadInput, "preset label is required")
	}
	return c.replace(adjustments, label)
}

func (c *Controller) replace(adjustments map[axis.Slug]float64, label string) error {
	for slug := range adjustments {
		if err := slug.Validate(); err != nil {
			return scenario.NewFailure(scenario.FailureBadInput, err.Error())
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("controller is closed")
	}
	next := make(map[axis.Slug]float64, len(adjustments))
	for slug, value := range adjustments {
		if value != 0 {
			next[slug] = value
		}
	}
	c.adjustments = next
	c.presetLabel = label
	c.scheduleDispatchLocked()
	return nil
}

// Reset clears all adjustments and returns to idle without a network call.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.supersedeLocked()
	c.adjustments = map[axis.Slug]float64{}
	c.presetLabel = ""
	c.result = nil
	c.failure = nil
	c.attempt = 0
	c.state = StateIdle
}

// Retry re-dispatches the current adjustment set immediately with a fresh
// retry budget. It is the affordance behind the "try again" action after
// service_down or error.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.supersedeLocked()
	if len(c.adjustments) == 0 {
		c.failure = nil
		c.state = StateIdle
		return
	}
	gen := c.generation
	c.debounceHandle = c.cfg.Scheduler.Schedule(0, func() { c.dispatch(gen) })
}

// Snapshot returns a copy of the presentation-facing view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ExportSnapshot serializes the current snapshot for download or sharing.
func (c *Controller) ExportSnapshot() ([]byte, error) {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// Close cancels any in-flight work. The controller accepts no actions after.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.supersedeLocked()
	c.closed = true
}

func (c *Controller) snapshotLocked() Snapshot {
	adjustments := make(map[axis.Slug]float64, len(c.adjustments))
	for slug, value := range c.adjustments {
		adjustments[slug] = value
	}
	return Snapshot{
		State:       c.state,
		EntityCode:  c.cfg.EntityCode,
		Adjustments: adjustments,
		Result:      c.result,
		Stale:       c.result != nil && c.state != StateSuccess,
		Failure:     c.failure,
		Timeline:    c.cfg.Timeline.Entries(),
	}
}

// supersedeLocked invalidates the current request chain: pending timers are
// stopped, the in-flight context is cancelled, and the generation is bumped
// so any response still in flight is dropped on arrival.
func (c *Controller) supersedeLocked() {
	if c.debounceHandle != nil {
		c.debounceHandle.Stop()
		c.debounceHandle = nil
	}
	if c.retryHandle != nil {
		c.retryHandle.Stop()
		c.retryHandle = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.attempt = 0
}

func (c *Controller) scheduleDispatchLocked() {
	c.supersedeLocked()
	if len(c.adjustments) == 0 {
		c.failure = nil
		c.state = StateIdle
		return
	}
	gen := c.generation
	c.debounceHandle = c.cfg.Scheduler.Schedule(c.cfg.Debounce, func() { c.dispatch(gen) })
}

// dispatch runs one transport attempt. It executes inside a scheduler
// callback and calls the transport without holding the lock, so a reentrant
// adjustment during the call safely supersedes this chain.
func (c *Controller) dispatch(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}

	req, err := payload.Validate(c.cfg.EntityCode, stringKeys(c.adjustments), c.cfg.Cohort, payload.ModeClient)
	if err != nil {
		c.settleFailureLocked(err)
		c.mu.Unlock()
		return
	}

	if c.attempt == 0 {
		c.state = StateComputing
	} else {
		c.state = StateRetrying
	}
	if c.ctx == nil || c.ctx.Err() != nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	ctx := c.ctx
	client := c.cfg.Transport
	c.mu.Unlock()

	raw, err := client.Simulate(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		return
	}
	if err != nil {
		c.handleFailureLocked(gen, err)
		return
	}

	result, err := c.cfg.Validator.ValidateResult(raw)
	if err != nil {
		c.settleFailureLocked(err)
		return
	}
	c.settleSuccessLocked(req, result)
}

func (c *Controller) handleFailureLocked(gen int, err error) {
	f, ok := scenario.AsFailure(err)
	if !ok {
		// Cancellation passthrough from a superseded or closed chain.
		return
	}
	if f.Kind.Retryable() && c.attempt < len(c.cfg.RetryBackoff) {
		delay := c.cfg.RetryBackoff[c.attempt]
		c.attempt++
		c.failure = f
		c.state = StateRetrying
		c.cfg.Logger.Warn("simulation attempt failed, retrying",
			zap.String("entity", c.cfg.EntityCode),
			zap.Int("attempt", c.attempt),
			zap.Duration("backoff", delay),
			zap.String("kind", string(f.Kind)))
		c.retryHandle = c.cfg.Scheduler.Schedule(delay, func() { c.dispatch(gen) })
		return
	}
	c.settleFailureLocked(f)
}

func (c *Controller) settleFailureLocked(err error) {
	f, ok := scenario.AsFailure(err)
	if !ok {
		f = scenario.NewFailure(scenario.FailureTransportBlocked, err.Error())
	}
	c.failure = f
	c.attempt = 0
	switch f.Kind {
	case scenario.FailureBadInput, scenario.FailureValidation:
		c.state = StateError
	default:
		c.state = StateServiceDown
	}
	c.cfg.Logger.Warn("simulation failed",
		zap.String("entity", c.cfg.EntityCode),
		zap.String("kind", string(f.Kind)),
		zap.String("state", string(c.state)))
}

func (c *Controller) settleSuccessLocked(req scenario.SimulationRequest, result scenario.ScenarioResult) {
	if expected := dataset.Classify(result.Simulated.Composite); expected != result.Simulated.Classification {
		c.cfg.Logger.Warn("upstream classification disagrees with local thresholds",
			zap.String("entity", c.cfg.EntityCode),
			zap.Float64("composite", result.Simulated.Composite),
			zap.String("upstream", string(result.Simulated.Classification)),
			zap.String("local", string(expected)))
	}

	c.result = &result
	c.failure = nil
	c.attempt = 0
	c.state = StateSuccess
	c.cfg.Timeline.Append(timeline.Entry{
		Adjustments:    req.Adjustments,
		Composite:      result.Simulated.Composite,
		Rank:           result.Simulated.Rank,
		Classification: result.Simulated.Classification,
		PresetLabel:    c.presetLabel,
	})
}

func stringKeys(adjustments map[axis.Slug]float64) map[string]float64 {
	out := make(map[string]float64, len(adjustments))
	for slug, value := range adjustments {
		out[string(slug)] = value
	}
	return out
}
