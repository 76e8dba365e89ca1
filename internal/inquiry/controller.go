package inquiry

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the display state of the contact form.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateAccepted   State = "accepted"
	StateFailed     State = "failed"
	StateRejected   State = "rejected"
)

// Outcome labels the result of one Submit call.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeFailed    Outcome = "failed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeDuplicate Outcome = "duplicate"
)

// DefaultRejectDelay is how long a rejected submission stays on screen.
const DefaultRejectDelay = 3 * time.Second

// Relay delivers a validated draft to the form relay service. key identifies
// the visitor; a relay refuses a second delivery for a key that is already in
// flight with ErrSubmitInProgress.
type Relay interface {
	Send(ctx context.Context, key string, draft Inquiry) error
}

// Options tunes a Controller.
type Options struct {
	// Key identifies the visitor owning the draft.
	Key string
	// RejectDelay overrides DefaultRejectDelay.
	RejectDelay time.Duration
	// Clock overrides time.Now.
	Clock func() time.Time
	// Observe is invoked once per Submit call with its outcome.
	Observe func(Outcome)
}

// Snapshot is the serialisable form of a Controller, stored in the visitor
// session between requests.
type Snapshot struct {
	Draft         Inquiry     `json:"draft"`
	State         State       `json:"state"`
	RejectedUntil time.Time   `json:"rejected_until,omitempty"`
	Violations    []Violation `json:"violations,omitempty"`
}

// Controller collects a draft, validates it and submits it at most once per
// user action.
type Controller struct {
	relay       Relay
	validator   *Validator
	key         string
	rejectDelay time.Duration
	now         func() time.Time
	observe     func(Outcome)

	mu            sync.Mutex
	draft         Inquiry
	state         State
	rejectedUntil time.Time
	violations    []Violation
}

// NewController returns a controller holding an empty draft in StateIdle.
func NewController(relay Relay, validator *Validator, opts Options) *Controller {
	c := &Controller{
		relay:       relay,
		validator:   validator,
		key:         opts.Key,
		rejectDelay: opts.RejectDelay,
		now:         opts.Clock,
		observe:     opts.Observe,
		state:       StateIdle,
	}
	if c.rejectDelay <= 0 {
		c.rejectDelay = DefaultRejectDelay
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.draft = New(validator.DefaultProductType())
	return c
}

// UpdateField overwrites one draft field. Editing after a failed or accepted
// submission returns the form to StateIdle.
func (c *Controller) UpdateField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	if !c.draft.Set(name, value) {
		return
	}
	if c.state == StateFailed || c.state == StateAccepted {
		c.state = StateIdle
	}
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Inquiry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// State returns the current state. A rejection whose delay has elapsed reads
// as StateIdle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	return c.state
}

// Violations returns the violations behind the current rejection, if any.
func (c *Controller) Violations() []Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	if c.state != StateRejected {
		return nil
	}
	return append([]Violation(nil), c.violations...)
}

// RejectionRemaining reports how long the current rejection stays visible.
func (c *Controller) RejectionRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	if c.state != StateRejected {
		return 0
	}
	return c.rejectedUntil.Sub(c.now())
}

// Acknowledge clears a terminal Accepted state once it has been shown.
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAccepted {
		c.state = StateIdle
	}
}

// Submit validates the draft and, when it is valid, delivers it through the
// relay. Invalid drafts move to StateRejected without any network I/O.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.settleLocked()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		c.report(OutcomeDuplicate)
		return ErrSubmitInProgress
	}
	draft := c.draft
	if violations := c.validator.Validate(draft); len(violations) > 0 {
		c.state = StateRejected
		c.rejectedUntil = c.now().Add(c.rejectDelay)
		c.violations = violations
		c.mu.Unlock()
		c.report(OutcomeRejected)
		return &ValidationError{Violations: violations}
	}
	c.state = StateSubmitting
	c.violations = nil
	c.mu.Unlock()

	err := c.relay.Send(ctx, c.key, draft)

	c.mu.Lock()
	if errors.Is(err, ErrSubmitInProgress) {
		// Another request from the same visitor holds the relay; this draft
		// was not sent and stays editable.
		c.state = StateIdle
		c.mu.Unlock()
		c.report(OutcomeDuplicate)
		return ErrSubmitInProgress
	}
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		c.report(OutcomeFailed)
		if te, ok := IsTransportError(err); ok {
			return te
		}
		return &TransportError{Cause: err}
	}
	c.state = StateAccepted
	c.draft = New(c.validator.DefaultProductType())
	c.mu.Unlock()
	c.report(OutcomeAccepted)
	return nil
}

// Snapshot exports the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	snap := Snapshot{Draft: c.draft, State: c.state}
	if c.state == StateRejected {
		snap.RejectedUntil = c.rejectedUntil
		snap.Violations = append([]Violation(nil), c.violations...)
	}
	return snap
}

// Restore replaces the controller state with snap.
func (c *Controller) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = snap.Draft
	if c.draft.ProductType == "" {
		c.draft.ProductType = c.validator.DefaultProductType()
	}
	c.state = snap.State
	c.rejectedUntil = snap.RejectedUntil
	c.violations = snap.Violations
	switch c.state {
	case StateIdle, StateAccepted, StateFailed, StateRejected:
	default:
		// A submission never outlives the request that started it.
		c.state = StateIdle
	}
	c.settleLocked()
}

func (c *Controller) settleLocked() {
	if c.state == StateRejected && !c.now().Before(c.rejectedUntil) {
		c.state = StateIdle
		c.rejectedUntil = time.Time{}
		c.violations = nil
	}
}

func (c *Controller) report(outcome Outcome) {
	if c.observe != nil {
		c.observe(outcome)
	}
}
