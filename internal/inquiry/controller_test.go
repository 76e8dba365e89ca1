package inquiry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRelay struct {
	calls atomic.Int32
	err   error
	last  Inquiry
	mu    sync.Mutex
}

func (s *stubRelay) Send(ctx context.Context, key string, draft Inquiry) error {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = draft
	s.mu.Unlock()
	return s.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestController(relay Relay, clock *fakeClock) *Controller {
	opts := Options{Key: "visitor-1"}
	if clock != nil {
		opts.Clock = clock.Now
	}
	return NewController(relay, NewValidator([]string{"caja-paltas", "caja-arandanos"}), opts)
}

func fillValid(c *Controller) {
	c.UpdateField(FieldName, "Ana Pérez")
	c.UpdateField(FieldCompany, "Agrícola Sur")
	c.UpdateField(FieldEmail, "ana@agricolasur.cl")
	c.UpdateField(FieldQuantity, "1000")
	c.UpdateField(FieldMessage, "Necesitamos cajas para la temporada.")
}

func TestControllerStartsIdleWithDefaultProduct(t *testing.T) {
	c := newTestController(&stubRelay{}, nil)

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, "caja-paltas", c.Draft().ProductType)
	assert.True(t, c.Draft().IsEmpty())
}

func TestUpdateFieldLastWriteWins(t *testing.T) {
	c := newTestController(&stubRelay{}, nil)

	c.UpdateField(FieldName, "Ana")
	c.UpdateField(FieldName, "Beatriz")
	c.UpdateField("unknown", "ignored")

	assert.Equal(t, "Beatriz", c.Draft().Name)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitInvalidDraftNeverCallsRelay(t *testing.T) {
	relay := &stubRelay{}
	clock := &fakeClock{now: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestController(relay, clock)
	c.UpdateField(FieldName, "Ana")

	err := c.Submit(context.Background())

	ve, ok := IsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.NotEmpty(t, ve.Violations)
	assert.Equal(t, int32(0), relay.calls.Load())
	assert.Equal(t, StateRejected, c.State())
}

func TestRejectedClearsAfterDelayAndKeepsInput(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestController(&stubRelay{}, clock)
	c.UpdateField(FieldName, "Ana")
	c.UpdateField(FieldEmail, "sin-arroba")

	_ = c.Submit(context.Background())
	require.Equal(t, StateRejected, c.State())
	assert.Equal(t, DefaultRejectDelay, c.RejectionRemaining())

	clock.Advance(DefaultRejectDelay - time.Millisecond)
	assert.Equal(t, StateRejected, c.State())

	clock.Advance(time.Millisecond)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Violations())
	assert.Equal(t, "Ana", c.Draft().Name)
	assert.Equal(t, "sin-arroba", c.Draft().Email)
}

func TestSubmitValidDraftSendsExactlyOnce(t *testing.T) {
	relay := &stubRelay{}
	c := newTestController(relay, nil)
	fillValid(c)

	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, int32(1), relay.calls.Load())
	assert.Equal(t, "ana@agricolasur.cl", relay.last.Email)
}

func TestAcceptedResetsDraft(t *testing.T) {
	c := newTestController(&stubRelay{}, nil)
	fillValid(c)
	c.UpdateField(FieldPhone, "+56 9 1234 5678")

	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, StateAccepted, c.State())
	draft := c.Draft()
	assert.True(t, draft.IsEmpty())
	assert.Equal(t, "caja-paltas", draft.ProductType)

	c.Acknowledge()
	assert.Equal(t, StateIdle, c.State())
}

func TestFailedLeavesDraftUntouched(t *testing.T) {
	relay := &stubRelay{err: errors.New("connection refused")}
	c := newTestController(relay, nil)
	fillValid(c)
	before := c.Draft()

	err := c.Submit(context.Background())

	te, ok := IsTransportError(err)
	require.True(t, ok, "expected transport error, got %v", err)
	assert.EqualError(t, te.Unwrap(), "connection refused")
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, before, c.Draft())
}

func TestFailedReturnsToIdleOnEdit(t *testing.T) {
	relay := &stubRelay{err: &TransportError{StatusCode: 502}}
	c := newTestController(relay, nil)
	fillValid(c)

	err := c.Submit(context.Background())
	te, ok := IsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, 502, te.StatusCode)
	require.Equal(t, StateFailed, c.State())

	c.UpdateField(FieldMessage, "Reintento")
	assert.Equal(t, StateIdle, c.State())

	relay.err = nil
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, int32(2), relay.calls.Load())
}

type blockingRelay struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingRelay) Send(ctx context.Context, key string, draft Inquiry) error {
	b.calls.Add(1)
	close(b.entered)
	<-b.release
	return nil
}

func TestSubmitWhileSubmittingIsRefused(t *testing.T) {
	relay := &blockingRelay{entered: make(chan struct{}), release: make(chan struct{})}
	c := newTestController(relay, nil)
	fillValid(c)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-relay.entered

	assert.Equal(t, StateSubmitting, c.State())
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitInProgress)

	close(relay.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), relay.calls.Load())
	assert.Equal(t, StateAccepted, c.State())
}

func TestRelayBusyKeepsDraftEditable(t *testing.T) {
	var outcomes []Outcome
	relay := &stubRelay{err: ErrSubmitInProgress}
	c := NewController(relay, NewValidator([]string{"caja-paltas"}), Options{
		Key:     "visitor-1",
		Observe: func(o Outcome) { outcomes = append(outcomes, o) },
	})
	fillValid(c)
	c.UpdateField(FieldMessage, "Segunda cotización")

	err := c.Submit(context.Background())

	assert.ErrorIs(t, err, ErrSubmitInProgress)
	_, isTransport := IsTransportError(err)
	assert.False(t, isTransport)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, "Segunda cotización", c.Draft().Message)
	assert.Equal(t, []Outcome{OutcomeDuplicate}, outcomes)

	relay.err = nil
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, "Segunda cotización", relay.last.Message)
}

func TestObserveReportsOutcomes(t *testing.T) {
	var outcomes []Outcome
	relay := &stubRelay{}
	c := NewController(relay, NewValidator([]string{"caja-paltas"}), Options{
		Observe: func(o Outcome) { outcomes = append(outcomes, o) },
	})

	_ = c.Submit(context.Background())
	fillValid(c)
	_ = c.Submit(context.Background())
	fillValid(c)
	relay.err = errors.New("boom")
	_ = c.Submit(context.Background())

	assert.Equal(t, []Outcome{OutcomeRejected, OutcomeAccepted, OutcomeFailed}, outcomes)
}

func TestSnapshotRoundTripPreservesRejection(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)}
	c := newTestController(&stubRelay{}, clock)
	c.UpdateField(FieldCompany, "Agrícola Sur")
	_ = c.Submit(context.Background())

	snap := c.Snapshot()
	require.Equal(t, StateRejected, snap.State)

	restored := newTestController(&stubRelay{}, clock)
	restored.Restore(snap)
	assert.Equal(t, StateRejected, restored.State())
	assert.Equal(t, "Agrícola Sur", restored.Draft().Company)
	assert.NotEmpty(t, restored.Violations())

	clock.Advance(DefaultRejectDelay)
	assert.Equal(t, StateIdle, restored.State())
}

func TestRestoreDropsStaleSubmitting(t *testing.T) {
	c := newTestController(&stubRelay{}, nil)
	c.Restore(Snapshot{State: StateSubmitting, Draft: Inquiry{Name: "Ana"}})

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, "caja-paltas", c.Draft().ProductType)
}
