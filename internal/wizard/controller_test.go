package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher records the requests it receives and can be told to
// fail or to block until released.
type fakeDispatcher struct {
	mu       sync.Mutex
	requests []DispatchRequest
	fail     error
	block    chan struct{}
	started  chan struct{}
	once     sync.Once
}

func (d *fakeDispatcher) Dispatch(_ context.Context, req DispatchRequest) (DispatchResult, error) {
	if d.started != nil {
		d.once.Do(func() { close(d.started) })
	}
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()
	if d.fail != nil {
		return DispatchResult{}, d.fail
	}
	id := req.ResourceID
	if id == "" {
		id = "created-1"
	}
	return DispatchResult{ID: id}, nil
}

type fakeValidator struct{ err error }

func (v fakeValidator) ValidatePayload(string, map[string]any) error { return v.err }

// fillValid populates every required field of the test definition.
func fillValid(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	require.NoError(t, s.SetField("primary", "origin_code", "SIN"))
	require.NoError(t, s.SetField("carrier", "airline_code", "SQ"))
}

func TestGoNextGatesOnCurrentStep(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")

	errs := s.GoNext()
	require.NotEmpty(t, errs)
	assert.Equal(t, 0, s.ActiveStep())
	assert.Equal(t, "customer_code", errs[0].Field)

	// Errors land on the section store too.
	assert.Len(t, s.SectionErrors("primary"), 2)

	fillValid(t, s)
	assert.Empty(t, s.GoNext())
	assert.Equal(t, 1, s.ActiveStep())
}

func TestGoNextChecksOnlyCurrentStep(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	// Step 0 only shows the primary section; the carrier section's
	// required field must not gate it.
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	require.NoError(t, s.SetField("primary", "origin_code", "SIN"))
	assert.Empty(t, s.GoNext())
}

func TestGoNextCapsAtLastStep(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	assert.Empty(t, s.GoNext())
	assert.Empty(t, s.GoNext())
	assert.Empty(t, s.GoNext())
	assert.Equal(t, 1, s.ActiveStep())
}

func TestGoNextCheckpoints(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	require.Empty(t, s.GoNext())

	cp := s.Checkpoint()
	require.NotNil(t, cp)
	assert.Equal(t, "ACME", cp.Sections["primary"]["customer_code"])
}

func TestGoPrevUnconditional(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	require.Empty(t, s.GoNext())

	// Clearing a required field does not block going back.
	require.NoError(t, s.SetField("carrier", "airline_code", ""))
	s.GoPrev()
	assert.Equal(t, 0, s.ActiveStep())
	s.GoPrev()
	assert.Equal(t, 0, s.ActiveStep())
}

func TestGoToStepViewOnly(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	assert.ErrorIs(t, s.GoToStep(1), ErrStepGated)

	v := NewSession(testDefinition(), ModeView, "job-1")
	require.NoError(t, v.Initialize(nil, nil))
	require.NoError(t, v.GoToStep(1))
	assert.Equal(t, 1, v.ActiveStep())
	assert.Error(t, v.GoToStep(7))
}

func TestViewModeSkipsGateValidation(t *testing.T) {
	v := NewSession(testDefinition(), ModeView, "job-1")
	require.NoError(t, v.Initialize(nil, nil))
	assert.Empty(t, v.GoNext())
	assert.Equal(t, 1, v.ActiveStep())
}

func TestSubmitRevalidatesEverything(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	require.Empty(t, s.GoNext())

	// Invalidate a step that was already passed.
	s.GoPrev()
	require.NoError(t, s.SetField("primary", "customer_code", ""))

	d := &fakeDispatcher{}
	_, fieldErrs, err := s.Submit(context.Background(), nil, d)
	require.NoError(t, err)
	require.NotEmpty(t, fieldErrs)
	assert.Equal(t, "customer_code", fieldErrs[0].Field)
	assert.Empty(t, d.requests, "nothing may be dispatched on validation failure")
}

func TestSubmitCreateAndEdit(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	d := &fakeDispatcher{}

	res, fieldErrs, err := s.Submit(context.Background(), fakeValidator{}, d)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, "created-1", res.ID)

	require.Len(t, d.requests, 1)
	req := d.requests[0]
	assert.Equal(t, ModeCreate, req.Mode)
	assert.Equal(t, "test-jobs", req.ResourcePath)
	assert.Equal(t, "ACME", req.Payload["customer_code"])
	assert.Equal(t, "SIN", req.Payload["origin"])

	e := NewSession(testDefinition(), ModeEdit, "job-7")
	require.NoError(t, e.Initialize(nil, nil))
	fillValid(t, e)
	res, _, err = e.Submit(context.Background(), fakeValidator{}, d)
	require.NoError(t, err)
	assert.Equal(t, "job-7", res.ID)
	assert.Equal(t, ModeEdit, d.requests[1].Mode)
	assert.Equal(t, "job-7", d.requests[1].ResourceID)
}

func TestSubmitCarriesSecondaryRows(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	require.NoError(t, s.SetItemField("people", 0, "name", "Dana"))
	require.NoError(t, s.SetItemField("people", 0, "email", "dana@example.com"))
	require.NoError(t, s.AddListItem("people")) // stays blank, must be skipped

	d := &fakeDispatcher{}
	_, fieldErrs, err := s.Submit(context.Background(), nil, d)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)

	require.Len(t, d.requests[0].Secondary, 1)
	assert.Equal(t, "Dana", d.requests[0].Secondary[0]["name"])
}

func TestSubmitViewOnly(t *testing.T) {
	v := NewSession(testDefinition(), ModeView, "job-1")
	require.NoError(t, v.Initialize(nil, nil))
	_, _, err := v.Submit(context.Background(), nil, &fakeDispatcher{})
	assert.ErrorIs(t, err, ErrViewOnly)
}

func TestSubmitInFlightGuard(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)

	release := make(chan struct{})
	started := make(chan struct{})
	d := &fakeDispatcher{block: release, started: started}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := s.Submit(context.Background(), nil, d)
		assert.NoError(t, err)
	}()

	// Second submit while the first is blocked in dispatch.
	<-started
	_, _, second := s.Submit(context.Background(), nil, &fakeDispatcher{})
	assert.ErrorIs(t, second, ErrSubmitInFlight)

	close(release)
	<-done

	// After completion the guard clears.
	_, _, err := s.Submit(context.Background(), nil, d)
	assert.NoError(t, err)
}

func TestSubmitFailureLeavesStateIntact(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)

	boom := errors.New("upstream down")
	d := &fakeDispatcher{fail: boom}
	_, _, err := s.Submit(context.Background(), nil, d)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrDispatchFailed)

	assert.Equal(t, "ACME", s.FieldValue("primary", "customer_code"))

	// And a retry is allowed.
	d.fail = nil
	_, fieldErrs, err := s.Submit(context.Background(), nil, d)
	require.NoError(t, err)
	assert.Empty(t, fieldErrs)
}

func TestSubmitContractFailure(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)

	d := &fakeDispatcher{}
	_, _, err := s.Submit(context.Background(), fakeValidator{err: errors.New("bad payload")}, d)
	require.Error(t, err)
	assert.Empty(t, d.requests, "contract failure must stop the dispatch")
}

func fillRoutingRow(t *testing.T, s *Session, index int) {
	t.Helper()
	for _, f := range []struct {
		name  string
		value any
	}{
		{"transport_mode", "Road"},
		{"from_location", "SIN"},
		{"to_location", "KUL"},
		{"etd", "2026-04-01T08:00:00Z"},
		{"eta", "2026-04-01T18:00:00Z"},
		{"carrier", "DBSC"},
		{"truck_no", "TRK-12"},
	} {
		require.NoError(t, s.SetItemField("routings", index, f.name, f.value))
	}
}

func TestSubmitSkipsBlankTrailingRow(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	fillRoutingRow(t, s, 0)
	require.NoError(t, s.AddListItem("routings"))

	d := &fakeDispatcher{}
	result, fieldErrs, err := s.Submit(context.Background(), nil, d)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, "created-1", result.ID)

	// The untouched second row never reaches the payload.
	require.Len(t, d.requests, 1)
	rows := d.requests[0].Payload["routings"].([]map[string]any)
	assert.Len(t, rows, 1)
}

func TestSubmitFlagsIncompleteRowNotBlankOne(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	fillValid(t, s)
	fillRoutingRow(t, s, 0)
	require.NoError(t, s.SetItemField("routings", 0, "to_location", ""))
	require.NoError(t, s.AddListItem("routings"))

	d := &fakeDispatcher{}
	_, fieldErrs, err := s.Submit(context.Background(), nil, d)
	require.NoError(t, err)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "to_location", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Message, "row 1:")
	assert.Empty(t, d.requests)
}
