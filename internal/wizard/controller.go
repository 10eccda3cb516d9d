package wizard

import (
	"context"
	"fmt"
)

// DispatchRequest is the single outbound call produced by a successful
// submit, plus any best-effort secondary rows.
type DispatchRequest struct {
	WizardType   string
	ResourcePath string
	Mode         SessionMode
	ResourceID   string
	Payload      map[string]any
	Secondary    []map[string]any
}

// DispatchResult is the upstream acknowledgement of the primary call.
type DispatchResult struct {
	ID string `json:"id"`
}

// Dispatcher performs the primary create-or-update call and fires the
// best-effort secondary calls. Secondary failures are the dispatcher's
// to log; they never fail the submit.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
}

// PayloadValidator checks an assembled payload against the outbound
// contract before dispatch.
type PayloadValidator interface {
	ValidatePayload(wizardType string, payload map[string]any) error
}

// GoNext advances one step, gated on the current step's validation.
// Failed validation returns the field errors, leaves activeStep where
// it was, and has no side effect beyond marking errors on the stores.
// A successful advance checkpoints the session so progress survives a
// reload.
func (s *Session) GoNext() []FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeView {
		if errs := s.validateStepLocked(s.activeStep); len(errs) > 0 {
			return errs
		}
	}
	if s.activeStep < len(s.Def.Steps)-1 {
		s.activeStep++
	}
	s.checkpoint = s.snapshotLocked(nil)
	s.touch()
	return nil
}

// GoPrev moves back one step unconditionally (floor 0) and checkpoints
// so later-step edits are not lost if the user then navigates away.
func (s *Session) GoPrev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeStep > 0 {
		s.activeStep--
	}
	s.checkpoint = s.snapshotLocked(nil)
	s.touch()
}

// GoToStep jumps directly to a step. Free jumping is a read-only review
// affordance: anything but View mode must go through GoNext/GoPrev.
func (s *Session) GoToStep(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeView {
		return ErrStepGated
	}
	if n < 0 || n >= len(s.Def.Steps) {
		return fmt.Errorf("step %d out of range", n)
	}
	s.activeStep = n
	s.touch()
	return nil
}

// Checkpoint returns the snapshot taken on the last step transition,
// if any.
func (s *Session) Checkpoint() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint
}

// validateStepLocked runs the validation rule for one step: every
// section shown on it plus the row-level rule for its lists.
func (s *Session) validateStepLocked(step int) []FieldError {
	if step < 0 || step >= len(s.Def.Steps) {
		return nil
	}
	var errs []FieldError
	st := s.Def.Steps[step]
	for _, name := range st.Sections {
		errs = append(errs, s.sections[name].Validate()...)
	}
	for _, name := range st.Lists {
		schema, _ := s.Def.list(name)
		errs = append(errs, ValidateList(schema, s.lists[name])...)
	}
	return errs
}

// ValidateAll re-validates every section and every list. A step can be
// revisited and silently invalidated after it was passed, so submit
// never trusts the per-step gates alone.
func (s *Session) ValidateAll() []FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateAllLocked()
}

func (s *Session) validateAllLocked() []FieldError {
	var errs []FieldError
	for _, schema := range s.Def.Sections {
		errs = append(errs, s.sections[schema.Name].Validate()...)
	}
	for _, schema := range s.Def.Lists {
		errs = append(errs, ValidateList(schema, s.lists[schema.Name])...)
	}
	return errs
}

// Submit validates the whole session, assembles the payload, checks it
// against the outbound contract, and hands it to the dispatcher.
// Create dispatches a POST, Edit a PUT with the resource id. On any
// failure the session state is left fully intact so the user retries
// without re-entering anything. The submitting guard stands in for the
// disabled submit control: duplicate submits are rejected while one is
// in flight.
func (s *Session) Submit(ctx context.Context, v PayloadValidator, d Dispatcher) (DispatchResult, []FieldError, error) {
	s.mu.Lock()
	if s.mode == ModeView {
		s.mu.Unlock()
		return DispatchResult{}, nil, ErrViewOnly
	}
	if s.submitting {
		s.mu.Unlock()
		return DispatchResult{}, nil, ErrSubmitInFlight
	}
	if errs := s.validateAllLocked(); len(errs) > 0 {
		s.mu.Unlock()
		return DispatchResult{}, errs, nil
	}
	payload, err := s.assembleLocked()
	if err != nil {
		s.mu.Unlock()
		return DispatchResult{}, nil, fmt.Errorf("assemble payload: %w", err)
	}
	req := DispatchRequest{
		WizardType:   s.Def.Type,
		ResourcePath: s.Def.ResourcePath,
		Mode:         s.mode,
		ResourceID:   s.resourceID,
		Payload:      payload,
		Secondary:    s.secondaryRowsLocked(),
	}
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if v != nil {
		if err := v.ValidatePayload(req.WizardType, req.Payload); err != nil {
			return DispatchResult{}, nil, fmt.Errorf("payload contract: %w", err)
		}
	}
	res, err := d.Dispatch(ctx, req)
	if err != nil {
		return DispatchResult{}, nil, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	return res, nil, nil
}

// secondaryRowsLocked assembles the non-blank rows of the secondary
// list, if the wizard declares one.
func (s *Session) secondaryRowsLocked() []map[string]any {
	if s.Def.SecondaryList == "" {
		return nil
	}
	schema, ok := s.Def.list(s.Def.SecondaryList)
	if !ok {
		return nil
	}
	var rows []map[string]any
	for _, it := range s.lists[schema.Name] {
		if it.IsBlank() {
			continue
		}
		rows = append(rows, assembleRow(schema, it))
	}
	return rows
}
