package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/freightwise/cargodesk/internal/store"
	"github.com/freightwise/cargodesk/internal/types"
	"github.com/freightwise/cargodesk/internal/wizard"
)

// Local persists submissions to the service's own store instead of an
// upstream API. It is what runs when upstream.base_url is unset, and
// what handler tests run against.
type Local struct {
	store store.Store
}

// NewLocal creates a store-backed dispatcher.
func NewLocal(s store.Store) *Local { return &Local{store: s} }

// Dispatch saves the payload as a submission record. Edit mode reuses
// the existing resource id so the update overwrites the prior record.
func (l *Local) Dispatch(ctx context.Context, req wizard.DispatchRequest) (wizard.DispatchResult, error) {
	data, err := json.Marshal(req.Payload)
	if err != nil {
		return wizard.DispatchResult{}, fmt.Errorf("encode payload: %w", err)
	}
	sub := types.Submission{
		ID:         req.ResourceID,
		Kind:       req.WizardType,
		Mode:       string(req.Mode),
		ResourceID: req.ResourceID,
		Payload:    data,
	}
	if err := l.store.SaveSubmission(ctx, &sub); err != nil {
		return wizard.DispatchResult{}, fmt.Errorf("save submission: %w", err)
	}
	return wizard.DispatchResult{ID: sub.ID}, nil
}

// Notify logs the would-be notification. The local dispatcher has no
// delivery channel; keeping the log line preserves the audit value.
func (l *Local) Notify(_ context.Context, wizardType, resourceID string, recipient map[string]any) error {
	log.Printf("dispatch: local notify %s/%s -> %v", wizardType, resourceID, recipient["email"])
	return nil
}
