// Wizard session handlers: the HTTP surface of the multi-step form
// engine. Sessions are created per wizard type, driven field by field,
// gated through next/prev, snapshotted across sub-resource detours,
// and submitted exactly once.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freightwise/cargodesk/internal/event"
	"github.com/freightwise/cargodesk/internal/forms"
	"github.com/freightwise/cargodesk/internal/wizard"
)

// WizardHandler implements the wizard session API.
type WizardHandler struct {
	manager     *wizard.Manager
	validator   wizard.PayloadValidator
	dispatcher  wizard.Dispatcher
	recorder    event.Recorder
	navCooldown time.Duration
}

// NewWizardHandler creates a WizardHandler.
func NewWizardHandler(m *wizard.Manager, v wizard.PayloadValidator, d wizard.Dispatcher, r event.Recorder) *WizardHandler {
	return &WizardHandler{
		manager:     m,
		validator:   v,
		dispatcher:  d,
		recorder:    r,
		navCooldown: 3 * time.Second,
	}
}

type createSessionRequest struct {
	Mode       string                    `json:"mode"`
	ResourceID string                    `json:"resource_id"`
	Sections   map[string]map[string]any `json:"sections"`
	Lists      map[string][]wizard.LineItem `json:"lists"`
}

// CreateSession starts a wizard session.
// POST /v1/wizards/{type}/sessions
//
// Edit/View sessions may carry the fetched resource's sections/lists in
// the create body; otherwise they stay uninitialized until Initialize
// delivers them, and any restore arriving in between is parked.
func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	wizardType := chi.URLParam(r, "type")
	def, ok := forms.Lookup(wizardType)
	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_WIZARD", "unknown wizard type: "+wizardType)
		return
	}
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	mode, ok := wizard.ParseSessionMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_MODE", "unknown mode: "+req.Mode)
		return
	}
	if mode != wizard.ModeCreate && req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_RESOURCE", "resource_id is required for "+string(mode)+" mode")
		return
	}
	sess := h.manager.Create(def, mode, req.ResourceID)
	if mode != wizard.ModeCreate && (req.Sections != nil || req.Lists != nil) {
		if err := sess.Initialize(req.Sections, req.Lists); err != nil {
			h.manager.Remove(sess.ID)
			writeError(w, http.StatusBadRequest, "INVALID_RESOURCE", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusCreated, sessionView(sess))
}

// GetSession returns the full session state.
// GET /v1/wizard-sessions/{id}
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// Initialize delivers the fetched resource for a pending Edit/View
// session.
// POST /v1/wizard-sessions/{id}/initialize
func (h *WizardHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := sess.Initialize(req.Sections, req.Lists); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_RESOURCE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

type setFieldRequest struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
}

// SetField assigns one section field.
// POST /v1/wizard-sessions/{id}/fields
func (h *WizardHandler) SetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := sess.SetField(req.Section, req.Field, req.Value); err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// AddItem appends a blank row to a list.
// POST /v1/wizard-sessions/{id}/items/{list}
func (h *WizardHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.AddListItem(chi.URLParam(r, "list")); err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// RemoveItem removes a row; the sole remaining row resets instead.
// DELETE /v1/wizard-sessions/{id}/items/{list}/{index}
func (h *WizardHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INDEX", "index must be an integer")
		return
	}
	if err := sess.RemoveListItem(chi.URLParam(r, "list"), index); err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

type setItemFieldRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// SetItemField assigns one field of one list row.
// POST /v1/wizard-sessions/{id}/items/{list}/{index}/fields
func (h *WizardHandler) SetItemField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INDEX", "index must be an integer")
		return
	}
	var req setItemFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := sess.SetItemField(chi.URLParam(r, "list"), index, req.Field, req.Value); err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// GoNext advances one step if the current step validates.
// POST /v1/wizard-sessions/{id}/next
func (h *WizardHandler) GoNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if errs := sess.GoNext(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors":      errs,
			"active_step": sess.ActiveStep(),
		})
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// GoPrev steps back unconditionally.
// POST /v1/wizard-sessions/{id}/prev
func (h *WizardHandler) GoPrev(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.GoPrev()
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// GoToStep jumps to a step; View mode only.
// POST /v1/wizard-sessions/{id}/step/{n}
func (h *WizardHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_STEP", "step must be an integer")
		return
	}
	if err := sess.GoToStep(n); err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// Snapshot captures the session without the navigation guard, e.g. for
// an explicit save-progress affordance.
// POST /v1/wizard-sessions/{id}/snapshot
func (h *WizardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.TakeSnapshot(nil))
}

type navigateRequest struct {
	ReturnContext map[string]any `json:"return_context"`
}

// Navigate snapshots the session for an outbound sub-resource detour.
// The guard rejects a second trigger until the cooldown passes — the
// double-click that used to create two sub-resources now gets a 409.
// POST /v1/wizard-sessions/{id}/navigate
func (h *WizardHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	returnCtx, err := encodeReturnContext(req.ReturnContext)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	snap, err := sess.BeginNavigation(returnCtx, h.navCooldown)
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Return clears the navigation guard after the caller comes back.
// POST /v1/wizard-sessions/{id}/return
func (h *WizardHandler) Return(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.EndNavigation()
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// Restore applies a previously-taken snapshot. Applying the same
// snapshot twice is a no-op; a malformed snapshot is a non-fatal error
// and the session keeps its pre-restore state.
// POST /v1/wizard-sessions/{id}/restore
func (h *WizardHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var snap wizard.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_SNAPSHOT", err.Error())
		return
	}
	if err := sess.Restore(&snap); err != nil {
		log.Printf("wizard: restore failed for session %s: %v", sess.ID, err)
		if errors.Is(err, wizard.ErrViewOnly) {
			wizardErrorToHTTP(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "RESTORE_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// Submit validates the whole session and dispatches the payload. On
// success the session is disposed and the caller navigates back to the
// listing page; on failure every field the user typed survives.
// POST /v1/wizard-sessions/{id}/submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	result, fieldErrs, err := sess.Submit(r.Context(), h.validator, h.dispatcher)
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})
		return
	}
	if err != nil {
		h.record(r.Context(), event.SubmissionFailed(sess.Def.Type, err))
		wizardErrorToHTTP(w, err)
		return
	}
	payload, assembleErr := sess.Assemble()
	if assembleErr != nil {
		payload = nil
	}
	h.record(r.Context(), event.Submitted(sess.Def.Type, result.ID, payload, secondaryRows(sess)))
	h.manager.Remove(sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       result.ID,
		"redirect": "/" + sess.Def.ResourcePath + "?refresh=1",
	})
}

func secondaryRows(sess *wizard.Session) []map[string]any {
	if sess.Def.SecondaryList == "" {
		return nil
	}
	var rows []map[string]any
	for _, it := range sess.List(sess.Def.SecondaryList) {
		if it.IsBlank() {
			continue
		}
		row := map[string]any{}
		for k, v := range it.Extra {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func (h *WizardHandler) record(ctx context.Context, evt event.DomainEvent) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ctx, evt); err != nil {
		log.Printf("wizard: event recording failed: %v", err)
	}
}

func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return nil, false
	}
	sess := h.manager.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "no such wizard session: "+id)
		return nil, false
	}
	return sess, true
}

func encodeReturnContext(ctx map[string]any) (json.RawMessage, error) {
	if ctx == nil {
		return nil, nil
	}
	raw, err := json.Marshal(ctx)
	if err != nil {
		return nil, fmt.Errorf("encoding return context: %w", err)
	}
	return raw, nil
}

// wizardErrorToHTTP maps engine errors to HTTP statuses. Only a failed
// upstream dispatch is the gateway's fault; everything else the engine
// rejects is bad client input.
func wizardErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrViewOnly), errors.Is(err, wizard.ErrStepGated):
		writeError(w, http.StatusForbidden, "READ_ONLY", err.Error())
	case errors.Is(err, wizard.ErrSubmitInFlight), errors.Is(err, wizard.ErrNavigationInFlight):
		writeError(w, http.StatusConflict, "IN_FLIGHT", err.Error())
	case errors.Is(err, wizard.ErrDispatchFailed):
		writeError(w, http.StatusBadGateway, "SUBMIT_FAILED", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	}
}

// sessionView projects a session into its API representation.
func sessionView(sess *wizard.Session) map[string]any {
	steps := make([]map[string]any, len(sess.Def.Steps))
	for i, st := range sess.Def.Steps {
		steps[i] = map[string]any{"name": st.Name, "sections": st.Sections, "lists": st.Lists}
	}
	sections := map[string]any{}
	for _, schema := range sess.Def.Sections {
		sections[schema.Name] = map[string]any{
			"values": sess.SectionValues(schema.Name),
			"errors": sess.SectionErrors(schema.Name),
		}
	}
	lists := map[string]any{}
	for _, schema := range sess.Def.Lists {
		lists[schema.Name] = sess.List(schema.Name)
	}
	return map[string]any{
		"id":            sess.ID,
		"wizard_type":   sess.Def.Type,
		"title":         sess.Def.Title,
		"mode":          sess.Mode(),
		"active_step":   sess.ActiveStep(),
		"steps":         steps,
		"sections":      sections,
		"lists":         lists,
		"remount_token": sess.RemountToken(),
		"initialized":   sess.Initialized(),
	}
}
