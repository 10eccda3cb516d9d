package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/freightwise/cargodesk/internal/event"
	"github.com/freightwise/cargodesk/internal/store"
	"github.com/freightwise/cargodesk/internal/types"
)

// MasterHandler serves the master-data and CRM resources that back the
// wizards: customers, addresses, carriers, ports, agents, call entries,
// and rate requests.
type MasterHandler struct {
	store    store.Store
	recorder event.Recorder
}

// NewMasterHandler creates a MasterHandler.
func NewMasterHandler(s store.Store, r event.Recorder) *MasterHandler {
	return &MasterHandler{store: s, recorder: r}
}

// CreateCustomer handles POST /v1/customers.
func (h *MasterHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c types.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if c.Code == "" || c.Name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "code and name are required")
		return
	}
	if err := h.store.CreateCustomer(r.Context(), &c); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.record(r.Context(), event.New(event.TypeCustomerCreated), c.ID, "customer "+c.Code+" created")
	writeJSON(w, http.StatusCreated, c)
}

// GetCustomer handles GET /v1/customers/{id}.
func (h *MasterHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListCustomers handles GET /v1/customers.
func (h *MasterHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListCustomers(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": out})
}

// UpdateCustomer handles PUT /v1/customers/{id}.
func (h *MasterHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	existing, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	var c types.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateCustomer(r.Context(), c); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateAddress handles POST /v1/customers/{id}/addresses.
func (h *MasterHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetCustomer(r.Context(), customerID); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	var a types.Address
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if a.Line1 == "" || a.Country == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "line1 and country are required")
		return
	}
	a.CustomerID = customerID
	if err := h.store.CreateAddress(r.Context(), &a); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAddresses handles GET /v1/customers/{id}/addresses.
func (h *MasterHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.store.ListAddresses(r.Context(), customerID, parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": out})
}

// CreateCarrier handles POST /v1/carriers.
func (h *MasterHandler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	var c types.Carrier
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if c.Code == "" || c.Name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "code and name are required")
		return
	}
	if err := h.store.CreateCarrier(r.Context(), &c); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCarriers handles GET /v1/carriers.
func (h *MasterHandler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListCarriers(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": out})
}

// CreatePort handles POST /v1/ports.
func (h *MasterHandler) CreatePort(w http.ResponseWriter, r *http.Request) {
	var p types.Port
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if p.Code == "" || p.Name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "code and name are required")
		return
	}
	if err := h.store.CreatePort(r.Context(), &p); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListPorts handles GET /v1/ports.
func (h *MasterHandler) ListPorts(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListPorts(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ports": out})
}

// CreateAgent handles POST /v1/agents.
func (h *MasterHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var a types.Agent
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if a.Name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "name is required")
		return
	}
	if err := h.store.CreateAgent(r.Context(), &a); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAgents handles GET /v1/agents.
func (h *MasterHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListAgents(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": out})
}

// CreateCallEntry handles POST /v1/call-entries.
func (h *MasterHandler) CreateCallEntry(w http.ResponseWriter, r *http.Request) {
	var e types.CallEntry
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if e.Subject == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "subject is required")
		return
	}
	if e.CalledAt.IsZero() {
		e.CalledAt = time.Now().UTC()
	}
	if err := h.store.CreateCallEntry(r.Context(), &e); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.record(r.Context(), event.New(event.TypeCallEntryLogged), e.ID, "call entry logged: "+e.Subject)
	writeJSON(w, http.StatusCreated, e)
}

// GetCallEntry handles GET /v1/call-entries/{id}.
func (h *MasterHandler) GetCallEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.store.GetCallEntry(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ListCallEntries handles GET /v1/call-entries.
func (h *MasterHandler) ListCallEntries(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListCallEntries(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"call_entries": out})
}

type followUpRequest struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

// FollowUp handles POST /v1/call-entries/{id}/follow-up. The status
// field in the body, when present, wins over any default the action
// implies.
func (h *MasterHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req followUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "action is required")
		return
	}
	e, err := h.store.GetCallEntry(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	e.ApplyFollowUp(req.Action, req.Status)
	if err := h.store.UpdateCallEntry(r.Context(), e); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateRateRequest handles POST /v1/rate-requests.
func (h *MasterHandler) CreateRateRequest(w http.ResponseWriter, r *http.Request) {
	var rr types.RateRequest
	if err := decodeJSON(r, &rr); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if rr.Origin == "" || rr.Destination == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "origin and destination are required")
		return
	}
	if err := h.store.CreateRateRequest(r.Context(), &rr); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rr)
}

// ListRateRequests handles GET /v1/rate-requests.
func (h *MasterHandler) ListRateRequests(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListRateRequests(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rate_requests": out})
}

type transitionRequest struct {
	To string `json:"to"`
}

// TransitionRateRequest handles POST /v1/rate-requests/{id}/transition.
// Invalid transitions come back as 409.
func (h *MasterHandler) TransitionRateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "to is required")
		return
	}
	rr, err := h.store.TransitionRateRequest(r.Context(), id, req.To)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rr)
}

// ListSubmissions handles GET /v1/submissions.
func (h *MasterHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListSubmissions(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": out})
}

// ListAudit handles GET /v1/audit.
func (h *MasterHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListAudit(r.Context(), parsePagination(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": out})
}

func (h *MasterHandler) record(ctx context.Context, evt event.DomainEvent, resourceID, summary string) {
	if h.recorder == nil {
		return
	}
	evt.ResourceID = resourceID
	evt.Summary = summary
	if err := h.recorder.Record(ctx, evt); err != nil {
		log.Printf("master: event recording failed: %v", err)
	}
}
