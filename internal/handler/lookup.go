package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/freightwise/cargodesk/internal/store"
)

// LookupHandler serves the reference-data searches behind dropdown
// sources: typeahead over customers, carriers, ports, and agents, and
// the country/state/city cascade filtered by parent.
type LookupHandler struct {
	store store.Store
}

// NewLookupHandler creates a LookupHandler.
func NewLookupHandler(s store.Store) *LookupHandler {
	return &LookupHandler{store: s}
}

var lookupKinds = map[string]bool{
	store.LookupCustomers: true,
	store.LookupCarriers:  true,
	store.LookupPorts:     true,
	store.LookupAgents:    true,
	store.LookupCountries: true,
	store.LookupStates:    true,
	store.LookupCities:    true,
}

// lookupFilters are the query parameters forwarded to Search besides q
// and limit. States filter by country; cities by country and state;
// carriers and ports by transport mode or kind.
var lookupFilters = []string{"country", "state", "mode", "kind"}

// Search handles GET /v1/lookup/{kind}?q=...&limit=...
func (h *LookupHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !lookupKinds[kind] {
		writeError(w, http.StatusNotFound, "UNKNOWN_LOOKUP", "unknown lookup kind: "+kind)
		return
	}
	q := r.URL.Query()
	limit := 20
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}
	filters := map[string]string{}
	for _, f := range lookupFilters {
		if v := q.Get(f); v != "" {
			filters[f] = v
		}
	}
	items, err := h.store.Search(r.Context(), kind, q.Get("q"), filters, limit)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
