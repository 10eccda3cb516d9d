package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freightwise/cargodesk/internal/types"
)

// MemoryStore implements Store with in-memory slices. Intended for
// tests and demos — no database required.
type MemoryStore struct {
	mu           sync.RWMutex
	customers    []types.Customer
	addresses    []types.Address
	carriers     []types.Carrier
	ports        []types.Port
	agents       []types.Agent
	callEntries  []types.CallEntry
	rateRequests []types.RateRequest
	submissions  []types.Submission
	audit        []types.AuditEntry
	locations    []types.Location
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Close() error { return nil }

func paginate[T any](items []T, p Pagination) []T {
	p = p.clamp()
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-p.Offset)
	copy(out, items[p.Offset:end])
	return out
}

func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// ── Customers ───────────────────────────────────────────────────────

func (s *MemoryStore) CreateCustomer(_ context.Context, c *types.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.customers {
		if existing.Code == c.Code {
			return fmt.Errorf("customer code %q: %w", c.Code, ErrConflict)
		}
	}
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = "active"
	}
	s.customers = append(s.customers, *c)
	return nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, id string) (types.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return types.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListCustomers(_ context.Context, p Pagination) ([]types.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := make([]types.Customer, len(s.customers))
	copy(sorted, s.customers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	return paginate(sorted, p), nil
}

func (s *MemoryStore) UpdateCustomer(_ context.Context, c types.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.customers {
		if existing.ID != c.ID && existing.Code == c.Code {
			return fmt.Errorf("customer code %q: %w", c.Code, ErrConflict)
		}
		if existing.ID == c.ID {
			c.CreatedAt = existing.CreatedAt
			c.UpdatedAt = time.Now().UTC()
			s.customers[i] = c
			return nil
		}
	}
	return fmt.Errorf("customer %s: %w", c.ID, ErrNotFound)
}

// ── Addresses ───────────────────────────────────────────────────────

func (s *MemoryStore) CreateAddress(_ context.Context, a *types.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, c := range s.customers {
		if c.ID == a.CustomerID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("customer %s: %w", a.CustomerID, ErrNotFound)
	}
	a.ID = uuid.New().String()
	if a.Kind == "" {
		a.Kind = "office"
	}
	s.addresses = append(s.addresses, *a)
	return nil
}

func (s *MemoryStore) ListAddresses(_ context.Context, customerID string, p Pagination) ([]types.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Address
	for _, a := range s.addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return paginate(out, p), nil
}

// ── Carriers / Ports / Agents ───────────────────────────────────────

func (s *MemoryStore) CreateCarrier(_ context.Context, c *types.Carrier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.carriers {
		if existing.Code == c.Code {
			return fmt.Errorf("carrier code %q: %w", c.Code, ErrConflict)
		}
	}
	c.ID = uuid.New().String()
	s.carriers = append(s.carriers, *c)
	return nil
}

func (s *MemoryStore) ListCarriers(_ context.Context, p Pagination) ([]types.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.carriers, p), nil
}

func (s *MemoryStore) CreatePort(_ context.Context, pt *types.Port) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ports {
		if existing.Code == pt.Code {
			return fmt.Errorf("port code %q: %w", pt.Code, ErrConflict)
		}
	}
	pt.ID = uuid.New().String()
	if pt.Kind == "" {
		pt.Kind = "air"
	}
	s.ports = append(s.ports, *pt)
	return nil
}

func (s *MemoryStore) ListPorts(_ context.Context, p Pagination) ([]types.Port, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.ports, p), nil
}

func (s *MemoryStore) CreateAgent(_ context.Context, a *types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New().String()
	s.agents = append(s.agents, *a)
	return nil
}

func (s *MemoryStore) ListAgents(_ context.Context, p Pagination) ([]types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.agents, p), nil
}

// ── Call entries ────────────────────────────────────────────────────

func (s *MemoryStore) CreateCallEntry(_ context.Context, e *types.CallEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()
	if e.Status == "" {
		e.Status = "Open"
	}
	s.callEntries = append(s.callEntries, *e)
	return nil
}

func (s *MemoryStore) GetCallEntry(_ context.Context, id string) (types.CallEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.callEntries {
		if e.ID == id {
			return e, nil
		}
	}
	return types.CallEntry{}, fmt.Errorf("call entry %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListCallEntries(_ context.Context, p Pagination) ([]types.CallEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := make([]types.CallEntry, len(s.callEntries))
	copy(sorted, s.callEntries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CalledAt.After(sorted[j].CalledAt) })
	return paginate(sorted, p), nil
}

func (s *MemoryStore) UpdateCallEntry(_ context.Context, e types.CallEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.callEntries {
		if existing.ID == e.ID {
			e.CreatedAt = existing.CreatedAt
			s.callEntries[i] = e
			return nil
		}
	}
	return fmt.Errorf("call entry %s: %w", e.ID, ErrNotFound)
}

// ── Rate requests ───────────────────────────────────────────────────

func (s *MemoryStore) CreateRateRequest(_ context.Context, r *types.RateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.New().String()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = "Open"
	}
	s.rateRequests = append(s.rateRequests, *r)
	return nil
}

func (s *MemoryStore) ListRateRequests(_ context.Context, p Pagination) ([]types.RateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.rateRequests, p), nil
}

func (s *MemoryStore) TransitionRateRequest(_ context.Context, id, to string) (types.RateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rateRequests {
		if r.ID != id {
			continue
		}
		if !types.CanTransitionRateRequest(r.Status, to) {
			return types.RateRequest{}, fmt.Errorf("rate request %s: %s -> %s: %w", id, r.Status, to, ErrConflict)
		}
		r.Status = to
		r.UpdatedAt = time.Now().UTC()
		s.rateRequests[i] = r
		return r, nil
	}
	return types.RateRequest{}, fmt.Errorf("rate request %s: %w", id, ErrNotFound)
}

// ── Submissions & audit ─────────────────────────────────────────────

func (s *MemoryStore) SaveSubmission(_ context.Context, sub *types.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	for i, existing := range s.submissions {
		if existing.ID == sub.ID {
			s.submissions[i] = *sub
			return nil
		}
	}
	s.submissions = append(s.submissions, *sub)
	return nil
}

func (s *MemoryStore) ListSubmissions(_ context.Context, p Pagination) ([]types.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.submissions, p), nil
}

func (s *MemoryStore) AppendAudit(_ context.Context, e types.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

func (s *MemoryStore) ListAudit(_ context.Context, p Pagination) ([]types.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.audit, p), nil
}

// ── Lookup search ───────────────────────────────────────────────────

func (s *MemoryStore) Search(_ context.Context, kind, query string, filters map[string]string, limit int) ([]types.LookupItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := []types.LookupItem{}
	add := func(value, label string, raw any) {
		if len(items) >= limit {
			return
		}
		data, _ := json.Marshal(raw)
		if raw == nil {
			data = nil
		}
		items = append(items, types.LookupItem{Value: value, Label: label, Raw: data})
	}
	switch kind {
	case LookupCustomers:
		for _, c := range s.customers {
			if matches(query, c.Code, c.Name) {
				add(c.Code, c.Code+" — "+c.Name, c)
			}
		}
	case LookupCarriers:
		for _, c := range s.carriers {
			if mode := filters["mode"]; mode != "" && c.Mode != mode {
				continue
			}
			if matches(query, c.Code, c.Name) {
				add(c.Code, c.Code+" — "+c.Name, c)
			}
		}
	case LookupPorts:
		for _, pt := range s.ports {
			if k := filters["kind"]; k != "" && pt.Kind != k {
				continue
			}
			if matches(query, pt.Code, pt.Name) {
				add(pt.Code, pt.Code+" — "+pt.Name, pt)
			}
		}
	case LookupAgents:
		for _, a := range s.agents {
			if matches(query, a.Name) {
				add(a.ID, a.Name, a)
			}
		}
	case LookupCountries:
		seen := map[string]bool{}
		for _, loc := range s.locations {
			if !seen[loc.Country] && matches(query, loc.Country) {
				seen[loc.Country] = true
				add(loc.Country, loc.Country, nil)
			}
		}
	case LookupStates:
		seen := map[string]bool{}
		for _, loc := range s.locations {
			if loc.Country != filters["country"] || loc.State == "" {
				continue
			}
			if !seen[loc.State] && matches(query, loc.State) {
				seen[loc.State] = true
				add(loc.State, loc.State, nil)
			}
		}
	case LookupCities:
		seen := map[string]bool{}
		for _, loc := range s.locations {
			if loc.Country != filters["country"] || loc.City == "" {
				continue
			}
			if st := filters["state"]; st != "" && loc.State != st {
				continue
			}
			if !seen[loc.City] && matches(query, loc.City) {
				seen[loc.City] = true
				add(loc.City, loc.City, nil)
			}
		}
	default:
		return nil, fmt.Errorf("unknown lookup kind %q", kind)
	}
	return items, nil
}

// SeedLocations loads the country/state/city cascade rows.
func (s *MemoryStore) SeedLocations(_ context.Context, locations []types.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, locations...)
	return nil
}
