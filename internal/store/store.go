// Package store persists master data, CRM records, submissions, and
// the audit trail, and serves the reference-data lookup searches that
// back dropdown sources. Two implementations exist: SQLite for the
// real service and an in-memory store for tests and demos.
package store

import (
	"context"
	"errors"

	"github.com/freightwise/cargodesk/internal/types"
)

// Sentinel errors mapped to HTTP statuses at the handler boundary.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

// Pagination bounds list queries.
type Pagination struct {
	Limit  int
	Offset int
}

// DefaultPagination is applied when the caller supplies nothing.
func DefaultPagination() Pagination { return Pagination{Limit: 20} }

func (p Pagination) clamp() Pagination {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Store is the persistence surface of the back office.
type Store interface {
	CreateCustomer(ctx context.Context, c *types.Customer) error
	GetCustomer(ctx context.Context, id string) (types.Customer, error)
	ListCustomers(ctx context.Context, p Pagination) ([]types.Customer, error)
	UpdateCustomer(ctx context.Context, c types.Customer) error

	CreateAddress(ctx context.Context, a *types.Address) error
	ListAddresses(ctx context.Context, customerID string, p Pagination) ([]types.Address, error)

	CreateCarrier(ctx context.Context, c *types.Carrier) error
	ListCarriers(ctx context.Context, p Pagination) ([]types.Carrier, error)

	CreatePort(ctx context.Context, pt *types.Port) error
	ListPorts(ctx context.Context, p Pagination) ([]types.Port, error)

	CreateAgent(ctx context.Context, a *types.Agent) error
	ListAgents(ctx context.Context, p Pagination) ([]types.Agent, error)

	CreateCallEntry(ctx context.Context, e *types.CallEntry) error
	GetCallEntry(ctx context.Context, id string) (types.CallEntry, error)
	ListCallEntries(ctx context.Context, p Pagination) ([]types.CallEntry, error)
	UpdateCallEntry(ctx context.Context, e types.CallEntry) error

	CreateRateRequest(ctx context.Context, r *types.RateRequest) error
	ListRateRequests(ctx context.Context, p Pagination) ([]types.RateRequest, error)
	TransitionRateRequest(ctx context.Context, id, to string) (types.RateRequest, error)

	SaveSubmission(ctx context.Context, s *types.Submission) error
	ListSubmissions(ctx context.Context, p Pagination) ([]types.Submission, error)

	AppendAudit(ctx context.Context, e types.AuditEntry) error
	ListAudit(ctx context.Context, p Pagination) ([]types.AuditEntry, error)

	// Search serves dropdown sources: customers, carriers, ports,
	// agents, and the country/state/city cascade. It is idempotent and
	// side-effect free.
	Search(ctx context.Context, kind, query string, filters map[string]string, limit int) ([]types.LookupItem, error)

	Close() error
}

// Lookup kinds accepted by Search.
const (
	LookupCustomers = "customers"
	LookupCarriers  = "carriers"
	LookupPorts     = "ports"
	LookupAgents    = "agents"
	LookupCountries = "countries"
	LookupStates    = "states"
	LookupCities    = "cities"
)
