// Package seed provides demo master data for a fresh database.
package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/freightwise/cargodesk/internal/store"
	"github.com/freightwise/cargodesk/internal/types"
)

// Seeder is the subset of the store that seeding writes to.
type Seeder interface {
	ListCarriers(ctx context.Context, p store.Pagination) ([]types.Carrier, error)
	CreateCustomer(ctx context.Context, c *types.Customer) error
	CreateCarrier(ctx context.Context, c *types.Carrier) error
	CreatePort(ctx context.Context, p *types.Port) error
	CreateAgent(ctx context.Context, a *types.Agent) error
	SeedLocations(ctx context.Context, locations []types.Location) error
}

// Run loads demo carriers, ports, agents, customers, and the
// country/state/city cascade. If carriers already exist the database is
// considered seeded and nothing is written.
func Run(ctx context.Context, s Seeder) error {
	existing, err := s.ListCarriers(ctx, store.Pagination{Limit: 1})
	if err != nil {
		return fmt.Errorf("checking carriers: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("master data already seeded, skipping")
		return nil
	}

	for _, c := range demoCarriers {
		c.ID = uuid.NewString()
		if err := s.CreateCarrier(ctx, &c); err != nil {
			return fmt.Errorf("creating carrier %s: %w", c.Code, err)
		}
	}
	for _, p := range demoPorts {
		p.ID = uuid.NewString()
		if err := s.CreatePort(ctx, &p); err != nil {
			return fmt.Errorf("creating port %s: %w", p.Code, err)
		}
	}
	for _, a := range demoAgents {
		a.ID = uuid.NewString()
		if err := s.CreateAgent(ctx, &a); err != nil {
			return fmt.Errorf("creating agent %s: %w", a.Name, err)
		}
	}
	now := time.Now().UTC()
	for _, c := range demoCustomers {
		c.ID = uuid.NewString()
		c.Status = "active"
		c.CreatedAt = now
		c.UpdatedAt = now
		if err := s.CreateCustomer(ctx, &c); err != nil {
			return fmt.Errorf("creating customer %s: %w", c.Code, err)
		}
	}
	if err := s.SeedLocations(ctx, demoLocations); err != nil {
		return fmt.Errorf("seeding locations: %w", err)
	}

	log.Printf("seeded %d carriers, %d ports, %d agents, %d customers, %d locations",
		len(demoCarriers), len(demoPorts), len(demoAgents), len(demoCustomers), len(demoLocations))
	return nil
}

var demoCarriers = []types.Carrier{
	{Code: "SQ", Name: "Singapore Airlines Cargo", Mode: "Air"},
	{Code: "CX", Name: "Cathay Pacific Cargo", Mode: "Air"},
	{Code: "EK", Name: "Emirates SkyCargo", Mode: "Air"},
	{Code: "MAEU", Name: "Maersk Line", Mode: "Sea"},
	{Code: "MSCU", Name: "MSC Mediterranean Shipping", Mode: "Sea"},
	{Code: "DBSC", Name: "DB Schenker Road", Mode: "Road"},
	{Code: "DBCG", Name: "DB Cargo", Mode: "Rail"},
}

var demoPorts = []types.Port{
	{Code: "SIN", Name: "Singapore Changi", Country: "SG", Kind: "air"},
	{Code: "HKG", Name: "Hong Kong International", Country: "HK", Kind: "air"},
	{Code: "DXB", Name: "Dubai International", Country: "AE", Kind: "air"},
	{Code: "LHR", Name: "London Heathrow", Country: "GB", Kind: "air"},
	{Code: "JFK", Name: "New York JFK", Country: "US", Kind: "air"},
	{Code: "SGSIN", Name: "Port of Singapore", Country: "SG", Kind: "sea"},
	{Code: "NLRTM", Name: "Port of Rotterdam", Country: "NL", Kind: "sea"},
	{Code: "USLAX", Name: "Port of Los Angeles", Country: "US", Kind: "sea"},
}

var demoAgents = []types.Agent{
	{Name: "Global Freight Partners HK", Country: "HK", IATACode: "HK-3301"},
	{Name: "Skyline Cargo Services", Country: "AE", IATACode: "AE-1177"},
	{Name: "Atlantic Forwarding Ltd", Country: "GB", IATACode: "GB-2045"},
}

var demoCustomers = []types.Customer{
	{Code: "ACME", Name: "Acme Electronics Pte Ltd", Country: "SG", City: "Singapore"},
	{Code: "NORD", Name: "Nordwind Trading GmbH", Country: "DE", City: "Hamburg"},
	{Code: "PACR", Name: "Pacific Rim Imports Inc", Country: "US", City: "Los Angeles"},
}

var demoLocations = []types.Location{
	{Country: "SG", State: "", City: "Singapore"},
	{Country: "US", State: "CA", City: "Los Angeles"},
	{Country: "US", State: "CA", City: "San Francisco"},
	{Country: "US", State: "NY", City: "New York"},
	{Country: "DE", State: "HH", City: "Hamburg"},
	{Country: "DE", State: "BY", City: "Munich"},
	{Country: "GB", State: "", City: "London"},
	{Country: "HK", State: "", City: "Hong Kong"},
	{Country: "AE", State: "", City: "Dubai"},
	{Country: "NL", State: "", City: "Rotterdam"},
}
