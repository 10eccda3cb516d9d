// Package types provides Go structs shared across the cargodesk service:
// master-data records, CRM records, and the lookup/search result shape
// returned by the reference-data endpoints.
package types

import (
	"encoding/json"
	"time"
)

// Customer is a forwarding customer in the master-data catalogue.
type Customer struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"` // short alphanumeric customer code
	Name      string    `json:"name"`
	Country   string    `json:"country"` // ISO 3166-1 alpha-2
	City      string    `json:"city"`
	TaxID     string    `json:"tax_id,omitempty"`
	Status    string    `json:"status"` // "active", "inactive"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address is a postal address attached to a customer.
type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Kind       string `json:"kind"` // "billing", "shipping", "office"
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// Carrier is an airline, shipping line, trucking or rail operator.
type Carrier struct {
	ID   string `json:"id"`
	Code string `json:"code"` // IATA / SCAC style code
	Name string `json:"name"`
	Mode string `json:"mode"` // "Air", "Sea", "Road", "Rail"
}

// Port is an airport or seaport usable as an origin or destination.
type Port struct {
	ID      string `json:"id"`
	Code    string `json:"code"` // IATA or UN/LOCODE
	Name    string `json:"name"`
	Country string `json:"country"`
	Kind    string `json:"kind"` // "air", "sea"
}

// Agent is an overseas handling agent.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	IATACode string `json:"iata_code,omitempty"`
}

// Location is one row of the country/state/city cascade used by
// address forms. States and cities are searched filtered by parent.
type Location struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}

// Participant is one person attached to a call entry.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"` // "caller", "attendee", "cc"
}

// CallEntry is one CRM call record.
type CallEntry struct {
	ID             string        `json:"id"`
	Subject        string        `json:"subject"`
	CallType       string        `json:"call_type"` // "inbound", "outbound"
	CustomerID     string        `json:"customer_id,omitempty"`
	CalledAt       time.Time     `json:"called_at"`
	Status         string        `json:"status"` // "Open", "InProgress", "Closed"
	Notes          string        `json:"notes,omitempty"`
	FollowUpAction string        `json:"follow_up_action,omitempty"`
	Participants   []Participant `json:"participants"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ApplyFollowUp applies a follow-up action to the entry. The explicit
// status selection stays authoritative: an action named "Close" only
// defaults the status when the caller left the selection empty, and any
// other action with an empty selection keeps the stored status.
func (c *CallEntry) ApplyFollowUp(action, status string) {
	c.FollowUpAction = action
	switch {
	case status != "":
		c.Status = status
	case action == "Close":
		c.Status = "Closed"
	}
}

// RateRequest is a quotation request tracked through a small status
// workflow: Open -> Quoted -> Closed.
type RateRequest struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RateRequestTransitions maps each rate-request status to the statuses
// it may move to.
var RateRequestTransitions = map[string][]string{
	"Open":   {"Quoted", "Closed"},
	"Quoted": {"Closed"},
}

// CanTransitionRateRequest reports whether a rate request may move from
// one status to another.
func CanTransitionRateRequest(from, to string) bool {
	for _, s := range RateRequestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LookupItem is one dropdown option returned by reference-data search.
// Raw carries the full backing record for consumers that need more than
// the value/label pair (e.g. to derive a display name after selection).
type LookupItem struct {
	Value string          `json:"value"`
	Label string          `json:"label"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// Submission is one payload accepted by the local dispatcher when no
// upstream freight API is configured. It doubles as the audit record of
// what was sent.
type Submission struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"` // wizard type that produced it
	Mode        string          `json:"mode"` // "Create" or "Edit"
	ResourceID  string          `json:"resource_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// AuditEntry is one row of the domain-event audit trail.
type AuditEntry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	WizardType string          `json:"wizard_type,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
