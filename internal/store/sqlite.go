package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/freightwise/cargodesk/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the
// embedded schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer keeps modernc's sqlite happy under concurrency.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func newID() string { return uuid.New().String() }

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ── Customers ───────────────────────────────────────────────────────

func (s *SQLiteStore) CreateCustomer(ctx context.Context, c *types.Customer) error {
	c.ID = newID()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = "active"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, code, name, country, city, tax_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Name, c.Country, c.City, c.TaxID, c.Status,
		encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("customer code %q: %w", c.Code, ErrConflict)
	}
	return err
}

func (s *SQLiteStore) GetCustomer(ctx context.Context, id string) (types.Customer, error) {
	var c types.Customer
	var created, updated string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, country, city, tax_id, status, created_at, updated_at
		FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Country, &c.City, &c.TaxID, &c.Status, &created, &updated)
	if err == sql.ErrNoRows {
		return types.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Customer{}, err
	}
	c.CreatedAt, c.UpdatedAt = decodeTime(created), decodeTime(updated)
	return c, nil
}

func (s *SQLiteStore) ListCustomers(ctx context.Context, p Pagination) ([]types.Customer, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, country, city, tax_id, status, created_at, updated_at
		FROM customers ORDER BY code LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Customer{}
	for rows.Next() {
		var c types.Customer
		var created, updated string
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Country, &c.City, &c.TaxID, &c.Status, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt, c.UpdatedAt = decodeTime(created), decodeTime(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateCustomer(ctx context.Context, c types.Customer) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET code = ?, name = ?, country = ?, city = ?, tax_id = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		c.Code, c.Name, c.Country, c.City, c.TaxID, c.Status, encodeTime(time.Now()), c.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("customer code %q: %w", c.Code, ErrConflict)
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("customer %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// ── Addresses ───────────────────────────────────────────────────────

func (s *SQLiteStore) CreateAddress(ctx context.Context, a *types.Address) error {
	a.ID = newID()
	if a.Kind == "" {
		a.Kind = "office"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addresses (id, customer_id, kind, line1, line2, city, state, country, postal_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CustomerID, a.Kind, a.Line1, a.Line2, a.City, a.State, a.Country, a.PostalCode)
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY") {
		return fmt.Errorf("customer %s: %w", a.CustomerID, ErrNotFound)
	}
	return err
}

func (s *SQLiteStore) ListAddresses(ctx context.Context, customerID string, p Pagination) ([]types.Address, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, kind, line1, line2, city, state, country, postal_code
		FROM addresses WHERE customer_id = ? ORDER BY kind, line1 LIMIT ? OFFSET ?`,
		customerID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Address{}
	for rows.Next() {
		var a types.Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Kind, &a.Line1, &a.Line2, &a.City, &a.State, &a.Country, &a.PostalCode); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ── Carriers / Ports / Agents ───────────────────────────────────────

func (s *SQLiteStore) CreateCarrier(ctx context.Context, c *types.Carrier) error {
	c.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carriers (id, code, name, mode) VALUES (?, ?, ?, ?)`,
		c.ID, c.Code, c.Name, c.Mode)
	if isUniqueViolation(err) {
		return fmt.Errorf("carrier code %q: %w", c.Code, ErrConflict)
	}
	return err
}

func (s *SQLiteStore) ListCarriers(ctx context.Context, p Pagination) ([]types.Carrier, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, mode FROM carriers ORDER BY code LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Carrier{}
	for rows.Next() {
		var c types.Carrier
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Mode); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreatePort(ctx context.Context, pt *types.Port) error {
	pt.ID = newID()
	if pt.Kind == "" {
		pt.Kind = "air"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ports (id, code, name, country, kind) VALUES (?, ?, ?, ?, ?)`,
		pt.ID, pt.Code, pt.Name, pt.Country, pt.Kind)
	if isUniqueViolation(err) {
		return fmt.Errorf("port code %q: %w", pt.Code, ErrConflict)
	}
	return err
}

func (s *SQLiteStore) ListPorts(ctx context.Context, p Pagination) ([]types.Port, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, country, kind FROM ports ORDER BY code LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Port{}
	for rows.Next() {
		var pt types.Port
		if err := rows.Scan(&pt.ID, &pt.Code, &pt.Name, &pt.Country, &pt.Kind); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateAgent(ctx context.Context, a *types.Agent) error {
	a.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, name, country, iata_code) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.Country, a.IATACode)
	return err
}

func (s *SQLiteStore) ListAgents(ctx context.Context, p Pagination) ([]types.Agent, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, country, iata_code FROM agents ORDER BY name LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Agent{}
	for rows.Next() {
		var a types.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Country, &a.IATACode); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ── Call entries ────────────────────────────────────────────────────

func (s *SQLiteStore) CreateCallEntry(ctx context.Context, e *types.CallEntry) error {
	e.ID = newID()
	e.CreatedAt = time.Now().UTC()
	if e.Status == "" {
		e.Status = "Open"
	}
	participants, err := json.Marshal(e.Participants)
	if err != nil {
		return fmt.Errorf("encode participants: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO call_entries (id, subject, call_type, customer_id, called_at, status, notes, follow_up_action, participants, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Subject, e.CallType, e.CustomerID, encodeTime(e.CalledAt), e.Status,
		e.Notes, e.FollowUpAction, string(participants), encodeTime(e.CreatedAt))
	return err
}

func (s *SQLiteStore) GetCallEntry(ctx context.Context, id string) (types.CallEntry, error) {
	var e types.CallEntry
	var calledAt, createdAt, participants string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subject, call_type, customer_id, called_at, status, notes, follow_up_action, participants, created_at
		FROM call_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.Subject, &e.CallType, &e.CustomerID, &calledAt, &e.Status, &e.Notes, &e.FollowUpAction, &participants, &createdAt)
	if err == sql.ErrNoRows {
		return types.CallEntry{}, fmt.Errorf("call entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.CallEntry{}, err
	}
	e.CalledAt, e.CreatedAt = decodeTime(calledAt), decodeTime(createdAt)
	if err := json.Unmarshal([]byte(participants), &e.Participants); err != nil {
		return types.CallEntry{}, fmt.Errorf("decode participants: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) ListCallEntries(ctx context.Context, p Pagination) ([]types.CallEntry, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, call_type, customer_id, called_at, status, notes, follow_up_action, participants, created_at
		FROM call_entries ORDER BY called_at DESC LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.CallEntry{}
	for rows.Next() {
		var e types.CallEntry
		var calledAt, createdAt, participants string
		if err := rows.Scan(&e.ID, &e.Subject, &e.CallType, &e.CustomerID, &calledAt, &e.Status, &e.Notes, &e.FollowUpAction, &participants, &createdAt); err != nil {
			return nil, err
		}
		e.CalledAt, e.CreatedAt = decodeTime(calledAt), decodeTime(createdAt)
		if err := json.Unmarshal([]byte(participants), &e.Participants); err != nil {
			return nil, fmt.Errorf("decode participants: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateCallEntry(ctx context.Context, e types.CallEntry) error {
	participants, err := json.Marshal(e.Participants)
	if err != nil {
		return fmt.Errorf("encode participants: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE call_entries SET subject = ?, call_type = ?, customer_id = ?, called_at = ?, status = ?, notes = ?, follow_up_action = ?, participants = ?
		WHERE id = ?`,
		e.Subject, e.CallType, e.CustomerID, encodeTime(e.CalledAt), e.Status, e.Notes, e.FollowUpAction, string(participants), e.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("call entry %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// ── Rate requests ───────────────────────────────────────────────────

func (s *SQLiteStore) CreateRateRequest(ctx context.Context, r *types.RateRequest) error {
	r.ID = newID()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = "Open"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_requests (id, customer_id, origin, destination, mode, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CustomerID, r.Origin, r.Destination, r.Mode, r.Status,
		encodeTime(r.CreatedAt), encodeTime(r.UpdatedAt))
	return err
}

func (s *SQLiteStore) ListRateRequests(ctx context.Context, p Pagination) ([]types.RateRequest, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, origin, destination, mode, status, created_at, updated_at
		FROM rate_requests ORDER BY created_at DESC LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.RateRequest{}
	for rows.Next() {
		var r types.RateRequest
		var created, updated string
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.Origin, &r.Destination, &r.Mode, &r.Status, &created, &updated); err != nil {
			return nil, err
		}
		r.CreatedAt, r.UpdatedAt = decodeTime(created), decodeTime(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TransitionRateRequest(ctx context.Context, id, to string) (types.RateRequest, error) {
	var current string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM rate_requests WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return types.RateRequest{}, fmt.Errorf("rate request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.RateRequest{}, err
	}
	if !types.CanTransitionRateRequest(current, to) {
		return types.RateRequest{}, fmt.Errorf("rate request %s: %s -> %s: %w", id, current, to, ErrConflict)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE rate_requests SET status = ?, updated_at = ? WHERE id = ?`,
		to, encodeTime(time.Now()), id)
	if err != nil {
		return types.RateRequest{}, err
	}
	var r types.RateRequest
	var created, updated string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, origin, destination, mode, status, created_at, updated_at
		FROM rate_requests WHERE id = ?`, id).
		Scan(&r.ID, &r.CustomerID, &r.Origin, &r.Destination, &r.Mode, &r.Status, &created, &updated)
	if err != nil {
		return types.RateRequest{}, err
	}
	r.CreatedAt, r.UpdatedAt = decodeTime(created), decodeTime(updated)
	return r, nil
}

// ── Submissions & audit ─────────────────────────────────────────────

func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *types.Submission) error {
	if sub.ID == "" {
		sub.ID = newID()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO submissions (id, kind, mode, resource_id, payload, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Kind, sub.Mode, sub.ResourceID, string(sub.Payload), encodeTime(sub.SubmittedAt))
	return err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, p Pagination) ([]types.Submission, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, mode, resource_id, payload, submitted_at
		FROM submissions ORDER BY submitted_at DESC LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Submission{}
	for rows.Next() {
		var sub types.Submission
		var payload, submitted string
		if err := rows.Scan(&sub.ID, &sub.Kind, &sub.Mode, &sub.ResourceID, &payload, &submitted); err != nil {
			return nil, err
		}
		sub.Payload = json.RawMessage(payload)
		sub.SubmittedAt = decodeTime(submitted)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendAudit(ctx context.Context, e types.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (event_id, event_type, occurred_at, wizard_type, resource_id, summary, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.EventType, encodeTime(e.OccurredAt), e.WizardType, e.ResourceID, e.Summary, string(e.Payload))
	return err
}

func (s *SQLiteStore) ListAudit(ctx context.Context, p Pagination) ([]types.AuditEntry, error) {
	p = p.clamp()
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_type, occurred_at, wizard_type, resource_id, summary, payload
		FROM audit_entries ORDER BY occurred_at DESC LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.AuditEntry{}
	for rows.Next() {
		var e types.AuditEntry
		var occurred, payload string
		if err := rows.Scan(&e.EventID, &e.EventType, &occurred, &e.WizardType, &e.ResourceID, &e.Summary, &payload); err != nil {
			return nil, err
		}
		e.OccurredAt = decodeTime(occurred)
		if payload != "" {
			e.Payload = json.RawMessage(payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ── Lookup search ───────────────────────────────────────────────────

func (s *SQLiteStore) Search(ctx context.Context, kind, query string, filters map[string]string, limit int) ([]types.LookupItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	like := "%" + query + "%"
	switch kind {
	case LookupCustomers:
		return s.searchRows(ctx, `
			SELECT code, code || ' — ' || name, json_object('id', id, 'code', code, 'name', name, 'country', country)
			FROM customers WHERE code LIKE ? OR name LIKE ? ORDER BY code LIMIT ?`, like, like, limit)
	case LookupCarriers:
		q := `SELECT code, code || ' — ' || name, json_object('id', id, 'code', code, 'name', name, 'mode', mode)
			FROM carriers WHERE (code LIKE ? OR name LIKE ?)`
		args := []any{like, like}
		if mode := filters["mode"]; mode != "" {
			q += ` AND mode = ?`
			args = append(args, mode)
		}
		q += ` ORDER BY code LIMIT ?`
		args = append(args, limit)
		return s.searchRows(ctx, q, args...)
	case LookupPorts:
		q := `SELECT code, code || ' — ' || name, json_object('id', id, 'code', code, 'name', name, 'country', country, 'kind', kind)
			FROM ports WHERE (code LIKE ? OR name LIKE ?)`
		args := []any{like, like}
		if k := filters["kind"]; k != "" {
			q += ` AND kind = ?`
			args = append(args, k)
		}
		q += ` ORDER BY code LIMIT ?`
		args = append(args, limit)
		return s.searchRows(ctx, q, args...)
	case LookupAgents:
		return s.searchRows(ctx, `
			SELECT id, name, json_object('id', id, 'name', name, 'country', country, 'iata_code', iata_code)
			FROM agents WHERE name LIKE ? ORDER BY name LIMIT ?`, like, limit)
	case LookupCountries:
		return s.searchRows(ctx, `
			SELECT DISTINCT country, country, NULL FROM locations
			WHERE country LIKE ? ORDER BY country LIMIT ?`, like, limit)
	case LookupStates:
		return s.searchRows(ctx, `
			SELECT DISTINCT state, state, NULL FROM locations
			WHERE state != '' AND state LIKE ? AND country = ? ORDER BY state LIMIT ?`,
			like, filters["country"], limit)
	case LookupCities:
		q := `SELECT DISTINCT city, city, NULL FROM locations WHERE city != '' AND city LIKE ? AND country = ?`
		args := []any{like, filters["country"]}
		if st := filters["state"]; st != "" {
			q += ` AND state = ?`
			args = append(args, st)
		}
		q += ` ORDER BY city LIMIT ?`
		args = append(args, limit)
		return s.searchRows(ctx, q, args...)
	}
	return nil, fmt.Errorf("unknown lookup kind %q", kind)
}

func (s *SQLiteStore) searchRows(ctx context.Context, query string, args ...any) ([]types.LookupItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.LookupItem{}
	for rows.Next() {
		var item types.LookupItem
		var raw sql.NullString
		if err := rows.Scan(&item.Value, &item.Label, &raw); err != nil {
			return nil, err
		}
		if raw.Valid {
			item.Raw = json.RawMessage(raw.String)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SeedLocations loads the country/state/city cascade rows, typically
// once at startup from a reference file. Existing rows are kept.
func (s *SQLiteStore) SeedLocations(ctx context.Context, locations []types.Location) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, loc := range locations {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO locations (country, state, city) VALUES (?, ?, ?)`,
			loc.Country, loc.State, loc.City); err != nil {
			return err
		}
	}
	return tx.Commit()
}
