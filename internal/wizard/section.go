package wizard

import (
	"fmt"
	"time"
)

// FieldKind is the value type of a section field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindDate      // date-only, wire format YYYY-MM-DD
	KindTimestamp // wire format UTC ISO-8601 with +00:00
)

// FieldSpec declares one field of a section schema.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
	Label    string
	// WireName overrides Name in assembled payloads. Empty means the
	// internal name is already the contract name.
	WireName string
}

func (f FieldSpec) wireName() string {
	if f.WireName != "" {
		return f.WireName
	}
	return f.Name
}

// SectionSchema declares the fields of one logical form section.
type SectionSchema struct {
	Name   string
	Fields []FieldSpec
}

func (s SectionSchema) field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldError is a field-level validation failure. Validation errors are
// data, never panics.
type FieldError struct {
	Section string `json:"section,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Section != "" {
		return e.Section + "." + e.Field + ": " + e.Message
	}
	return e.Field + ": " + e.Message
}

// SectionStore holds one section's worth of typed field values plus the
// errors from its last validation run. Values always contain every field
// the schema declares, defaulted to blank, never missing.
type SectionStore struct {
	schema SectionSchema
	values map[string]any
	errors map[string]string
}

// NewSectionStore creates a store with every schema field at its
// type-appropriate blank value.
func NewSectionStore(schema SectionSchema) *SectionStore {
	s := &SectionStore{
		schema: schema,
		values: make(map[string]any, len(schema.Fields)),
		errors: make(map[string]string),
	}
	for _, f := range schema.Fields {
		s.values[f.Name] = blankValue(f.Kind)
	}
	return s
}

func blankValue(kind FieldKind) any {
	switch kind {
	case KindString:
		return ""
	default:
		return nil
	}
}

// Name returns the schema name of this section.
func (s *SectionStore) Name() string { return s.schema.Name }

// Set assigns a single field from user input, coercing the raw value to
// the field's declared kind. Unknown fields and uncoercible values are
// rejected without mutating the store.
func (s *SectionStore) Set(field string, raw any) error {
	spec, ok := s.schema.field(field)
	if !ok {
		return fmt.Errorf("section %s: unknown field %q", s.schema.Name, field)
	}
	v, err := coerceValue(spec.Kind, raw)
	if err != nil {
		return fmt.Errorf("section %s: field %q: %w", s.schema.Name, field, err)
	}
	s.values[field] = v
	delete(s.errors, field)
	return nil
}

// Get returns the current value of a field, or nil for unknown fields.
func (s *SectionStore) Get(field string) any { return s.values[field] }

// Values returns a copy of the section's values. Mutating the returned
// map does not affect the store.
func (s *SectionStore) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Errors returns the field errors recorded by the last validation run.
func (s *SectionStore) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// BulkReplace swaps in a full set of values, e.g. when restoring a
// snapshot or populating from a fetched resource. The replacement is
// all-or-nothing: every incoming value is coerced into a staged map
// first, and the live values are only swapped once the whole set is
// clean. Fields absent from the input revert to their blank value.
func (s *SectionStore) BulkReplace(values map[string]any) error {
	staged, err := s.stage(values)
	if err != nil {
		return err
	}
	s.values = staged
	s.errors = make(map[string]string)
	return nil
}

// stage coerces an incoming value set against the schema without
// touching the live store.
func (s *SectionStore) stage(values map[string]any) (map[string]any, error) {
	for k := range values {
		if _, ok := s.schema.field(k); !ok {
			return nil, fmt.Errorf("section %s: unknown field %q", s.schema.Name, k)
		}
	}
	staged := make(map[string]any, len(s.schema.Fields))
	for _, f := range s.schema.Fields {
		raw, ok := values[f.Name]
		if !ok {
			staged[f.Name] = blankValue(f.Kind)
			continue
		}
		v, err := coerceValue(f.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("section %s: field %q: %w", s.schema.Name, f.Name, err)
		}
		staged[f.Name] = v
	}
	return staged, nil
}

// Validate checks required fields and records the failures on the
// store. It returns the failures in schema order.
func (s *SectionStore) Validate() []FieldError {
	s.errors = make(map[string]string)
	var errs []FieldError
	for _, f := range s.schema.Fields {
		if !f.Required {
			continue
		}
		if isBlank(s.values[f.Name]) {
			msg := f.Label + " is required"
			if f.Label == "" {
				msg = f.Name + " is required"
			}
			s.errors[f.Name] = msg
			errs = append(errs, FieldError{Section: s.schema.Name, Field: f.Name, Message: msg})
		}
	}
	return errs
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

// coerceValue normalises a raw (usually JSON-decoded) value to the
// field's kind. Dates and timestamps arrive as strings and are parsed;
// numbers arrive as float64 from JSON.
func coerceValue(kind FieldKind, raw any) (any, error) {
	if raw == nil {
		return blankValue(kind), nil
	}
	switch kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case KindNumber:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("expected number, got %T", raw)
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return b, nil
	case KindDate, KindTimestamp:
		switch t := raw.(type) {
		case time.Time:
			return normalizeTime(kind, t), nil
		case *time.Time:
			if t == nil {
				return nil, nil
			}
			return normalizeTime(kind, *t), nil
		case string:
			if t == "" {
				return nil, nil
			}
			parsed, err := parseTimeString(t)
			if err != nil {
				return nil, err
			}
			return normalizeTime(kind, parsed), nil
		}
		return nil, fmt.Errorf("expected date string, got %T", raw)
	}
	return nil, fmt.Errorf("unknown field kind %d", kind)
}

func normalizeTime(kind FieldKind, t time.Time) *time.Time {
	u := t.UTC()
	if kind == KindDate {
		u = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &u
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}
