package wizard

import (
	"fmt"
	"time"
)

// Wire formats required by the upstream API: date-only fields travel as
// YYYY-MM-DD, timestamps as UTC ISO-8601 with an explicit +00:00 offset.
const (
	wireDateLayout      = "2006-01-02"
	wireTimestampLayout = "2006-01-02T15:04:05"
	wireUTCOffset       = "+00:00"
)

// Assemble flattens the session into the single outbound payload: every
// section's values merged without section prefixes, internal field
// names renamed to their wire names, dates converted to wire formats,
// and each list row mapped through its mode so only the relevant
// mode-specific fields carry values — the rest are explicit nulls, so
// the backend can tell "cleared" from "never sent".
func (s *Session) Assemble() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assembleLocked()
}

func (s *Session) assembleLocked() (map[string]any, error) {
	payload := make(map[string]any)
	for _, schema := range s.Def.Sections {
		store := s.sections[schema.Name]
		for _, f := range schema.Fields {
			v, err := wireValue(f.Kind, store.values[f.Name])
			if err != nil {
				return nil, fmt.Errorf("section %s field %s: %w", schema.Name, f.Name, err)
			}
			payload[f.wireName()] = v
		}
	}
	for _, schema := range s.Def.Lists {
		rows := make([]map[string]any, 0, len(s.lists[schema.Name]))
		for _, it := range s.lists[schema.Name] {
			if it.IsBlank() {
				// Trailing template rows are not part of the payload.
				continue
			}
			rows = append(rows, assembleRow(schema, it))
		}
		payload[schema.Name] = rows
	}
	return payload, nil
}

// assembleRow maps one list record to its wire object. Routing rows
// carry the base fields plus the full mode-field set with nulls for
// the fields the row's mode does not use; plain rows carry only their
// extra fields.
func assembleRow(schema ListSchema, it LineItem) map[string]any {
	row := make(map[string]any)
	if schema.RoutingRules {
		row[FieldTransportMode] = nullableString(string(it.Mode))
		row[FieldFromLocation] = nullableString(it.From)
		row[FieldToLocation] = nullableString(it.To)
		row[FieldETD] = wireTimestamp(it.ETD)
		row[FieldETA] = wireTimestamp(it.ETA)
		for _, name := range legFieldNames {
			row[name] = nil
		}
		if it.Detail != nil {
			for name, value := range it.Detail.Fields() {
				row[name] = value
			}
		}
	}
	for name, value := range it.Extra {
		if t, ok := value.(*time.Time); ok {
			row[name] = wireTimestamp(t)
			continue
		}
		row[name] = value
	}
	return row
}

func wireValue(kind FieldKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindDate:
		t, ok := v.(*time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time, got %T", v)
		}
		return t.UTC().Format(wireDateLayout), nil
	case KindTimestamp:
		t, ok := v.(*time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time, got %T", v)
		}
		return wireTimestamp(t), nil
	default:
		return v, nil
	}
}

func wireTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(wireTimestampLayout) + wireUTCOffset
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
