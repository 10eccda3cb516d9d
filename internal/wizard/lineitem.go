package wizard

import (
	"encoding/json"
	"fmt"
	"time"
)

// Base field wire names shared by every routing leg.
const (
	FieldTransportMode = "transport_mode"
	FieldFromLocation  = "from_location"
	FieldToLocation    = "to_location"
	FieldETD           = "etd"
	FieldETA           = "eta"
)

// LineItem is one record of a repeatable list: a routing leg or a house
// waybill row. The mode-specific fields live in the Detail variant, so
// a discriminator switch structurally discards the old mode's data.
type LineItem struct {
	Mode   TransportMode
	From   string
	To     string
	ETD    *time.Time
	ETA    *time.Time
	Detail LegDetail

	// Extra carries list-specific fields beyond the routing base, e.g.
	// hawb_no / pieces / weight on a house-waybill row. Values follow
	// the same conventions as section values.
	Extra map[string]any
}

// NewLineItem returns a fresh, fully-blank record.
func NewLineItem() LineItem {
	return LineItem{Extra: map[string]any{}}
}

// Clone deep-copies the item.
func (it LineItem) Clone() LineItem {
	out := it
	if it.ETD != nil {
		t := *it.ETD
		out.ETD = &t
	}
	if it.ETA != nil {
		t := *it.ETA
		out.ETA = &t
	}
	out.Detail = cloneDetail(it.Detail)
	out.Extra = make(map[string]any, len(it.Extra))
	for k, v := range it.Extra {
		out.Extra[k] = v
	}
	return out
}

// IsBlank reports whether the user has not started the row: every
// field, discriminator included, is blank.
func (it LineItem) IsBlank() bool {
	if it.Mode != "" || it.From != "" || it.To != "" || it.ETD != nil || it.ETA != nil {
		return false
	}
	if it.Detail != nil {
		for _, v := range it.Detail.Fields() {
			if v != "" {
				return false
			}
		}
	}
	for _, v := range it.Extra {
		if !isBlank(v) {
			return false
		}
	}
	return true
}

// SetMode switches the discriminator. The previous mode's detail is
// replaced wholesale with the new mode's zero variant, so stale
// cross-mode data can never be submitted.
func (it *LineItem) SetMode(mode TransportMode) {
	if it.Mode == mode {
		return
	}
	it.Mode = mode
	it.Detail = NewLegDetail(mode)
}

// SetField assigns a named field on the row: base fields, mode-specific
// detail fields, or Extra fields. Setting a detail field before the
// discriminator is chosen is rejected.
func (it *LineItem) SetField(name string, raw any) error {
	switch name {
	case FieldTransportMode:
		s, _ := raw.(string)
		if s == "" {
			it.Mode = ""
			it.Detail = nil
			return nil
		}
		mode, ok := ParseTransportMode(s)
		if !ok {
			return fmt.Errorf("unknown transport mode %q", s)
		}
		it.SetMode(mode)
		return nil
	case FieldFromLocation:
		return setString(&it.From, raw)
	case FieldToLocation:
		return setString(&it.To, raw)
	case FieldETD:
		v, err := coerceValue(KindTimestamp, raw)
		if err != nil {
			return err
		}
		it.ETD, _ = v.(*time.Time)
		return nil
	case FieldETA:
		v, err := coerceValue(KindTimestamp, raw)
		if err != nil {
			return err
		}
		it.ETA, _ = v.(*time.Time)
		return nil
	}
	if isLegField(name) {
		if it.Detail == nil {
			return fmt.Errorf("field %q requires a transport mode first", name)
		}
		s, ok := raw.(string)
		if !ok {
			if raw == nil {
				s = ""
			} else {
				return fmt.Errorf("field %q: expected string, got %T", name, raw)
			}
		}
		if !it.Detail.set(name, s) {
			return fmt.Errorf("field %q is not used by %s legs", name, it.Mode)
		}
		return nil
	}
	if it.Extra == nil {
		it.Extra = map[string]any{}
	}
	it.Extra[name] = raw
	return nil
}

func setString(dst *string, raw any) error {
	if raw == nil {
		*dst = ""
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", raw)
	}
	*dst = s
	return nil
}

func isLegField(name string) bool {
	for _, f := range legFieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// MarshalJSON flattens the record: base fields, the detail variant's
// fields, and Extra all appear as one object.
func (it LineItem) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		FieldTransportMode: string(it.Mode),
		FieldFromLocation:  it.From,
		FieldToLocation:    it.To,
		FieldETD:           it.ETD,
		FieldETA:           it.ETA,
	}
	if it.Detail != nil {
		for k, v := range it.Detail.Fields() {
			m[k] = v
		}
	}
	for k, v := range it.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON rebuilds the record from its flattened form, routing
// each key through SetField so the variant invariants hold.
func (it *LineItem) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*it = NewLineItem()
	// Discriminator first so detail fields land in the right variant.
	if raw, ok := m[FieldTransportMode]; ok {
		if err := it.SetField(FieldTransportMode, raw); err != nil {
			return err
		}
		delete(m, FieldTransportMode)
	}
	for k, raw := range m {
		if err := it.SetField(k, raw); err != nil {
			return err
		}
	}
	return nil
}

// ListSchema declares one repeatable list of a wizard.
type ListSchema struct {
	Name string
	// RoutingRules enables the routing-leg row validation (base fields
	// plus mode-specific fields). Lists without it (e.g. hawbs,
	// participants) validate only their declared Extra requirements.
	RoutingRules bool
	// RequiredExtras are Extra field names a non-blank row must fill.
	RequiredExtras []string
}

// AddItem appends a fresh blank record. Lists have no length cap.
func AddItem(list []LineItem) []LineItem {
	return append(list, NewLineItem())
}

// RemoveItem removes the record at index. A list never becomes empty:
// removing the sole remaining record resets it to defaults instead.
func RemoveItem(list []LineItem, index int) ([]LineItem, error) {
	if index < 0 || index >= len(list) {
		return list, fmt.Errorf("index %d out of range (len %d)", index, len(list))
	}
	if len(list) == 1 {
		list[0] = NewLineItem()
		return list, nil
	}
	return append(list[:index], list[index+1:]...), nil
}

// ValidateRow validates one record against a list schema. A fully-blank
// row is "not started" and always passes. Otherwise errors come in a
// fixed order: discriminator first, then base fields, then the fields
// the discriminator requires, then required extras — so the first
// message shown is always the most foundational missing field.
func ValidateRow(schema ListSchema, it LineItem) []FieldError {
	if it.IsBlank() {
		return nil
	}
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Section: schema.Name, Field: field, Message: msg})
	}
	if schema.RoutingRules {
		if it.Mode == "" {
			add(FieldTransportMode, "transport mode is required")
			return errs
		}
		if it.From == "" {
			add(FieldFromLocation, "from location is required")
		}
		if it.To == "" {
			add(FieldToLocation, "to location is required")
		}
		if it.ETD == nil {
			add(FieldETD, "estimated departure is required")
		}
		if it.ETA == nil {
			add(FieldETA, "estimated arrival is required")
		}
		if it.Detail != nil {
			for _, f := range it.Detail.Missing() {
				add(f, f+" is required for "+string(it.Mode)+" legs")
			}
		}
	}
	for _, name := range schema.RequiredExtras {
		if isBlank(it.Extra[name]) {
			add(name, name+" is required")
		}
	}
	return errs
}

// ValidateList runs ValidateRow over every record, tagging each error
// with its row index in the message prefix.
func ValidateList(schema ListSchema, list []LineItem) []FieldError {
	var errs []FieldError
	for i, it := range list {
		for _, e := range ValidateRow(schema, it) {
			e.Message = fmt.Sprintf("row %d: %s", i+1, e.Message)
			errs = append(errs, e)
		}
	}
	return errs
}
