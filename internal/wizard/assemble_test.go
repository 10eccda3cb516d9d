package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleFlattensAndRenames(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	require.NoError(t, s.SetField("primary", "origin_code", "SIN"))
	require.NoError(t, s.SetField("carrier", "airline_code", "SQ"))

	payload, err := s.Assemble()
	require.NoError(t, err)

	// Section names do not appear; wire renames apply.
	assert.Equal(t, "ACME", payload["customer_code"])
	assert.Equal(t, "SIN", payload["origin"])
	assert.Equal(t, "SQ", payload["airline"])
	_, hasInternal := payload["origin_code"]
	assert.False(t, hasInternal)
	_, hasSection := payload["primary"]
	assert.False(t, hasSection)

	// An unset date field is an explicit null, not absent.
	v, present := payload["cargo_ready_date"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestAssembleWireFormats(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "cargo_ready_date", "2026-03-15T09:45:00+08:00"))
	require.NoError(t, s.SetField("carrier", "departure_at", "2026-03-20T22:30:00+08:00"))

	payload, err := s.Assemble()
	require.NoError(t, err)

	// Dates travel date-only; timestamps as UTC with explicit +00:00.
	assert.Equal(t, "2026-03-15", payload["cargo_ready_date"])
	assert.Equal(t, "2026-03-20T14:30:00+00:00", payload["departure_at"])

	// Unset fields still appear: blank strings stay blank, unset dates
	// are explicit nulls.
	v, present := payload["remarks"]
	assert.True(t, present)
	assert.Equal(t, "", v)
}

func TestAssembleSkipsBlankRows(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetItemField("routings", 0, FieldTransportMode, "Air"))
	require.NoError(t, s.SetItemField("routings", 0, FieldFromLocation, "SIN"))
	require.NoError(t, s.AddListItem("routings")) // left blank

	payload, err := s.Assemble()
	require.NoError(t, err)

	rows := payload["routings"].([]map[string]any)
	assert.Len(t, rows, 1)

	// An untouched list contributes an empty array, never a missing key.
	people := payload["people"].([]map[string]any)
	assert.Empty(t, people)
}

func TestAssembleRowModeFieldNulls(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetItemField("routings", 0, FieldTransportMode, "Air"))
	require.NoError(t, s.SetItemField("routings", 0, FieldFromLocation, "SIN"))
	require.NoError(t, s.SetItemField("routings", 0, FieldToLocation, "LHR"))
	require.NoError(t, s.SetItemField("routings", 0, FieldETD, "2026-03-20T22:30:00+08:00"))
	require.NoError(t, s.SetItemField("routings", 0, FieldCarrier, "SQ"))
	require.NoError(t, s.SetItemField("routings", 0, FieldFlightNo, "SQ318"))

	payload, err := s.Assemble()
	require.NoError(t, err)
	row := payload["routings"].([]map[string]any)[0]

	assert.Equal(t, "Air", row[FieldTransportMode])
	assert.Equal(t, "2026-03-20T14:30:00+00:00", row[FieldETD])
	assert.Equal(t, "SQ", row[FieldCarrier])
	assert.Equal(t, "SQ318", row[FieldFlightNo])

	// Every mode field is present; the ones Air does not use are
	// explicit nulls so the backend can tell cleared from never-sent.
	for _, name := range []string{FieldVesselName, FieldVoyageNo, FieldTruckNo, FieldRailNo} {
		v, present := row[name]
		assert.True(t, present, name)
		assert.Nil(t, v, name)
	}

	// ETA was never set: explicit null too.
	v, present := row[FieldETA]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestAssembleExtraRows(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetItemField("people", 0, "name", "Dana"))
	require.NoError(t, s.SetItemField("people", 0, "email", "dana@example.com"))

	payload, err := s.Assemble()
	require.NoError(t, err)
	row := payload["people"].([]map[string]any)[0]

	assert.Equal(t, "Dana", row["name"])
	// Non-routing rows carry no base routing fields.
	_, hasMode := row[FieldTransportMode]
	assert.False(t, hasMode)
}
