package wizard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routingSchema() ListSchema {
	return ListSchema{Name: "routings", RoutingRules: true}
}

func TestModeSwitchDiscardsStaleFields(t *testing.T) {
	it := NewLineItem()
	require.NoError(t, it.SetField(FieldTransportMode, "Air"))
	require.NoError(t, it.SetField(FieldCarrier, "SQ"))
	require.NoError(t, it.SetField(FieldFlightNo, "SQ318"))

	// Switching to Sea replaces the whole variant: the flight number is
	// structurally gone, not just hidden.
	require.NoError(t, it.SetField(FieldTransportMode, "Sea"))
	assert.Equal(t, ModeSea, it.Mode)
	fields := it.Detail.Fields()
	assert.Equal(t, "", fields[FieldCarrier])
	_, hasFlight := fields[FieldFlightNo]
	assert.False(t, hasFlight)

	// And a flight number can no longer be set.
	assert.Error(t, it.SetField(FieldFlightNo, "SQ318"))
}

func TestSetModeSameModeKeepsDetail(t *testing.T) {
	it := NewLineItem()
	require.NoError(t, it.SetField(FieldTransportMode, "Air"))
	require.NoError(t, it.SetField(FieldCarrier, "SQ"))
	it.SetMode(ModeAir)
	assert.Equal(t, "SQ", it.Detail.Fields()[FieldCarrier])
}

func TestLegFieldBeforeModeRejected(t *testing.T) {
	it := NewLineItem()
	err := it.SetField(FieldCarrier, "SQ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport mode")
}

func TestRemoveItemNeverEmpties(t *testing.T) {
	list := []LineItem{NewLineItem()}
	list = AddItem(list)
	require.Len(t, list, 2)

	list, err := RemoveItem(list, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Removing the sole record resets it instead of deleting it.
	require.NoError(t, list[0].SetField(FieldFromLocation, "SIN"))
	list, err = RemoveItem(list, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsBlank())

	_, err = RemoveItem(list, 5)
	assert.Error(t, err)
}

func TestValidateRowBlankPasses(t *testing.T) {
	assert.Empty(t, ValidateRow(routingSchema(), NewLineItem()))
}

func TestValidateRowMissingModeShortCircuits(t *testing.T) {
	it := NewLineItem()
	require.NoError(t, it.SetField(FieldFromLocation, "SIN"))

	errs := ValidateRow(routingSchema(), it)
	require.Len(t, errs, 1)
	assert.Equal(t, FieldTransportMode, errs[0].Field)
}

func TestValidateRowErrorOrder(t *testing.T) {
	// A row with a mode and nothing else reports the base fields in
	// fixed order, then the mode-specific fields.
	it := NewLineItem()
	require.NoError(t, it.SetField(FieldTransportMode, "Sea"))

	errs := ValidateRow(routingSchema(), it)
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{
		FieldFromLocation, FieldToLocation, FieldETD, FieldETA,
		FieldCarrier, FieldVesselName, FieldVoyageNo,
	}, fields)
}

func TestValidateRowRequiredExtras(t *testing.T) {
	schema := ListSchema{Name: "hawbs", RequiredExtras: []string{"hawb_no", "pieces"}}
	it := NewLineItem()
	require.NoError(t, it.SetField("shipper", "Acme"))

	errs := ValidateRow(schema, it)
	require.Len(t, errs, 2)
	assert.Equal(t, "hawb_no", errs[0].Field)
	assert.Equal(t, "pieces", errs[1].Field)
}

func TestValidateListRowPrefix(t *testing.T) {
	list := []LineItem{NewLineItem(), NewLineItem()}
	require.NoError(t, list[1].SetField(FieldTransportMode, "Air"))

	errs := ValidateList(routingSchema(), list)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "row 2:")
}

func TestLineItemJSONRoundTrip(t *testing.T) {
	it := NewLineItem()
	require.NoError(t, it.SetField(FieldTransportMode, "Air"))
	require.NoError(t, it.SetField(FieldFromLocation, "SIN"))
	require.NoError(t, it.SetField(FieldToLocation, "LHR"))
	require.NoError(t, it.SetField(FieldETD, "2026-03-20T14:30:00Z"))
	require.NoError(t, it.SetField(FieldCarrier, "SQ"))
	require.NoError(t, it.SetField(FieldFlightNo, "SQ318"))

	data, err := json.Marshal(it)
	require.NoError(t, err)

	// Flattened: the detail fields sit beside the base fields.
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Air", m[FieldTransportMode])
	assert.Equal(t, "SQ318", m[FieldFlightNo])

	var back LineItem
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ModeAir, back.Mode)
	assert.Equal(t, "SIN", back.From)
	assert.Equal(t, "SQ318", back.Detail.Fields()[FieldFlightNo])
	require.NotNil(t, back.ETD)
	assert.Equal(t, time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC), back.ETD.UTC())
}

func TestCloneIsDeep(t *testing.T) {
	it := NewLineItem()
	require.NoError(t, it.SetField(FieldTransportMode, "Road"))
	require.NoError(t, it.SetField(FieldTruckNo, "TRK-9"))
	require.NoError(t, it.SetField("pieces", float64(3)))

	cp := it.Clone()
	require.NoError(t, cp.SetField(FieldTruckNo, "TRK-1"))
	cp.Extra["pieces"] = float64(99)

	assert.Equal(t, "TRK-9", it.Detail.Fields()[FieldTruckNo])
	assert.Equal(t, float64(3), it.Extra["pieces"])
}
