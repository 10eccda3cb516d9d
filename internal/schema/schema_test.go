package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAirExportPayload() map[string]any {
	return map[string]any{
		"job_no":           "AEX-1001",
		"customer_code":    "ACME",
		"customer_name":    nil,
		"origin":           "SIN",
		"destination":      "LHR",
		"incoterm":         "FOB",
		"cargo_ready_date": "2026-03-15",
		"shipment_value":   1250.0,
		"currency":         "USD",
		"hazardous":        false,
		"remarks":          "",
		"airline":          "SQ",
		"mawb_no":          nil,
		"agent":            nil,
		"departure_at":     "2026-03-20T14:30:00+00:00",
		"arrival_at":       nil,
		"routings": []map[string]any{
			{
				"transport_mode": "Air",
				"from_location":  "SIN",
				"to_location":    "LHR",
				"etd":            "2026-03-20T14:30:00+00:00",
				"eta":            "2026-03-21T05:15:00+00:00",
				"carrier":        "SQ",
				"flight_no":      "SQ318",
				"vessel_name":    nil,
				"voyage_no":      nil,
				"truck_no":       nil,
				"rail_no":        nil,
			},
		},
		"hawbs": []map[string]any{
			{
				"hawb_no":   "HAWB-1",
				"shipper":   "Acme Electronics",
				"consignee": "Nordwind Trading",
				"pieces":    3.0,
				"weight":    120.5,
			},
		},
	}
}

func TestValidatorAcceptsValidPayload(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.ValidatePayload("airexport", validAirExportPayload()))
}

func TestValidatorRejectsMissingRequired(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	p := validAirExportPayload()
	delete(p, "customer_code")
	err = v.ValidatePayload("airexport", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer_code")
}

func TestValidatorRejectsEmptyRequired(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	p := validAirExportPayload()
	p["airline"] = ""
	assert.Error(t, v.ValidatePayload("airexport", p))
}

func TestValidatorRejectsBadWireFormats(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	p := validAirExportPayload()
	p["cargo_ready_date"] = "15/03/2026"
	assert.Error(t, v.ValidatePayload("airexport", p))

	p = validAirExportPayload()
	p["departure_at"] = "2026-03-20T14:30:00Z"
	assert.Error(t, v.ValidatePayload("airexport", p), "timestamps must carry the explicit +00:00 offset")

	p = validAirExportPayload()
	p["routings"].([]map[string]any)[0]["transport_mode"] = "Ocean"
	assert.Error(t, v.ValidatePayload("airexport", p))
}

func TestValidatorUnknownWizardPasses(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.ValidatePayload("not-a-wizard", map[string]any{"anything": 1}))
}

func TestValidatorCallEntryContract(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	p := map[string]any{
		"subject":          "Quarterly review call",
		"call_type":        "outbound",
		"called_at":        "2026-02-10T09:00:00+00:00",
		"customer":         "ACME",
		"notes":            nil,
		"follow_up_action": nil,
		"status":           nil,
		"due_date":         nil,
		"participants": []map[string]any{
			{"name": "Dana", "email": "dana@example.com"},
		},
	}
	assert.NoError(t, v.ValidatePayload("callentry", p))

	p["participants"] = []map[string]any{{"name": "Dana"}}
	assert.Error(t, v.ValidatePayload("callentry", p))
}
