package forms

import "github.com/freightwise/cargodesk/internal/wizard"

// WizardAirExport is the air export job creation flow.
const WizardAirExport = "airexport"

// airExportDefinition declares the three-step air export job wizard:
// shipment details, routing & cargo, review. The primary section plus
// the lists feed the snapshot fingerprint — they are what a mid-wizard
// detour to another screen must bring back intact.
func airExportDefinition() *wizard.Definition {
	return &wizard.Definition{
		Type:  WizardAirExport,
		Title: "Air Export Job",
		Steps: []wizard.Step{
			{Name: "shipment", Sections: []string{"primary"}},
			{Name: "routing", Sections: []string{"carrier"}, Lists: []string{"routings", "hawbs"}},
			{Name: "review"},
		},
		Sections: []wizard.SectionSchema{
			{
				Name: "primary",
				Fields: []wizard.FieldSpec{
					{Name: "job_no", Kind: wizard.KindString, Label: "Job No"},
					{Name: "customer_code", Kind: wizard.KindString, Required: true, Label: "Customer"},
					{Name: "customer_name", Kind: wizard.KindString, Label: "Customer Name"},
					{Name: "origin_code", Kind: wizard.KindString, Required: true, Label: "Origin", WireName: "origin"},
					{Name: "destination_code", Kind: wizard.KindString, Required: true, Label: "Destination", WireName: "destination"},
					{Name: "incoterm", Kind: wizard.KindString, Required: true, Label: "Incoterm"},
					{Name: "cargo_ready_date", Kind: wizard.KindDate, Label: "Cargo Ready Date"},
					{Name: "shipment_value", Kind: wizard.KindNumber, Label: "Shipment Value"},
					{Name: "currency", Kind: wizard.KindString, Label: "Currency"},
					{Name: "hazardous", Kind: wizard.KindBool, Label: "Hazardous Cargo"},
					{Name: "remarks", Kind: wizard.KindString, Label: "Remarks"},
				},
			},
			{
				Name: "carrier",
				Fields: []wizard.FieldSpec{
					{Name: "airline_code", Kind: wizard.KindString, Required: true, Label: "Airline", WireName: "airline"},
					{Name: "mawb_no", Kind: wizard.KindString, Label: "MAWB No"},
					{Name: "agent_code", Kind: wizard.KindString, Label: "Overseas Agent", WireName: "agent"},
					{Name: "departure_at", Kind: wizard.KindTimestamp, Label: "Departure"},
					{Name: "arrival_at", Kind: wizard.KindTimestamp, Label: "Arrival"},
				},
			},
		},
		Lists: []wizard.ListSchema{
			{Name: "routings", RoutingRules: true},
			{
				Name:           "hawbs",
				RequiredExtras: []string{"hawb_no", "shipper", "consignee", "pieces", "weight"},
			},
		},
		VolatileSection: "primary",
		ResourcePath:    "air-export-jobs",
	}
}
