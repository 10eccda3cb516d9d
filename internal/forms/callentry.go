package forms

import "github.com/freightwise/cargodesk/internal/wizard"

// WizardCallEntry is the CRM call entry flow. Participant rows become
// best-effort notification posts after the primary create succeeds.
const WizardCallEntry = "callentry"

func callEntryDefinition() *wizard.Definition {
	return &wizard.Definition{
		Type:  WizardCallEntry,
		Title: "Call Entry",
		Steps: []wizard.Step{
			{Name: "call", Sections: []string{"call"}},
			{Name: "followup", Sections: []string{"followup"}, Lists: []string{"participants"}},
		},
		Sections: []wizard.SectionSchema{
			{
				Name: "call",
				Fields: []wizard.FieldSpec{
					{Name: "subject", Kind: wizard.KindString, Required: true, Label: "Subject"},
					{Name: "call_type", Kind: wizard.KindString, Required: true, Label: "Call Type"},
					{Name: "customer_code", Kind: wizard.KindString, Label: "Customer", WireName: "customer"},
					{Name: "called_at", Kind: wizard.KindTimestamp, Required: true, Label: "Call Time"},
					{Name: "notes", Kind: wizard.KindString, Label: "Notes"},
				},
			},
			{
				Name: "followup",
				Fields: []wizard.FieldSpec{
					{Name: "follow_up_action", Kind: wizard.KindString, Label: "Follow-up Action"},
					{Name: "status", Kind: wizard.KindString, Label: "Status"},
					{Name: "due_date", Kind: wizard.KindDate, Label: "Due Date"},
				},
			},
		},
		Lists: []wizard.ListSchema{
			{Name: "participants", RequiredExtras: []string{"name", "email"}},
		},
		VolatileSection: "call",
		SecondaryList:   "participants",
		ResourcePath:    "call-entries",
	}
}
