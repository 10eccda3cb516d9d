package forms

import "github.com/freightwise/cargodesk/internal/wizard"

// WizardCustomer is the customer creation flow. Creating an address
// mid-wizard is the sub-resource detour that exercises the snapshot
// round trip.
const WizardCustomer = "customer"

func customerDefinition() *wizard.Definition {
	return &wizard.Definition{
		Type:  WizardCustomer,
		Title: "Customer",
		Steps: []wizard.Step{
			{Name: "company", Sections: []string{"company"}},
			{Name: "contacts", Sections: []string{"billing"}, Lists: []string{"contacts"}},
			{Name: "review"},
		},
		Sections: []wizard.SectionSchema{
			{
				Name: "company",
				Fields: []wizard.FieldSpec{
					{Name: "code", Kind: wizard.KindString, Required: true, Label: "Customer Code"},
					{Name: "name", Kind: wizard.KindString, Required: true, Label: "Company Name"},
					{Name: "country", Kind: wizard.KindString, Required: true, Label: "Country"},
					{Name: "state", Kind: wizard.KindString, Label: "State"},
					{Name: "city", Kind: wizard.KindString, Label: "City"},
					{Name: "tax_id", Kind: wizard.KindString, Label: "Tax ID"},
				},
			},
			{
				Name: "billing",
				Fields: []wizard.FieldSpec{
					{Name: "billing_address_id", Kind: wizard.KindString, Label: "Billing Address", WireName: "billing_address"},
					{Name: "payment_terms", Kind: wizard.KindString, Label: "Payment Terms"},
					{Name: "credit_limit", Kind: wizard.KindNumber, Label: "Credit Limit"},
					{Name: "credit_approved", Kind: wizard.KindBool, Label: "Credit Approved"},
				},
			},
		},
		Lists: []wizard.ListSchema{
			{Name: "contacts", RequiredExtras: []string{"name", "email"}},
		},
		VolatileSection: "company",
		ResourcePath:    "customers",
	}
}
