package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDefinition is a compact two-step wizard with a routing list and a
// secondary list, enough to exercise every session behavior.
func testDefinition() *Definition {
	return &Definition{
		Type:  "testwizard",
		Title: "Test Wizard",
		Steps: []Step{
			{Name: "details", Sections: []string{"primary"}},
			{Name: "legs", Sections: []string{"carrier"}, Lists: []string{"routings", "people"}},
		},
		Sections: []SectionSchema{
			{
				Name: "primary",
				Fields: []FieldSpec{
					{Name: "customer_code", Kind: KindString, Required: true, Label: "Customer"},
					{Name: "origin_code", Kind: KindString, Required: true, Label: "Origin", WireName: "origin"},
					{Name: "cargo_ready_date", Kind: KindDate, Label: "Cargo Ready"},
					{Name: "remarks", Kind: KindString},
				},
			},
			{
				Name: "carrier",
				Fields: []FieldSpec{
					{Name: "airline_code", Kind: KindString, Required: true, Label: "Airline", WireName: "airline"},
					{Name: "departure_at", Kind: KindTimestamp},
				},
			},
		},
		Lists: []ListSchema{
			{Name: "routings", RoutingRules: true},
			{Name: "people", RequiredExtras: []string{"name", "email"}},
		},
		VolatileSection: "primary",
		SecondaryList:   "people",
		ResourcePath:    "test-jobs",
	}
}

func TestDefinitionCheck(t *testing.T) {
	require.NoError(t, testDefinition().Check())

	bad := testDefinition()
	bad.Steps[0].Sections = []string{"nope"}
	assert.Error(t, bad.Check())

	bad = testDefinition()
	bad.VolatileSection = "nope"
	assert.Error(t, bad.Check())

	bad = testDefinition()
	bad.SecondaryList = "nope"
	assert.Error(t, bad.Check())
}

func TestNewSessionListsStartNonEmpty(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	assert.Len(t, s.List("routings"), 1)
	assert.True(t, s.Initialized())

	edit := NewSession(testDefinition(), ModeEdit, "job-1")
	assert.False(t, edit.Initialized())
}

func TestViewModeRejectsMutation(t *testing.T) {
	s := NewSession(testDefinition(), ModeView, "job-1")
	require.NoError(t, s.Initialize(nil, nil))

	assert.ErrorIs(t, s.SetField("primary", "customer_code", "ACME"), ErrViewOnly)
	assert.ErrorIs(t, s.AddListItem("routings"), ErrViewOnly)
	assert.ErrorIs(t, s.RemoveListItem("routings", 0), ErrViewOnly)
	assert.ErrorIs(t, s.SetItemField("routings", 0, FieldFromLocation, "SIN"), ErrViewOnly)
}

func TestInitializePopulates(t *testing.T) {
	s := NewSession(testDefinition(), ModeEdit, "job-1")
	leg := NewLineItem()
	require.NoError(t, leg.SetField(FieldTransportMode, "Air"))
	require.NoError(t, leg.SetField(FieldFromLocation, "SIN"))

	err := s.Initialize(
		map[string]map[string]any{"primary": {"customer_code": "ACME"}},
		map[string][]LineItem{"routings": {leg}},
	)
	require.NoError(t, err)
	assert.True(t, s.Initialized())
	assert.Equal(t, "ACME", s.FieldValue("primary", "customer_code"))
	assert.Equal(t, "SIN", s.List("routings")[0].From)

	// An empty fetched list still satisfies the non-empty invariant.
	s2 := NewSession(testDefinition(), ModeEdit, "job-2")
	require.NoError(t, s2.Initialize(nil, map[string][]LineItem{"routings": {}}))
	assert.Len(t, s2.List("routings"), 1)
}

func TestInitializeUnknownNames(t *testing.T) {
	s := NewSession(testDefinition(), ModeEdit, "job-1")
	assert.Error(t, s.Initialize(map[string]map[string]any{"bogus": {}}, nil))
	assert.Error(t, s.Initialize(nil, map[string][]LineItem{"bogus": {}}))
}

func TestListReturnsCopy(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	list := s.List("routings")
	require.NoError(t, list[0].SetField(FieldFromLocation, "SIN"))
	assert.Equal(t, "", s.List("routings")[0].From)
}
