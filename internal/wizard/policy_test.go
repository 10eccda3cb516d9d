package wizard

import (
	"testing"
)

func TestParseTransportMode(t *testing.T) {
	tests := []struct {
		in   string
		want TransportMode
		ok   bool
	}{
		{"Air", ModeAir, true},
		{"Sea", ModeSea, true},
		{"Road", ModeRoad, true},
		{"Rail", ModeRail, true},
		{"", "", false},
		{"air", "", false},
		{"Ocean", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTransportMode(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseTransportMode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequiredFieldsPerMode(t *testing.T) {
	tests := []struct {
		mode TransportMode
		want []string
	}{
		{ModeAir, []string{FieldCarrier, FieldFlightNo}},
		{ModeSea, []string{FieldCarrier, FieldVesselName, FieldVoyageNo}},
		{ModeRoad, []string{FieldCarrier, FieldTruckNo}},
		{ModeRail, []string{FieldCarrier, FieldRailNo}},
		{"", nil},
		{"Ocean", nil},
	}
	for _, tt := range tests {
		got := RequiredFields(tt.mode)
		if len(got) != len(tt.want) {
			t.Errorf("RequiredFields(%q) = %v; want %v", tt.mode, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("RequiredFields(%q)[%d] = %q; want %q", tt.mode, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLegDetailSetRejectsForeignFields(t *testing.T) {
	leg := NewLegDetail(ModeAir)
	if !leg.(*AirLeg).set(FieldCarrier, "SQ") {
		t.Fatal("air leg rejected its own carrier field")
	}
	if leg.(*AirLeg).set(FieldVesselName, "Ever Given") {
		t.Fatal("air leg accepted a sea-only field")
	}
}

func TestLegDetailMissingOrder(t *testing.T) {
	// Missing reports fields in declaration order even when only some
	// are blank.
	leg := &SeaLeg{VesselName: "MSC Oscar"}
	got := leg.Missing()
	want := []string{FieldCarrier, FieldVoyageNo}
	if len(got) != len(want) {
		t.Fatalf("Missing() = %v; want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("Missing() = %v; want %v", got, want)
		}
	}
}

func TestNewLegDetailUnknownMode(t *testing.T) {
	if NewLegDetail("") != nil {
		t.Fatal("empty mode should have no detail variant")
	}
	if NewLegDetail("Pipeline") != nil {
		t.Fatal("unknown mode should have no detail variant")
	}
}
