// Package wizard implements the multi-step form engine: per-section form
// stores, the routing-leg list editor, session state with step gating,
// navigation snapshots, and payload assembly.
package wizard

// TransportMode discriminates a routing leg. An empty mode marks a leg
// the user has not started filling in.
type TransportMode string

const (
	ModeAir  TransportMode = "Air"
	ModeSea  TransportMode = "Sea"
	ModeRoad TransportMode = "Road"
	ModeRail TransportMode = "Rail"
)

// ParseTransportMode returns the mode for s, or ok=false for anything
// that is not one of the four known modes.
func ParseTransportMode(s string) (TransportMode, bool) {
	switch TransportMode(s) {
	case ModeAir, ModeSea, ModeRoad, ModeRail:
		return TransportMode(s), true
	}
	return "", false
}

// Wire field names for the mode-specific leg fields. Every leg in an
// assembled payload carries all of these; the ones irrelevant to the
// leg's mode are emitted as explicit nulls.
const (
	FieldCarrier    = "carrier"
	FieldFlightNo   = "flight_no"
	FieldVesselName = "vessel_name"
	FieldVoyageNo   = "voyage_no"
	FieldTruckNo    = "truck_no"
	FieldRailNo     = "rail_no"
)

// legFieldNames lists every mode-specific field, in wire order.
var legFieldNames = []string{
	FieldCarrier, FieldFlightNo, FieldVesselName, FieldVoyageNo,
	FieldTruckNo, FieldRailNo,
}

// LegDetail carries the fields specific to one transport mode. Each
// variant holds exactly its own fields, so switching the discriminator
// replaces the whole variant and stale cross-mode data cannot survive.
type LegDetail interface {
	TransportMode() TransportMode

	// Missing returns the names of required-but-blank fields, in the
	// order they should be reported.
	Missing() []string

	// Fields returns the variant's populated wire fields.
	Fields() map[string]string

	// set assigns a named field, reporting false for fields the
	// variant does not own.
	set(name, value string) bool
}

// AirLeg is the detail for an Air routing leg.
type AirLeg struct {
	Carrier  string `json:"carrier"`
	FlightNo string `json:"flight_no"`
}

func (AirLeg) TransportMode() TransportMode { return ModeAir }

func (l AirLeg) Missing() []string {
	var out []string
	if l.Carrier == "" {
		out = append(out, FieldCarrier)
	}
	if l.FlightNo == "" {
		out = append(out, FieldFlightNo)
	}
	return out
}

func (l AirLeg) Fields() map[string]string {
	return map[string]string{FieldCarrier: l.Carrier, FieldFlightNo: l.FlightNo}
}

func (l *AirLeg) set(name, value string) bool {
	switch name {
	case FieldCarrier:
		l.Carrier = value
	case FieldFlightNo:
		l.FlightNo = value
	default:
		return false
	}
	return true
}

// SeaLeg is the detail for a Sea routing leg.
type SeaLeg struct {
	Carrier    string `json:"carrier"`
	VesselName string `json:"vessel_name"`
	VoyageNo   string `json:"voyage_no"`
}

func (SeaLeg) TransportMode() TransportMode { return ModeSea }

func (l SeaLeg) Missing() []string {
	var out []string
	if l.Carrier == "" {
		out = append(out, FieldCarrier)
	}
	if l.VesselName == "" {
		out = append(out, FieldVesselName)
	}
	if l.VoyageNo == "" {
		out = append(out, FieldVoyageNo)
	}
	return out
}

func (l SeaLeg) Fields() map[string]string {
	return map[string]string{
		FieldCarrier:    l.Carrier,
		FieldVesselName: l.VesselName,
		FieldVoyageNo:   l.VoyageNo,
	}
}

func (l *SeaLeg) set(name, value string) bool {
	switch name {
	case FieldCarrier:
		l.Carrier = value
	case FieldVesselName:
		l.VesselName = value
	case FieldVoyageNo:
		l.VoyageNo = value
	default:
		return false
	}
	return true
}

// RoadLeg is the detail for a Road routing leg.
type RoadLeg struct {
	Carrier string `json:"carrier"`
	TruckNo string `json:"truck_no"`
}

func (RoadLeg) TransportMode() TransportMode { return ModeRoad }

func (l RoadLeg) Missing() []string {
	var out []string
	if l.Carrier == "" {
		out = append(out, FieldCarrier)
	}
	if l.TruckNo == "" {
		out = append(out, FieldTruckNo)
	}
	return out
}

func (l RoadLeg) Fields() map[string]string {
	return map[string]string{FieldCarrier: l.Carrier, FieldTruckNo: l.TruckNo}
}

func (l *RoadLeg) set(name, value string) bool {
	switch name {
	case FieldCarrier:
		l.Carrier = value
	case FieldTruckNo:
		l.TruckNo = value
	default:
		return false
	}
	return true
}

// RailLeg is the detail for a Rail routing leg.
type RailLeg struct {
	Carrier string `json:"carrier"`
	RailNo  string `json:"rail_no"`
}

func (RailLeg) TransportMode() TransportMode { return ModeRail }

func (l RailLeg) Missing() []string {
	var out []string
	if l.Carrier == "" {
		out = append(out, FieldCarrier)
	}
	if l.RailNo == "" {
		out = append(out, FieldRailNo)
	}
	return out
}

func (l RailLeg) Fields() map[string]string {
	return map[string]string{FieldCarrier: l.Carrier, FieldRailNo: l.RailNo}
}

func (l *RailLeg) set(name, value string) bool {
	switch name {
	case FieldCarrier:
		l.Carrier = value
	case FieldRailNo:
		l.RailNo = value
	default:
		return false
	}
	return true
}

// NewLegDetail returns the zero-valued detail variant for a mode, or
// nil for an empty/unknown mode (a not-started leg has no detail and
// therefore no additional requirements).
func NewLegDetail(mode TransportMode) LegDetail {
	switch mode {
	case ModeAir:
		return &AirLeg{}
	case ModeSea:
		return &SeaLeg{}
	case ModeRoad:
		return &RoadLeg{}
	case ModeRail:
		return &RailLeg{}
	}
	return nil
}

// RequiredFields returns the mode-specific required field names for a
// discriminator value. Empty or unknown modes require nothing, which is
// what lets a fully-blank leg pass validation untouched.
func RequiredFields(mode TransportMode) []string {
	detail := NewLegDetail(mode)
	if detail == nil {
		return nil
	}
	return detail.Missing()
}

// cloneDetail returns an independent copy of a detail variant.
func cloneDetail(d LegDetail) LegDetail {
	switch v := d.(type) {
	case *AirLeg:
		c := *v
		return &c
	case *SeaLeg:
		c := *v
		return &c
	case *RoadLeg:
		c := *v
		return &c
	case *RailLeg:
		c := *v
		return &c
	}
	return nil
}
