package wizard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotImmuneToLaterEdits(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	require.NoError(t, s.SetItemField("routings", 0, FieldTransportMode, "Air"))

	snap := s.TakeSnapshot(nil)

	// Mutate the live session after the capture.
	require.NoError(t, s.SetField("primary", "customer_code", "NORD"))
	require.NoError(t, s.SetItemField("routings", 0, FieldTransportMode, "Sea"))

	assert.Equal(t, "ACME", snap.Sections["primary"]["customer_code"])
	assert.Equal(t, ModeAir, snap.Lists["routings"][0].Mode)
}

func TestFingerprintTracksVolatileContent(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	a := s.TakeSnapshot(nil)
	b := s.TakeSnapshot(nil)
	assert.Equal(t, a.Fingerprint, b.Fingerprint, "identical content must hash identically")

	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	c := s.TakeSnapshot(nil)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)

	// A change in a non-volatile section does not move the fingerprint.
	require.NoError(t, s.SetField("carrier", "airline_code", "SQ"))
	d := s.TakeSnapshot(nil)
	assert.Equal(t, c.Fingerprint, d.Fingerprint)
}

func TestRestoreAppliesAndBumpsRemountToken(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	snap := s.TakeSnapshot(nil)

	require.NoError(t, s.SetField("primary", "customer_code", "NORD"))
	before := s.RemountToken()

	require.NoError(t, s.Restore(snap))
	assert.Equal(t, "ACME", s.FieldValue("primary", "customer_code"))
	assert.Equal(t, before+1, s.RemountToken())
}

func TestRestoreIdempotent(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	snap := s.TakeSnapshot(nil)

	require.NoError(t, s.Restore(snap))
	token := s.RemountToken()

	// Edit after the first apply, then re-present the same snapshot:
	// the newer edit must survive.
	require.NoError(t, s.SetField("primary", "customer_code", "NORD"))
	require.NoError(t, s.Restore(snap))
	assert.Equal(t, "NORD", s.FieldValue("primary", "customer_code"))
	assert.Equal(t, token, s.RemountToken())
}

func TestRestoreMalformedSnapshotLeavesStateIntact(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))

	bad := s.TakeSnapshot(nil)
	bad.Fingerprint = "forced-different"
	bad.Sections["primary"]["cargo_ready_date"] = "not a date"
	bad.Sections["carrier"] = map[string]any{"airline_code": "SQ"}

	require.Error(t, s.Restore(bad))
	assert.Equal(t, "ACME", s.FieldValue("primary", "customer_code"))
	assert.Equal(t, "", s.FieldValue("carrier", "airline_code"))

	other := s.TakeSnapshot(nil)
	other.WizardType = "somethingelse"
	assert.Error(t, s.Restore(other))
}

func TestRestoreParkedUntilInitialize(t *testing.T) {
	s := NewSession(testDefinition(), ModeEdit, "job-1")

	donor := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, donor.SetField("primary", "customer_code", "RESTORED"))
	require.NoError(t, donor.SetField("primary", "origin_code", "SIN"))
	snap := donor.TakeSnapshot(nil)

	// Restore arrives before the resource fetch lands: parked, not
	// applied, no error.
	require.NoError(t, s.Restore(snap))
	assert.Equal(t, "", s.FieldValue("primary", "customer_code"))

	// Initialize applies the fetch first, then the parked restore on
	// top: the restored in-session edit wins.
	err := s.Initialize(map[string]map[string]any{
		"primary": {"customer_code": "FETCHED", "origin_code": "HKG"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "RESTORED", s.FieldValue("primary", "customer_code"))
	assert.Equal(t, "SIN", s.FieldValue("primary", "origin_code"))
}

func TestRestoreViewOnly(t *testing.T) {
	s := NewSession(testDefinition(), ModeView, "job-9")
	require.NoError(t, s.Initialize(map[string]map[string]any{
		"primary": {"customer_code": "ACME"},
	}, nil))

	donor := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, donor.SetField("primary", "customer_code", "NORD"))
	snap := donor.TakeSnapshot(nil)

	require.ErrorIs(t, s.Restore(snap), ErrViewOnly)
	assert.Equal(t, "ACME", s.FieldValue("primary", "customer_code"))
}

func TestBeginNavigationGuard(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")

	snap, err := s.BeginNavigation(json.RawMessage(`{"return_to":"step-2"}`), time.Minute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"return_to":"step-2"}`, string(snap.ReturnContext))

	// Double-trigger inside the cooldown is rejected.
	_, err = s.BeginNavigation(nil, time.Minute)
	assert.ErrorIs(t, err, ErrNavigationInFlight)

	// Returning clears the guard.
	s.EndNavigation()
	_, err = s.BeginNavigation(nil, time.Minute)
	assert.NoError(t, err)
}

func TestBeginNavigationCooldownExpiry(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	_, err := s.BeginNavigation(nil, time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	// A stuck guard does not wedge the session forever.
	_, err = s.BeginNavigation(nil, time.Minute)
	assert.NoError(t, err)
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	s := NewSession(testDefinition(), ModeCreate, "")
	require.NoError(t, s.SetField("primary", "customer_code", "ACME"))
	require.NoError(t, s.SetItemField("routings", 0, FieldTransportMode, "Sea"))
	require.NoError(t, s.SetItemField("routings", 0, FieldVesselName, "MSC Oscar"))
	snap := s.TakeSnapshot(nil)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	back, err := DecodeSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, snap.Fingerprint, back.Fingerprint)
	assert.Equal(t, "ACME", back.Sections["primary"]["customer_code"])
	assert.Equal(t, "MSC Oscar", back.Lists["routings"][0].Detail.Fields()[FieldVesselName])
}
