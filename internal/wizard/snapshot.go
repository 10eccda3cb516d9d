package wizard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a deep-copied, point-in-time capture of wizard state,
// handed across a navigation boundary as an opaque JSON document and
// re-presented on return. Later mutation of the live session never
// affects an already-taken snapshot.
type Snapshot struct {
	WizardType    string                    `json:"wizard_type"`
	TakenAt       time.Time                 `json:"taken_at"`
	Fingerprint   string                    `json:"fingerprint"`
	Sections      map[string]map[string]any `json:"sections"`
	Lists         map[string][]LineItem     `json:"lists"`
	ReturnContext json.RawMessage           `json:"return_context,omitempty"`
}

// TakeSnapshot deep-copies every section's values and every list, and
// stamps a content fingerprint so a later restore can recognise an
// already-applied snapshot.
func (s *Session) TakeSnapshot(returnContext json.RawMessage) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(returnContext)
}

func (s *Session) snapshotLocked(returnContext json.RawMessage) *Snapshot {
	snap := &Snapshot{
		WizardType:    s.Def.Type,
		TakenAt:       time.Now(),
		Sections:      make(map[string]map[string]any, len(s.sections)),
		Lists:         make(map[string][]LineItem, len(s.lists)),
		ReturnContext: append(json.RawMessage(nil), returnContext...),
	}
	for name, store := range s.sections {
		snap.Sections[name] = store.Values()
	}
	for name, list := range s.lists {
		snap.Lists[name] = cloneList(list)
	}
	snap.Fingerprint = fingerprint(s.Def.VolatileSection, snap)
	return snap
}

// fingerprint hashes the canonical JSON of the most volatile section's
// values plus every list. It changes whenever anything a restore would
// meaningfully reapply has changed.
func fingerprint(volatileSection string, snap *Snapshot) string {
	src := struct {
		Section map[string]any        `json:"section"`
		Lists   map[string][]LineItem `json:"lists"`
	}{
		Section: snap.Sections[volatileSection],
		Lists:   snap.Lists,
	}
	// Map keys marshal in sorted order, so equal content always hashes
	// equal.
	data, err := json.Marshal(src)
	if err != nil {
		// LineItem and section values are JSON-safe by construction;
		// fall back to the timestamp so restore still works, just
		// without dedup.
		return snap.TakenAt.Format(time.RFC3339Nano)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Restore applies a snapshot to the session. The apply is idempotent:
// a snapshot whose fingerprint matches the last applied one is a no-op,
// so re-presenting the same snapshot cannot stomp newer edits. While an
// Edit/View resource fetch is still populating, the snapshot is parked
// and applied by Initialize once the population lands.
//
// The replace is staged against every section before anything is
// swapped in, so a malformed snapshot leaves the session exactly as it
// was.
func (s *Session) Restore(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeView {
		return ErrViewOnly
	}
	if s.initState != InitDone {
		s.pendingRestore = snap
		return nil
	}
	return s.restoreLocked(snap)
}

func (s *Session) restoreLocked(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if snap.WizardType != "" && snap.WizardType != s.Def.Type {
		return fmt.Errorf("snapshot is for wizard %q, session is %q", snap.WizardType, s.Def.Type)
	}
	if snap.Fingerprint != "" && snap.Fingerprint == s.lastFingerprint {
		// Already applied. Re-running the apply would overwrite
		// in-progress edits with stale data.
		return nil
	}

	// Stage every section first.
	staged := make(map[string]map[string]any, len(snap.Sections))
	for name, values := range snap.Sections {
		store, ok := s.sections[name]
		if !ok {
			return fmt.Errorf("snapshot targets unknown section %q", name)
		}
		sv, err := store.stage(values)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		staged[name] = sv
	}
	stagedLists := make(map[string][]LineItem, len(snap.Lists))
	for name, list := range snap.Lists {
		if _, ok := s.lists[name]; !ok {
			return fmt.Errorf("snapshot targets unknown list %q", name)
		}
		if len(list) == 0 {
			list = []LineItem{NewLineItem()}
		}
		stagedLists[name] = cloneList(list)
	}

	// Everything staged cleanly; swap it all in.
	for name, values := range staged {
		s.sections[name].values = values
		s.sections[name].errors = make(map[string]string)
	}
	for name, list := range stagedLists {
		s.lists[name] = list
	}
	s.lastFingerprint = snap.Fingerprint
	s.remountToken++
	s.touch()
	return nil
}

// DecodeSnapshot parses a snapshot document received from a caller.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// BeginNavigation snapshots the session for an outbound sub-resource
// navigation. Only one such navigation may be in flight at a time; a
// second trigger inside the cooldown is rejected, which is what keeps a
// double-click from creating the sub-resource twice.
func (s *Session) BeginNavigation(returnContext json.RawMessage, cooldown time.Duration) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.navInFlight && now.Before(s.navCooldownUntil) {
		return nil, ErrNavigationInFlight
	}
	s.navInFlight = true
	s.navCooldownUntil = now.Add(cooldown)
	s.touch()
	return s.snapshotLocked(returnContext), nil
}

// EndNavigation clears the navigation guard, normally on return from
// the sub-resource screen.
func (s *Session) EndNavigation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navInFlight = false
}
