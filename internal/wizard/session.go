package wizard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionMode is determined once at session start and never changes.
// View disables mutation and validation gating.
type SessionMode string

const (
	ModeCreate SessionMode = "Create"
	ModeEdit   SessionMode = "Edit"
	ModeView   SessionMode = "View"
)

// ParseSessionMode returns the mode for s, defaulting to Create.
func ParseSessionMode(s string) (SessionMode, bool) {
	switch SessionMode(s) {
	case ModeCreate, ModeEdit, ModeView:
		return SessionMode(s), true
	case "":
		return ModeCreate, true
	}
	return "", false
}

// InitState tracks whether the Edit/View resource-fetch population has
// completed. Restore ordering keys off this flag, never off timing.
type InitState int

const (
	InitPending InitState = iota
	InitDone
)

// Step is one step of a wizard: the sections it shows and the lists
// whose rows it gates on.
type Step struct {
	Name     string
	Sections []string
	Lists    []string
}

// Definition declares one wizard type: its steps, section schemas, and
// repeatable lists.
type Definition struct {
	Type  string
	Title string
	Steps []Step

	Sections []SectionSchema
	Lists    []ListSchema

	// VolatileSection names the section whose content feeds the
	// snapshot fingerprint alongside the lists.
	VolatileSection string

	// SecondaryList names the list whose rows become best-effort
	// secondary submissions after the primary call succeeds. Empty
	// means the wizard has none.
	SecondaryList string

	// ResourcePath is the upstream REST path segment for this wizard's
	// primary resource, e.g. "air-export-jobs".
	ResourcePath string
}

func (d *Definition) section(name string) (SectionSchema, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionSchema{}, false
}

func (d *Definition) list(name string) (ListSchema, bool) {
	for _, l := range d.Lists {
		if l.Name == name {
			return l, true
		}
	}
	return ListSchema{}, false
}

// Check verifies internal consistency: every step references declared
// sections and lists, and the volatile/secondary names exist.
func (d *Definition) Check() error {
	if d.Type == "" {
		return errors.New("definition has no type")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("wizard %s has no steps", d.Type)
	}
	for _, st := range d.Steps {
		for _, name := range st.Sections {
			if _, ok := d.section(name); !ok {
				return fmt.Errorf("wizard %s step %q references unknown section %q", d.Type, st.Name, name)
			}
		}
		for _, name := range st.Lists {
			if _, ok := d.list(name); !ok {
				return fmt.Errorf("wizard %s step %q references unknown list %q", d.Type, st.Name, name)
			}
		}
	}
	if d.VolatileSection != "" {
		if _, ok := d.section(d.VolatileSection); !ok {
			return fmt.Errorf("wizard %s: unknown volatile section %q", d.Type, d.VolatileSection)
		}
	}
	if d.SecondaryList != "" {
		if _, ok := d.list(d.SecondaryList); !ok {
			return fmt.Errorf("wizard %s: unknown secondary list %q", d.Type, d.SecondaryList)
		}
	}
	return nil
}

// Session is the live state of one wizard instance. All operations are
// synchronous under the session's lock; "concurrency" here is about the
// ordering of asynchronous effects, tracked by explicit flags.
type Session struct {
	ID  string
	Def *Definition

	mu         sync.Mutex
	mode       SessionMode
	resourceID string
	activeStep int
	sections   map[string]*SectionStore
	lists      map[string][]LineItem

	initState        InitState
	pendingRestore   *Snapshot
	lastFingerprint  string
	remountToken     int
	navInFlight      bool
	navCooldownUntil time.Time
	submitting       bool
	checkpoint       *Snapshot

	createdAt    time.Time
	lastActiveAt time.Time
}

// NewSession creates a session for a wizard definition. Create-mode
// sessions start initialized; Edit/View sessions stay InitPending until
// Initialize delivers the fetched resource.
func NewSession(def *Definition, mode SessionMode, resourceID string) *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		Def:          def,
		mode:         mode,
		resourceID:   resourceID,
		sections:     make(map[string]*SectionStore, len(def.Sections)),
		lists:        make(map[string][]LineItem, len(def.Lists)),
		createdAt:    now,
		lastActiveAt: now,
	}
	for _, schema := range def.Sections {
		s.sections[schema.Name] = NewSectionStore(schema)
	}
	for _, l := range def.Lists {
		// A list always holds at least one record.
		s.lists[l.Name] = []LineItem{NewLineItem()}
	}
	if mode == ModeCreate {
		s.initState = InitDone
	}
	return s
}

// Mode returns the session mode.
func (s *Session) Mode() SessionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ResourceID returns the resource identifier for Edit/View sessions.
func (s *Session) ResourceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resourceID
}

// ActiveStep returns the 0-based active step index.
func (s *Session) ActiveStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeStep
}

// RemountToken returns the token lookup-display components key on; it
// bumps whenever values change programmatically via restore.
func (s *Session) RemountToken() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remountToken
}

// Initialized reports whether resource-fetch population has completed.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initState == InitDone
}

func (s *Session) touch() { s.lastActiveAt = time.Now() }

// SetField assigns one field of one section from user input.
func (s *Session) SetField(section, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeView {
		return ErrViewOnly
	}
	store, ok := s.sections[section]
	if !ok {
		return fmt.Errorf("unknown section %q", section)
	}
	s.touch()
	return store.Set(field, value)
}

// FieldValue reads one field of one section.
func (s *Session) FieldValue(section, field string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.sections[section]
	if !ok {
		return nil
	}
	return store.Get(field)
}

// SectionValues returns a copy of a section's values.
func (s *Session) SectionValues(section string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.sections[section]
	if !ok {
		return nil
	}
	return store.Values()
}

// SectionErrors returns the errors recorded on a section by the last
// validation run.
func (s *Session) SectionErrors(section string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.sections[section]
	if !ok {
		return nil
	}
	return store.Errors()
}

// List returns a deep copy of a line-item list.
func (s *Session) List(name string) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.lists[name])
}

// AddListItem appends a blank record to a list.
func (s *Session) AddListItem(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeView {
		return ErrViewOnly
	}
	list, ok := s.lists[name]
	if !ok {
		return fmt.Errorf("unknown list %q", name)
	}
	s.lists[name] = AddItem(list)
	s.touch()
	return nil
}

// RemoveListItem removes a record, preserving the never-empty
// invariant: removing the sole record resets it to defaults instead.
func (s *Session) RemoveListItem(name string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeView {
		return ErrViewOnly
	}
	list, ok := s.lists[name]
	if !ok {
		return fmt.Errorf("unknown list %q", name)
	}
	out, err := RemoveItem(list, index)
	if err != nil {
		return err
	}
	s.lists[name] = out
	s.touch()
	return nil
}

// SetItemField assigns one field of one list record.
func (s *Session) SetItemField(name string, index int, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeView {
		return ErrViewOnly
	}
	list, ok := s.lists[name]
	if !ok {
		return fmt.Errorf("unknown list %q", name)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("list %q: index %d out of range", name, index)
	}
	s.touch()
	return list[index].SetField(field, value)
}

// Initialize delivers the fetched-resource population for an Edit/View
// session and marks initialization complete. If a restore arrived while
// the fetch was in flight it is applied now, after the population — the
// restored in-session edit is deliberately the last writer.
func (s *Session) Initialize(sections map[string]map[string]any, lists map[string][]LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, values := range sections {
		store, ok := s.sections[name]
		if !ok {
			return fmt.Errorf("unknown section %q", name)
		}
		if err := store.BulkReplace(values); err != nil {
			return err
		}
	}
	for name, list := range lists {
		if _, ok := s.lists[name]; !ok {
			return fmt.Errorf("unknown list %q", name)
		}
		if len(list) == 0 {
			list = []LineItem{NewLineItem()}
		}
		s.lists[name] = cloneList(list)
	}
	s.initState = InitDone
	s.touch()
	if s.pendingRestore != nil {
		snap := s.pendingRestore
		s.pendingRestore = nil
		return s.restoreLocked(snap)
	}
	return nil
}

func cloneList(list []LineItem) []LineItem {
	out := make([]LineItem, len(list))
	for i, it := range list {
		out[i] = it.Clone()
	}
	return out
}

// Sentinel errors for session operations.
var (
	ErrViewOnly           = errors.New("session is read-only")
	ErrSubmitInFlight     = errors.New("a submission is already in flight")
	ErrNavigationInFlight = errors.New("a sub-resource navigation is already in flight")
	ErrStepGated          = errors.New("free step jumps are only allowed in view mode")
	ErrDispatchFailed     = errors.New("upstream dispatch failed")
)
