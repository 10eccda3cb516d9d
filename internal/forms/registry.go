// Package forms declares the wizard definitions the service hosts:
// air export job creation, customer creation, and call entry. Each
// definition names its steps, section schemas, repeatable lists, and
// the wire renames of the upstream contract.
package forms

import (
	"fmt"
	"sort"
	"sync"

	"github.com/freightwise/cargodesk/internal/wizard"
)

var (
	mu       sync.RWMutex
	registry map[string]*wizard.Definition
)

// Init builds the definition registry. Call once during startup.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]*wizard.Definition)
	for _, def := range []*wizard.Definition{
		airExportDefinition(),
		customerDefinition(),
		callEntryDefinition(),
	} {
		if err := def.Check(); err != nil {
			return fmt.Errorf("forms: %w", err)
		}
		if _, dup := registry[def.Type]; dup {
			return fmt.Errorf("forms: duplicate wizard type %q", def.Type)
		}
		registry[def.Type] = def
	}
	return nil
}

// Lookup returns the definition for a wizard type.
func Lookup(wizardType string) (*wizard.Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	def, ok := registry[wizardType]
	return def, ok
}

// Types returns the registered wizard types, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
