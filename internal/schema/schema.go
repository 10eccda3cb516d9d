// Package schema validates assembled wizard payloads against embedded
// CUE contracts before they are dispatched upstream. A contract
// violation blocks the submission and names the offending paths.
package schema

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed contracts/*.cue
var contractFS embed.FS

// Validator holds one compiled #Payload contract per wizard type,
// keyed by the contract file's base name.
type Validator struct {
	cctx      *cue.Context
	contracts map[string]cue.Value
}

// NewValidator compiles every embedded contract. Compile failures are
// startup errors, not request-time ones.
func NewValidator() (*Validator, error) {
	v := &Validator{
		cctx:      cuecontext.New(),
		contracts: make(map[string]cue.Value),
	}
	entries, err := contractFS.ReadDir("contracts")
	if err != nil {
		return nil, fmt.Errorf("schema: read contracts: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".cue") {
			continue
		}
		data, err := contractFS.ReadFile(path.Join("contracts", name))
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", name, err)
		}
		compiled := v.cctx.CompileBytes(data, cue.Filename(name))
		if compiled.Err() != nil {
			return nil, fmt.Errorf("schema: compile %s: %w", name, compiled.Err())
		}
		payload := compiled.LookupPath(cue.ParsePath("#Payload"))
		if !payload.Exists() {
			return nil, fmt.Errorf("schema: %s declares no #Payload", name)
		}
		v.contracts[strings.TrimSuffix(name, ".cue")] = payload
	}
	if len(v.contracts) == 0 {
		return nil, fmt.Errorf("schema: no contracts embedded")
	}
	return v, nil
}

// ValidatePayload unifies the payload with the wizard type's contract
// and validates the result. Wizard types without a contract pass — the
// contract set is allowed to lag new wizards.
func (v *Validator) ValidatePayload(wizardType string, payload map[string]any) error {
	contract, ok := v.contracts[wizardType]
	if !ok {
		return nil
	}
	data := v.cctx.Encode(payload)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	unified := contract.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return contractError(wizardType, err)
	}
	return nil
}

// contractError flattens CUE's error list into one message naming each
// offending path.
func contractError(wizardType string, err error) error {
	var parts []string
	for _, e := range cueerrors.Errors(err) {
		p := strings.Join(e.Path(), ".")
		if p == "" {
			parts = append(parts, e.Error())
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", p, e.Error()))
	}
	if len(parts) == 0 {
		parts = append(parts, err.Error())
	}
	return fmt.Errorf("%s payload violates contract: %s", wizardType, strings.Join(parts, "; "))
}
