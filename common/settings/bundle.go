package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bundle is the exportable unit of persisted configuration: the global
// record plus every per-domain override. Import replaces the persisted state
// atomically or not at all.
type Bundle struct {
	Global  Override            `json:"global"`
	Domains map[string]Override `json:"domains"`
}

// Validate checks the whole bundle before any write happens. A bundle that
// fails validation must leave the persisted state completely untouched.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("bundle is empty")
	}
	if err := b.Global.Validate(); err != nil {
		return fmt.Errorf("global settings: %w", err)
	}
	for domain, o := range b.Domains {
		if domain == "" {
			return fmt.Errorf("domain override with empty hostname")
		}
		override := o
		if err := override.Validate(); err != nil {
			return fmt.Errorf("domain %q: %w", domain, err)
		}
	}
	return nil
}

// ParseBundle decodes and validates an import payload. Unknown fields are
// rejected so a malformed or foreign export fails loudly instead of being
// silently truncated.
func ParseBundle(data []byte) (*Bundle, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse settings bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
