// Package catalog loads and indexes a NIST 800-53r5 control catalog.
// The catalog is read-only reference data loaded once per run; the engine
// never authors or mutates catalog entries.
package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// controlIDPattern matches lowercase OSCAL-style control identifiers,
// e.g. "ia-5" or "ac-2.3" for enhancements.
var controlIDPattern = regexp.MustCompile(`^[a-z]{2}-[0-9]+(\.[0-9]+)?$`)

// ValidControlID reports whether s is a well-formed control identifier.
func ValidControlID(s string) bool {
	return controlIDPattern.MatchString(s)
}

// NormalizeControlID lowercases and trims a control identifier and
// converts enhancement notation like "AC-2(3)" to "ac-2.3".
func NormalizeControlID(s string) string {
	id := strings.ToLower(strings.TrimSpace(s))
	id = strings.ReplaceAll(id, "(", ".")
	id = strings.TrimSuffix(id, ")")
	id = strings.ReplaceAll(id, ")", "")
	return id
}

// Control is a single catalog entry. Controls are immutable after load.
type Control struct {
	// ID is the control identifier, e.g. "ia-5".
	ID string `json:"id"`

	// Family is the two-letter family prefix, e.g. "ia".
	Family string `json:"family"`

	// Title is the control title from the catalog.
	Title string `json:"title"`

	// Statements are the control statement texts in catalog order.
	Statements []Statement `json:"statements,omitempty"`

	// Parameters are organization-defined parameters for this control.
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Statement is one statement part of a control.
type Statement struct {
	// ID is the statement identifier, e.g. "ia-5_smt.a".
	ID string `json:"id"`

	// Prose is the statement text.
	Prose string `json:"prose"`
}

// Parameter is an organization-defined parameter declared by a control.
type Parameter struct {
	// ID is the parameter identifier, e.g. "ia-5_prm_1".
	ID string `json:"id"`

	// Label is the human-readable parameter label.
	Label string `json:"label,omitempty"`
}

// Validate checks the structural invariants of a control entry.
func (c *Control) Validate() error {
	if !ValidControlID(c.ID) {
		return fmt.Errorf("invalid control id: %q", c.ID)
	}
	if c.Family == "" {
		return fmt.Errorf("control %s: family is required", c.ID)
	}
	if !strings.HasPrefix(c.ID, c.Family+"-") {
		return fmt.Errorf("control %s: family %q does not match id prefix", c.ID, c.Family)
	}
	if c.Title == "" {
		return fmt.Errorf("control %s: title is required", c.ID)
	}
	return nil
}

// IsEnhancement reports whether the control is an enhancement of a base
// control (e.g. "ac-2.3" enhances "ac-2").
func (c *Control) IsEnhancement() bool {
	return strings.Contains(c.ID, ".")
}

// BaseID returns the base control identifier, stripping any enhancement
// suffix.
func (c *Control) BaseID() string {
	if i := strings.Index(c.ID, "."); i >= 0 {
		return c.ID[:i]
	}
	return c.ID
}
