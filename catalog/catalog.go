package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Catalog is an indexed, immutable control catalog.
type Catalog struct {
	controls map[string]*Control
	ordered  []string
}

// oscalCatalog mirrors the subset of the OSCAL catalog JSON schema the
// engine consumes. Groups nest controls by family; enhancements nest
// under their base control.
type oscalCatalog struct {
	Catalog struct {
		Metadata struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"metadata"`
		Groups []oscalGroup `json:"groups"`
	} `json:"catalog"`
}

type oscalGroup struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Controls []oscalControl `json:"controls"`
}

type oscalControl struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Params   []oscalParam   `json:"params,omitempty"`
	Parts    []oscalPart    `json:"parts,omitempty"`
	Controls []oscalControl `json:"controls,omitempty"`
}

type oscalParam struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

type oscalPart struct {
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name"`
	Prose string      `json:"prose,omitempty"`
	Parts []oscalPart `json:"parts,omitempty"`
}

// LoadFile reads an OSCAL catalog JSON document and builds an indexed
// catalog. Entries with malformed identifiers are rejected; a catalog
// containing zero valid controls is an error.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(data)
}

// Load parses OSCAL catalog JSON and builds an indexed catalog.
func Load(data []byte) (*Catalog, error) {
	var doc oscalCatalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	cat := &Catalog{controls: make(map[string]*Control)}
	for _, group := range doc.Catalog.Groups {
		for _, oc := range group.Controls {
			if err := cat.addControl(group.ID, oc); err != nil {
				return nil, err
			}
		}
	}

	if len(cat.controls) == 0 {
		return nil, fmt.Errorf("catalog contains no controls")
	}

	sort.Strings(cat.ordered)
	return cat, nil
}

// addControl converts an OSCAL control entry (and its nested
// enhancements) into Control records.
func (c *Catalog) addControl(family string, oc oscalControl) error {
	id := NormalizeControlID(oc.ID)
	if !ValidControlID(id) {
		return fmt.Errorf("catalog control %q: malformed identifier", oc.ID)
	}

	ctrl := &Control{
		ID:     id,
		Family: strings.ToLower(family),
		Title:  oc.Title,
	}
	for _, p := range oc.Params {
		ctrl.Parameters = append(ctrl.Parameters, Parameter{ID: p.ID, Label: p.Label})
	}
	collectStatements(oc.Parts, &ctrl.Statements)

	if err := ctrl.Validate(); err != nil {
		return err
	}

	c.controls[ctrl.ID] = ctrl
	c.ordered = append(c.ordered, ctrl.ID)

	for _, sub := range oc.Controls {
		if err := c.addControl(family, sub); err != nil {
			return err
		}
	}
	return nil
}

// collectStatements flattens statement parts, descending into nested
// statement items (ia-5_smt.a, ia-5_smt.a.1, ...).
func collectStatements(parts []oscalPart, out *[]Statement) {
	for _, p := range parts {
		if p.Name != "statement" && p.Name != "item" {
			continue
		}
		if p.Prose != "" {
			*out = append(*out, Statement{ID: p.ID, Prose: p.Prose})
		}
		collectStatements(p.Parts, out)
	}
}

// Get returns the control for an identifier, or false if absent.
func (c *Catalog) Get(id string) (*Control, bool) {
	ctrl, ok := c.controls[NormalizeControlID(id)]
	return ctrl, ok
}

// Has reports whether the catalog contains the identifier.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// IDs returns all control identifiers in ascending order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of controls in the catalog.
func (c *Catalog) Len() int {
	return len(c.controls)
}

// Family returns all controls in a family, in ascending id order.
func (c *Catalog) Family(family string) []*Control {
	family = strings.ToLower(family)
	var out []*Control
	for _, id := range c.ordered {
		if c.controls[id].Family == family {
			out = append(out, c.controls[id])
		}
	}
	return out
}
