package scanner

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/complymap/complymap/catalog"
	"github.com/complymap/complymap/config"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// frontmatterKey is the front-matter list carrying declared control
// mappings.
const frontmatterKey = "nist_800_53_r5"

// ControlMapping is one declared control association from a standard's
// front-matter.
type ControlMapping struct {
	ControlID              string            `yaml:"control_id"`
	ControlName            string            `yaml:"control_name"`
	MappingType            vocab.MappingType `yaml:"mapping_type"`
	RelevanceScore         float64           `yaml:"relevance_score"`
	ImplementationCoverage float64           `yaml:"implementation_coverage"`
	EvidenceProvided       []string          `yaml:"evidence_provided"`
	LastAnalyzed           time.Time         `yaml:"last_analyzed"`
	SemanticKeywords       []string          `yaml:"semantic_keywords"`
}

// ControlMappings extracts the declared control mappings from an
// artifact's front-matter, validating each entry against the catalog.
// Malformed entries are rejected with a ConfigError and excluded; valid
// entries are still returned. A document without the mapping key yields
// no mappings and no errors.
func ControlMappings(std *RepositoryStandard, cat *catalog.Catalog) ([]ControlMapping, []error) {
	if !std.HasFrontmatter() {
		return nil, nil
	}

	raw, ok := std.Doc.Frontmatter[frontmatterKey]
	if !ok {
		return nil, nil
	}

	entries, ok := raw.([]any)
	if !ok {
		return nil, []error{&config.ConfigError{
			Source: std.Path,
			Entry:  frontmatterKey,
			Reason: fmt.Sprintf("expected a list, got %T", raw),
		}}
	}

	var mappings []ControlMapping
	var errs []error
	for i, entry := range entries {
		mapping, err := decodeMapping(std.Path, i, entry, cat)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mappings = append(mappings, mapping)
	}
	return mappings, errs
}

// decodeMapping converts one front-matter entry into a ControlMapping,
// enforcing identifier format, catalog membership, enum membership, and
// score ranges.
func decodeMapping(source string, index int, entry any, cat *catalog.Catalog) (ControlMapping, error) {
	entryName := fmt.Sprintf("%s[%d]", frontmatterKey, index)
	reject := func(reason string, err error) (ControlMapping, error) {
		return ControlMapping{}, &config.ConfigError{
			Source: source,
			Entry:  entryName,
			Reason: reason,
			Err:    err,
		}
	}

	// Round-trip through YAML to decode the untyped front-matter map.
	data, err := yaml.Marshal(entry)
	if err != nil {
		return reject("not a mapping entry", err)
	}
	var m ControlMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return reject("malformed mapping entry", err)
	}

	m.ControlID = catalog.NormalizeControlID(m.ControlID)
	if !catalog.ValidControlID(m.ControlID) {
		return reject(fmt.Sprintf("malformed control id %q", m.ControlID), nil)
	}
	if cat != nil && !cat.Has(m.ControlID) {
		return reject(fmt.Sprintf("control %q not present in catalog", m.ControlID), nil)
	}
	if m.MappingType == "" {
		m.MappingType = vocab.MappingSupporting
	}
	if !m.MappingType.IsValid() {
		return reject(fmt.Sprintf("unknown mapping type %q", m.MappingType), nil)
	}
	if m.RelevanceScore < 0 || m.RelevanceScore > 1 {
		return reject(fmt.Sprintf("relevance_score %v out of range [0,1]", m.RelevanceScore), nil)
	}
	if m.ImplementationCoverage < 0 || m.ImplementationCoverage > 1 {
		return reject(fmt.Sprintf("implementation_coverage %v out of range [0,1]", m.ImplementationCoverage), nil)
	}

	return m, nil
}
