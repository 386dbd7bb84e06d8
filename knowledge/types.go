// Package knowledge maintains the knowledge graph relating controls,
// standards, implementations, and evidence. The graph is the single
// shared mutable resource in the pipeline: all mutation goes through a
// Manager with readers-writer discipline, and mappings are upserted
// with provenance (a repeated upsert with an unchanged relevance score
// is a no-op; a changed score gets a fresh validation timestamp and a
// drift log entry).
package knowledge

import (
	"time"

	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// Relationships holds the typed, directional edges of a node.
type Relationships struct {
	Implements []string `json:"implements,omitempty"`
	Supports   []string `json:"supports,omitempty"`
	Requires   []string `json:"requires,omitempty"`
	Conflicts  []string `json:"conflicts,omitempty"`
}

// KnowledgeNode is one vertex of the knowledge graph. Edges are
// directional and typed; no cycle constraint is enforced, standards may
// mutually support one another.
type KnowledgeNode struct {
	ID            string         `json:"id"`
	Type          vocab.NodeType `json:"type"`
	Relationships Relationships  `json:"relationships"`
}

// RepositoryMapping associates one repository standard with one control.
// Identity is (StandardPath, ControlID).
type RepositoryMapping struct {
	StandardPath           string            `json:"standard_path"`
	ControlID              string            `json:"control_id"`
	MappingType            vocab.MappingType `json:"mapping_type"`
	RelevanceScore         float64           `json:"relevance_score"`
	ImplementationCoverage float64           `json:"implementation_coverage"`

	// AutomaticDetection marks mappings produced by the pipeline rather
	// than declared in front-matter.
	AutomaticDetection bool `json:"automatic_detection"`

	// LastValidated is refreshed on every scoring change, never on a
	// no-op upsert.
	LastValidated time.Time `json:"last_validated"`

	// SemanticAlignment is the classifier confidence backing this
	// mapping.
	SemanticAlignment float64 `json:"semantic_alignment"`

	// Domains and Technologies carry the classification context used by
	// control queries.
	Domains      []vocab.Domain `json:"domains,omitempty"`
	Technologies []string       `json:"technologies,omitempty"`

	// EvidenceProvided lists evidence descriptions declared for the
	// mapping.
	EvidenceProvided []string `json:"evidence_provided,omitempty"`
}

// EvidenceItem is one collected piece of evidence. Items are immutable
// once valid; re-collection creates a new item with a new ID rather
// than mutating history.
type EvidenceItem struct {
	ID               string                 `json:"id"`
	Type             vocab.EvidenceType     `json:"type"`
	ControlID        string                 `json:"control_id"`
	Location         string                 `json:"location"`
	Description      string                 `json:"description"`
	CollectedAt      time.Time              `json:"collected_at"`
	ValidationStatus vocab.ValidationStatus `json:"validation_status"`
	Metadata         map[string]string      `json:"metadata,omitempty"`
}

// ComplianceGap is one unmet requirement for a control.
type ComplianceGap struct {
	Requirement  string            `json:"requirement"`
	CurrentState string            `json:"current_state"`
	TargetState  string            `json:"target_state"`
	Remediation  string            `json:"remediation"`
	Effort       vocab.GapEffort   `json:"effort"`
	Priority     vocab.GapPriority `json:"priority"`
}

// ComplianceStatus is the assessed implementation state of one control.
// Recomputed every assessment run and replaced atomically, never
// partially updated.
type ComplianceStatus struct {
	ControlID    string                     `json:"control_id"`
	Status       vocab.ImplementationStatus `json:"status"`
	Confidence   float64                    `json:"confidence"`
	Evidence     []EvidenceItem             `json:"evidence,omitempty"`
	Gaps         []ComplianceGap            `json:"gaps,omitempty"`
	LastAssessed time.Time                  `json:"last_assessed"`
}

// ControlQuery filters queryControls results. Zero-valued fields match
// everything.
type ControlQuery struct {
	// ControlID restricts to one control.
	ControlID string

	// Domain restricts to controls with a mapping in the domain.
	Domain vocab.Domain

	// Technology restricts to controls with a mapping naming the
	// technology.
	Technology string

	// Status restricts to one implementation status.
	Status vocab.ImplementationStatus

	// MinConfidence drops statuses below this confidence.
	MinConfidence float64
}
