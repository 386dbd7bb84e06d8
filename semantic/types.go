// Package semantic classifies repository artifacts into security
// domains with confidence-scored tags. The classifier is a single-method
// capability with two interchangeable backends: a deterministic
// keyword/pattern-rule backend (default, fully reproducible) and a
// model-backed backend that degrades to the deterministic one on
// failure or timeout.
package semantic

import (
	"github.com/complymap/complymap/analyzer"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// TagSource identifies which backend produced a tag.
type TagSource string

const (
	// SourceRules marks tags from the deterministic rule backend.
	SourceRules TagSource = "rules"

	// SourceAnalyzer marks tags derived from code analyzer matches.
	SourceAnalyzer TagSource = "analyzer"

	// SourceModel marks tags from the model-backed backend.
	SourceModel TagSource = "model"
)

// SemanticTag is one confidence-scored domain assignment for an
// artifact.
type SemanticTag struct {
	// Type is the tag category ("security-domain").
	Type string `json:"type"`

	// Domain is the assigned security domain.
	Domain vocab.Domain `json:"domain"`

	// Keywords are the markers that triggered the assignment.
	Keywords []string `json:"keywords"`

	// Confidence is the assignment confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Source is the backend that produced the tag.
	Source TagSource `json:"source"`

	// specificity is the weight of the strongest triggering marker,
	// used for confidence aggregation and ordering.
	specificity int
}

// EvidenceRequirement describes what a control mapping in a domain
// needs collected to count as demonstrated.
type EvidenceRequirement struct {
	// Domain is the security domain the requirement belongs to.
	Domain vocab.Domain `json:"domain"`

	// Type is the evidence source category expected.
	Type vocab.EvidenceType `json:"type"`

	// Description states what must be shown.
	Description string `json:"description"`

	// Mandatory requirements that yield zero valid items become gaps.
	Mandatory bool `json:"mandatory"`

	// Criteria lists marker groups the collected artifact must satisfy
	// for the evidence to validate. Each group is a set of alternatives
	// separated by "|"; every group must have at least one alternative
	// present.
	Criteria []string `json:"criteria,omitempty"`
}

// SemanticAnalysisResult is the full classification output for one
// artifact.
type SemanticAnalysisResult struct {
	// Path is the classified artifact's repository path.
	Path string `json:"path"`

	// Domains are the assigned security domains, strongest first.
	Domains []vocab.Domain `json:"domains"`

	// Technologies are recognized libraries and mechanisms.
	Technologies []string `json:"technologies"`

	// ImplementationPatterns are the analyzer matches that informed the
	// classification.
	ImplementationPatterns []analyzer.ImplementationPattern `json:"implementation_patterns"`

	// EvidenceRequirements are what the matched domains need collected.
	EvidenceRequirements []EvidenceRequirement `json:"evidence_requirements"`

	// Keywords are all markers that matched.
	Keywords []string `json:"keywords"`

	// Tags are the per-domain confidence-scored assignments.
	Tags []SemanticTag `json:"tags"`

	// Confidence is the overall classification confidence: the mean of
	// per-tag confidences weighted by keyword-match specificity.
	Confidence float64 `json:"confidence"`
}
