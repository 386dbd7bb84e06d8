// Package assess determines per-control compliance status from
// mappings and evidence. Assessment is a pure function of its inputs:
// re-running with unchanged mappings, evidence, and assessment time
// produces an identical ComplianceStatus, which is what makes document
// generation reproducible.
package assess

import (
	"fmt"
	"sort"
	"time"

	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/evidence"
	"github.com/complymap/complymap/knowledge"
	"github.com/complymap/complymap/semantic"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// Input is everything linked to one control at assessment time.
type Input struct {
	// Mappings are the control's repository mappings.
	Mappings []knowledge.RepositoryMapping

	// Evidence is the control's full evidence history, valid and
	// invalid.
	Evidence []knowledge.EvidenceItem

	// Requirements are the evidence requirements declared by the
	// control's matched domains.
	Requirements []semantic.EvidenceRequirement

	// At is the assessment timestamp recorded on the status. Passing
	// the run's start time keeps repeated assessment of unchanged
	// inputs byte-identical.
	At time.Time
}

// Assessor computes compliance statuses under one assessment
// configuration.
type Assessor struct {
	coverageThreshold float64
	minRelevance      float64
	notApplicable     map[string]struct{}
}

// New creates an Assessor from assessment configuration.
func New(cfg config.AssessmentConfig) *Assessor {
	na := make(map[string]struct{}, len(cfg.NotApplicable))
	for _, id := range cfg.NotApplicable {
		na[id] = struct{}{}
	}
	return &Assessor{
		coverageThreshold: cfg.CoverageThreshold,
		minRelevance:      cfg.MinRelevance,
		notApplicable:     na,
	}
}

// Assess computes one control's compliance status.
//
// Status rules: not-applicable only when configuration says so, never
// inferred. not-implemented when no primary mapping exists and evidence
// is empty. implemented when primary coverage meets the threshold and
// every mandatory requirement has at least one valid item. Everything
// else is partially-implemented. Confidence is
// min(mapping relevance, valid-evidence ratio).
func (a *Assessor) Assess(controlID string, in Input) knowledge.ComplianceStatus {
	status := knowledge.ComplianceStatus{
		ControlID:    controlID,
		LastAssessed: in.At,
		Evidence:     sortedEvidence(in.Evidence),
	}

	if _, ok := a.notApplicable[controlID]; ok {
		status.Status = vocab.StatusNotApplicable
		status.Confidence = 1
		return status
	}

	mappings := a.qualifyingMappings(in.Mappings)
	hasPrimary, coverage, relevance := summarizeMappings(mappings)
	validRatio := validEvidenceRatio(in.Evidence)
	unmet := unmetMandatory(in.Requirements, in.Evidence)

	switch {
	case !hasPrimary && len(in.Evidence) == 0:
		status.Status = vocab.StatusNotImplemented
		status.Gaps = append(status.Gaps, unmappedGap(controlID))
	case hasPrimary && coverage >= a.coverageThreshold && len(unmet) == 0:
		status.Status = vocab.StatusImplemented
	default:
		status.Status = vocab.StatusPartiallyImplemented
	}

	for _, req := range unmet {
		status.Gaps = append(status.Gaps, evidence.GapForRequirement(req))
	}
	sort.Slice(status.Gaps, func(i, j int) bool {
		return status.Gaps[i].Requirement < status.Gaps[j].Requirement
	})

	status.Confidence = clamp01(min(relevance, validRatio))
	return status
}

// qualifyingMappings drops mappings below the relevance floor.
func (a *Assessor) qualifyingMappings(mappings []knowledge.RepositoryMapping) []knowledge.RepositoryMapping {
	out := make([]knowledge.RepositoryMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.RelevanceScore >= a.minRelevance {
			out = append(out, m)
		}
	}
	return out
}

// summarizeMappings reports whether a primary mapping exists, the best
// primary coverage, and the best relevance across all qualifying
// mappings.
func summarizeMappings(mappings []knowledge.RepositoryMapping) (hasPrimary bool, coverage, relevance float64) {
	for _, m := range mappings {
		if m.RelevanceScore > relevance {
			relevance = m.RelevanceScore
		}
		if m.MappingType == vocab.MappingPrimary {
			hasPrimary = true
			if m.ImplementationCoverage > coverage {
				coverage = m.ImplementationCoverage
			}
		}
	}
	return hasPrimary, coverage, relevance
}

// validEvidenceRatio is the share of evidence items that validated.
func validEvidenceRatio(items []knowledge.EvidenceItem) float64 {
	if len(items) == 0 {
		return 0
	}
	valid := 0
	for _, item := range items {
		if item.ValidationStatus == vocab.ValidationValid {
			valid++
		}
	}
	return float64(valid) / float64(len(items))
}

// unmetMandatory returns the mandatory requirements with no valid
// evidence item of the matching category and domain.
func unmetMandatory(requirements []semantic.EvidenceRequirement, items []knowledge.EvidenceItem) []semantic.EvidenceRequirement {
	var unmet []semantic.EvidenceRequirement
	for _, req := range requirements {
		if !req.Mandatory {
			continue
		}
		if !hasValidItem(req, items) {
			unmet = append(unmet, req)
		}
	}
	return unmet
}

func hasValidItem(req semantic.EvidenceRequirement, items []knowledge.EvidenceItem) bool {
	for _, item := range items {
		if item.ValidationStatus != vocab.ValidationValid {
			continue
		}
		if item.Type != req.Type {
			continue
		}
		if domain, ok := item.Metadata["domain"]; ok && domain != string(req.Domain) {
			continue
		}
		return true
	}
	return false
}

func unmappedGap(controlID string) knowledge.ComplianceGap {
	return knowledge.ComplianceGap{
		Requirement:  fmt.Sprintf("control %s mapped to at least one repository standard", controlID),
		CurrentState: "no repository standard or evidence references this control",
		TargetState:  "a primary mapping with supporting evidence",
		Remediation:  fmt.Sprintf("document or implement %s and declare the mapping in front-matter", controlID),
		Effort:       vocab.EffortHigh,
		Priority:     vocab.PriorityMedium,
	}
}

func sortedEvidence(items []knowledge.EvidenceItem) []knowledge.EvidenceItem {
	out := append([]knowledge.EvidenceItem(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
