// Package evidence collects and validates compliance evidence from
// repository artifacts. Four collectors cover the source categories
// (code, configuration, documentation, infrastructure-as-code); every
// collected item is validated against its requirement's criteria before
// being marked valid, and items failing validation are kept as invalid
// for audit rather than discarded.
package evidence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/complymap/complymap/knowledge"
	"github.com/complymap/complymap/scanner"
	"github.com/complymap/complymap/semantic"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// evidenceNamespace is the UUIDv5 namespace for evidence item ids.
var evidenceNamespace = uuid.MustParse("7a1d7e62-3c52-4b6d-9a0f-2f8e1c5d9b44")

// ItemID derives a stable evidence id from the item's location, the
// requirement it answers, and the artifact state it was collected from.
// One artifact serving several requirements yields one distinct id per
// requirement; an unchanged artifact keeps its ids across runs, and
// re-collection after the artifact changed yields new ids, so history
// is never mutated in place.
func ItemID(location string, req semantic.EvidenceRequirement, artifactModified time.Time) string {
	seed := strings.Join([]string{
		location,
		string(req.Domain),
		string(req.Type),
		req.Description,
		artifactModified.UTC().Format(time.RFC3339Nano),
	}, "|")
	return uuid.NewSHA1(evidenceNamespace, []byte(seed)).String()
}

// HarvestResult is the outcome of harvesting one mapping's artifact.
type HarvestResult struct {
	// Items are all collected items, valid and invalid.
	Items []knowledge.EvidenceItem

	// ValidationErrors are the per-item failures, already logged.
	ValidationErrors []*EvidenceValidationError
}

// Harvester collects evidence for repository mappings.
type Harvester struct {
	collectors []Collector
	logger     *slog.Logger
	now        func() time.Time
}

// HarvesterOption configures a Harvester.
type HarvesterOption func(*Harvester)

// WithLogger sets the harvester's logger.
func WithLogger(logger *slog.Logger) HarvesterOption {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// WithClock overrides the collection timestamp source.
func WithClock(now func() time.Time) HarvesterOption {
	return func(h *Harvester) {
		h.now = now
	}
}

// NewHarvester creates a Harvester with the four default collectors.
func NewHarvester(opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		collectors: defaultCollectors(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Harvest collects evidence from one artifact for one mapping, against
// the control's declared requirements. Requirements whose category no
// collector can draw from this artifact are skipped; whether a
// requirement ends up a gap depends on every artifact's evidence, so
// gap derivation is the assessor's job.
func (h *Harvester) Harvest(mapping knowledge.RepositoryMapping, std *scanner.RepositoryStandard, requirements []semantic.EvidenceRequirement) *HarvestResult {
	result := &HarvestResult{}
	collectedAt := h.now()

	for _, req := range requirements {
		collector := h.collectorFor(req.Type, std)
		if collector == nil {
			continue
		}

		item := knowledge.EvidenceItem{
			ID:          ItemID(std.Path, req, std.LastModified),
			Type:        req.Type,
			ControlID:   mapping.ControlID,
			Location:    std.Path,
			Description: fmt.Sprintf("%s: %s", req.Description, collector.Describe(std)),
			CollectedAt: collectedAt,
			Metadata: map[string]string{
				"standard_path": mapping.StandardPath,
				"domain":        string(req.Domain),
				"artifact_type": string(std.Type),
			},
		}

		missing := unmetCriteria(req.Criteria, std.Content)
		if len(missing) == 0 {
			item.ValidationStatus = vocab.ValidationValid
		} else {
			item.ValidationStatus = vocab.ValidationInvalid
			valErr := &EvidenceValidationError{
				Location:    std.Path,
				Requirement: req.Description,
				Missing:     missing,
			}
			result.ValidationErrors = append(result.ValidationErrors, valErr)
			h.logger.Warn("Evidence failed validation, retained as invalid",
				"control", mapping.ControlID,
				"location", std.Path,
				"requirement", req.Description,
				"missing", missing)
		}

		result.Items = append(result.Items, item)
	}

	return result
}

// collectorFor picks the collector producing the requirement's category
// that applies to the artifact.
func (h *Harvester) collectorFor(category vocab.EvidenceType, std *scanner.RepositoryStandard) Collector {
	for _, c := range h.collectors {
		if c.Category() == category && c.Applies(std) {
			return c
		}
	}
	return nil
}

// unmetCriteria returns the criteria groups with no alternative present
// in the content. Alternatives within a group are separated by "|".
func unmetCriteria(criteria []string, content string) []string {
	lowered := strings.ToLower(content)

	var missing []string
	for _, group := range criteria {
		found := false
		for _, alt := range strings.Split(group, "|") {
			if alt != "" && strings.Contains(lowered, strings.ToLower(alt)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, group)
		}
	}
	return missing
}

// GapForRequirement builds the gap recorded when a mandatory
// requirement has no valid evidence. The remediation suggestion derives
// from the requirement's description.
func GapForRequirement(req semantic.EvidenceRequirement) knowledge.ComplianceGap {
	return knowledge.ComplianceGap{
		Requirement:  req.Description,
		CurrentState: "no valid evidence collected",
		TargetState:  fmt.Sprintf("at least one valid %s evidence item demonstrating %s", req.Type, req.Description),
		Remediation:  fmt.Sprintf("provide %s evidence of %s in the %s domain", req.Type, req.Description, req.Domain),
		Effort:       vocab.EffortMedium,
		Priority:     vocab.PriorityHigh,
	}
}
