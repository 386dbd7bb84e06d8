package oscal

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/complymap/complymap/catalog"
)

// SchemaValidationError reports structural violations in a generated
// document. A document with any violation must not be written.
type SchemaValidationError struct {
	Document   string
	Violations []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s failed schema validation: %s", e.Document, strings.Join(e.Violations, "; "))
}

// IsSchemaValidationError checks whether err is a document validation
// failure.
func IsSchemaValidationError(err error) bool {
	_, ok := err.(*SchemaValidationError)
	return ok
}

var implementationStates = map[string]bool{
	"implemented":    true,
	"partial":        true,
	"planned":        true,
	"alternative":    true,
	"not-applicable": true,
}

var targetStates = map[string]bool{
	"satisfied":     true,
	"not-satisfied": true,
}

type violations struct {
	list []string
}

func (v *violations) addf(format string, args ...any) {
	v.list = append(v.list, fmt.Sprintf(format, args...))
}

func (v *violations) requireUUID(field, value string) {
	if value == "" {
		v.addf("%s is required", field)
		return
	}
	if _, err := uuid.Parse(value); err != nil {
		v.addf("%s is not a valid UUID: %q", field, value)
	}
}

func (v *violations) err(document string) error {
	if len(v.list) == 0 {
		return nil
	}
	return &SchemaValidationError{Document: document, Violations: v.list}
}

func (v *violations) checkMetadata(m Metadata) {
	if m.Title == "" {
		v.addf("metadata.title is required")
	}
	if m.LastModified.IsZero() {
		v.addf("metadata.last-modified is required")
	}
	if m.Version == "" {
		v.addf("metadata.version is required")
	}
	if m.OSCALVersion == "" {
		v.addf("metadata.oscal-version is required")
	}
}

// resourceIndex maps back-matter resource UUIDs for cross-reference
// checks, recording duplicates as violations.
func (v *violations) resourceIndex(bm *BackMatter) map[string]bool {
	idx := make(map[string]bool)
	if bm == nil {
		return idx
	}
	for i, r := range bm.Resources {
		v.requireUUID(fmt.Sprintf("back-matter.resources[%d].uuid", i), r.UUID)
		if r.Title == "" {
			v.addf("back-matter.resources[%d].title is required", i)
		}
		if idx[r.UUID] {
			v.addf("back-matter.resources[%d].uuid %q is duplicated", i, r.UUID)
		}
		idx[r.UUID] = true
	}
	return idx
}

func (v *violations) checkLinks(field string, links []Link, resources map[string]bool) {
	for i, l := range links {
		if !strings.HasPrefix(l.Href, "#") {
			continue
		}
		if !resources[strings.TrimPrefix(l.Href, "#")] {
			v.addf("%s.links[%d].href %q does not resolve to a back-matter resource", field, i, l.Href)
		}
	}
}

// ValidateSSP checks a generated SSP for required fields, identifier
// formats, closed vocabularies, and resolvable evidence links.
func ValidateSSP(doc *SSPDocument) error {
	v := &violations{}
	ssp := doc.SystemSecurityPlan

	v.requireUUID("uuid", ssp.UUID)
	v.checkMetadata(ssp.Metadata)
	if ssp.ImportProfile.Href == "" {
		v.addf("import-profile.href is required")
	}
	if ssp.SystemCharacteristics.SystemName == "" {
		v.addf("system-characteristics.system-name is required")
	}
	if len(ssp.SystemCharacteristics.SystemIDs) == 0 {
		v.addf("system-characteristics.system-ids must not be empty")
	}
	if ssp.SystemCharacteristics.Status.State == "" {
		v.addf("system-characteristics.status.state is required")
	}

	resources := v.resourceIndex(ssp.BackMatter)
	seen := make(map[string]bool)
	for i, req := range ssp.ControlImplementation.ImplementedRequirements {
		field := fmt.Sprintf("control-implementation.implemented-requirements[%d]", i)
		v.requireUUID(field+".uuid", req.UUID)
		if !catalog.ValidControlID(req.ControlID) {
			v.addf("%s.control-id %q is not a valid control identifier", field, req.ControlID)
		}
		if seen[req.ControlID] {
			v.addf("%s.control-id %q appears more than once", field, req.ControlID)
		}
		seen[req.ControlID] = true
		for _, p := range req.Props {
			if p.Name == "implementation-status" && !implementationStates[p.Value] {
				v.addf("%s implementation-status %q is not an allowed value", field, p.Value)
			}
		}
		v.checkLinks(field, req.Links, resources)
	}

	return v.err("system-security-plan")
}

// ValidateAssessmentResults checks a generated assessment-results
// document, including the closed actor and target type vocabularies.
func ValidateAssessmentResults(doc *AssessmentResultsDocument) error {
	v := &violations{}
	ar := doc.AssessmentResults

	v.requireUUID("uuid", ar.UUID)
	v.checkMetadata(ar.Metadata)
	if len(ar.Results) == 0 {
		v.addf("results must not be empty")
	}

	resources := v.resourceIndex(ar.BackMatter)
	for ri, res := range ar.Results {
		rfield := fmt.Sprintf("results[%d]", ri)
		v.requireUUID(rfield+".uuid", res.UUID)
		if res.Title == "" {
			v.addf("%s.title is required", rfield)
		}
		if res.Start.IsZero() {
			v.addf("%s.start is required", rfield)
		}
		for fi, f := range res.Findings {
			field := fmt.Sprintf("%s.findings[%d]", rfield, fi)
			v.requireUUID(field+".uuid", f.UUID)
			if f.Title == "" {
				v.addf("%s.title is required", field)
			}
			if !f.Target.Type.IsValid() {
				v.addf("%s.target.type %q is not an allowed value", field, f.Target.Type)
			}
			if f.Target.TargetID == "" {
				v.addf("%s.target.target-id is required", field)
			}
			if !targetStates[f.Target.Status.State] {
				v.addf("%s.target.status.state %q is not an allowed value", field, f.Target.Status.State)
			}
			for oi, o := range f.Origins {
				for ai, a := range o.Actors {
					afield := fmt.Sprintf("%s.origins[%d].actors[%d]", field, oi, ai)
					if !a.Type.IsValid() {
						v.addf("%s.type %q is not an allowed value", afield, a.Type)
					}
					v.requireUUID(afield+".actor-uuid", a.ActorUUID)
				}
			}
			v.checkLinks(field, f.Links, resources)
		}
	}

	return v.err("assessment-results")
}
