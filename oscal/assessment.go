package oscal

import (
	"fmt"
	"time"

	"github.com/complymap/complymap/knowledge"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// toolActorUUID identifies this tool as the origin of automated
// findings. Stable across runs so regenerated documents compare equal.
var toolActorUUID = deterministicUUID("actor", "complymap")

// targetState maps an assessed status onto the OSCAL objective-status
// state vocabulary.
func targetState(s vocab.ImplementationStatus) string {
	if s == vocab.StatusImplemented || s == vocab.StatusNotApplicable {
		return "satisfied"
	}
	return "not-satisfied"
}

// AssessmentInput carries everything an assessment-results generation
// needs.
type AssessmentInput struct {
	SystemName  string
	Version     string
	Statuses    []knowledge.ComplianceStatus
	GeneratedAt time.Time
}

// GenerateAssessmentResults builds an Assessment Results document from
// assessed control statuses. Every status yields exactly one finding
// targeting the control's first statement, originated by this tool.
func GenerateAssessmentResults(in AssessmentInput) *AssessmentResultsDocument {
	statuses := sortedStatuses(in.Statuses)

	findings := make([]Finding, 0, len(statuses))
	var resources []Resource
	for _, st := range statuses {
		f := Finding{
			UUID:        deterministicUUID("finding", st.ControlID),
			Title:       fmt.Sprintf("Assessment of %s", st.ControlID),
			Description: findingDescription(st),
			Origins: []Origin{{Actors: []OriginActor{{
				Type:      ActorTool,
				ActorUUID: toolActorUUID,
			}}}},
			Target: FindingTarget{
				Type:     TargetStatementID,
				TargetID: st.ControlID + "_smt",
				Status:   TargetStatus{State: targetState(st.Status)},
			},
		}
		for _, ev := range st.Evidence {
			resID := EvidenceResourceUUID(st.ControlID, ev.ID)
			f.Links = append(f.Links, Link{Href: "#" + resID, Rel: "evidence", Text: ev.Description})
			resources = append(resources, Resource{
				UUID:        resID,
				Title:       fmt.Sprintf("%s evidence for %s", ev.Type, st.ControlID),
				Description: ev.Description,
				Props: []Property{
					{Name: "location", Value: ev.Location},
					{Name: "validation-status", Value: string(ev.ValidationStatus)},
				},
			})
		}
		findings = append(findings, f)
	}

	doc := &AssessmentResultsDocument{AssessmentResults: AssessmentResults{
		UUID: deterministicUUID("assessment-results", in.SystemName),
		Metadata: Metadata{
			Title:        fmt.Sprintf("%s Assessment Results", in.SystemName),
			LastModified: in.GeneratedAt,
			Version:      in.Version,
			OSCALVersion: oscalVersion,
		},
		Results: []Result{{
			UUID:        deterministicUUID("result", in.SystemName),
			Title:       "Automated compliance assessment",
			Description: "Findings produced by repository scanning, semantic mapping, and evidence validation.",
			Start:       in.GeneratedAt,
			Findings:    findings,
		}},
	}}
	if len(resources) > 0 {
		doc.AssessmentResults.BackMatter = &BackMatter{Resources: resources}
	}
	return doc
}

func findingDescription(st knowledge.ComplianceStatus) string {
	desc := fmt.Sprintf("Control %s assessed as %s with confidence %s.",
		st.ControlID, st.Status, formatConfidence(st.Confidence))
	if len(st.Gaps) > 0 {
		desc += " " + gapRemarks(st.Gaps)
	}
	return desc
}
