package oscal

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/complymap/complymap/knowledge"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// implementationState maps an assessed status onto the OSCAL
// implementation-status vocabulary.
func implementationState(s vocab.ImplementationStatus) string {
	switch s {
	case vocab.StatusImplemented:
		return "implemented"
	case vocab.StatusPartiallyImplemented:
		return "partial"
	case vocab.StatusNotApplicable:
		return "not-applicable"
	default:
		return "planned"
	}
}

// SSPInput carries everything an SSP generation needs. GeneratedAt is
// supplied by the caller so the transform stays reproducible.
type SSPInput struct {
	System      SystemCharacteristics
	Baseline    string
	ProfileHref string
	Version     string
	Statuses    []knowledge.ComplianceStatus
	GeneratedAt time.Time
}

// GenerateSSP builds a System Security Plan from assessed control
// statuses. Every status yields exactly one implemented-requirement;
// evidence items become back-matter resources linked from their
// requirement. Output ordering is ascending by control id.
func GenerateSSP(in SSPInput) *SSPDocument {
	statuses := sortedStatuses(in.Statuses)

	reqs := make([]ImplementedRequirement, 0, len(statuses))
	var resources []Resource
	for _, st := range statuses {
		req := ImplementedRequirement{
			UUID:      deterministicUUID("requirement", st.ControlID),
			ControlID: st.ControlID,
			Props: []Property{
				{Name: "implementation-status", Value: implementationState(st.Status)},
				{Name: "confidence", Value: formatConfidence(st.Confidence)},
			},
		}
		for _, ev := range st.Evidence {
			resID := EvidenceResourceUUID(st.ControlID, ev.ID)
			req.Links = append(req.Links, Link{
				Href: "#" + resID,
				Rel:  "evidence",
				Text: ev.Description,
			})
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
		if len(st.Gaps) > 0 {
			req.Remarks = gapRemarks(st.Gaps)
		}
		reqs = append(reqs, req)
	}

	doc := &SSPDocument{SystemSecurityPlan: SystemSecurityPlan{
		UUID: deterministicUUID("ssp", in.System.SystemName, in.Baseline),
		Metadata: Metadata{
			Title:        fmt.Sprintf("%s System Security Plan", in.System.SystemName),
			LastModified: in.GeneratedAt,
			Version:      in.Version,
			OSCALVersion: oscalVersion,
		},
		ImportProfile:         ImportProfile{Href: in.ProfileHref},
		SystemCharacteristics: in.System,
		ControlImplementation: ControlImplementation{
			Description:             fmt.Sprintf("Control implementation assessed against the %s baseline.", in.Baseline),
			ImplementedRequirements: reqs,
		},
	}}
	if len(resources) > 0 {
		doc.SystemSecurityPlan.BackMatter = &BackMatter{Resources: resources}
	}
	return doc
}

func gapRemarks(gaps []knowledge.ComplianceGap) string {
	out := "Open gaps:"
	for _, g := range gaps {
		out += fmt.Sprintf(" %s (remediation: %s).", g.Requirement, g.Remediation)
	}
	return out
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}

func sortedStatuses(in []knowledge.ComplianceStatus) []knowledge.ComplianceStatus {
	out := make([]knowledge.ComplianceStatus, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].ControlID < out[j].ControlID })
	return out
}
