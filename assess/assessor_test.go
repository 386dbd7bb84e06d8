package assess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/knowledge"
	"github.com/complymap/complymap/semantic"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

var assessTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func defaultAssessor() *Assessor {
	return New(config.AssessmentConfig{
		CoverageThreshold: 0.8,
		MinRelevance:      0.5,
	})
}

func primaryMapping(coverage float64) knowledge.RepositoryMapping {
	return knowledge.RepositoryMapping{
		StandardPath:           "internal/auth/password.go",
		ControlID:              "ia-5",
		MappingType:            vocab.MappingPrimary,
		RelevanceScore:         0.9,
		ImplementationCoverage: coverage,
	}
}

func validItem(id string, evType vocab.EvidenceType, domain vocab.Domain) knowledge.EvidenceItem {
	return knowledge.EvidenceItem{
		ID:               id,
		Type:             evType,
		ControlID:        "ia-5",
		Location:         "internal/auth/password.go",
		ValidationStatus: vocab.ValidationValid,
		Metadata:         map[string]string{"domain": string(domain)},
	}
}

func authRequirements() []semantic.EvidenceRequirement {
	return []semantic.EvidenceRequirement{
		{
			Domain:      vocab.DomainAuthentication,
			Type:        vocab.EvidenceCode,
			Description: "password verification using an adaptive hashing algorithm",
			Mandatory:   true,
		},
		{
			Domain:      vocab.DomainAuditLogging,
			Type:        vocab.EvidenceCode,
			Description: "authentication events emitted to the audit log",
			Mandatory:   true,
		},
	}
}

func TestAssessImplemented(t *testing.T) {
	status := defaultAssessor().Assess("ia-5", Input{
		Mappings: []knowledge.RepositoryMapping{primaryMapping(0.9)},
		Evidence: []knowledge.EvidenceItem{
			validItem("e1", vocab.EvidenceCode, vocab.DomainAuthentication),
			validItem("e2", vocab.EvidenceCode, vocab.DomainAuditLogging),
		},
		Requirements: authRequirements(),
		At:           assessTime,
	})

	assert.Equal(t, vocab.StatusImplemented, status.Status)
	assert.Empty(t, status.Gaps)
	// min(relevance 0.9, valid ratio 1.0)
	assert.InDelta(t, 0.9, status.Confidence, 0.001)
}

func TestAssessPartialOnMissingMandatoryEvidence(t *testing.T) {
	// Password hashing is evidenced but audit logging is not.
	status := defaultAssessor().Assess("ia-5", Input{
		Mappings: []knowledge.RepositoryMapping{primaryMapping(0.9)},
		Evidence: []knowledge.EvidenceItem{
			validItem("e1", vocab.EvidenceCode, vocab.DomainAuthentication),
		},
		Requirements: authRequirements(),
		At:           assessTime,
	})

	assert.Equal(t, vocab.StatusPartiallyImplemented, status.Status)
	require.Len(t, status.Gaps, 1)
	assert.Contains(t, status.Gaps[0].Requirement, "audit log")
}

func TestAssessPartialBelowCoverageThreshold(t *testing.T) {
	status := defaultAssessor().Assess("ia-5", Input{
		Mappings: []knowledge.RepositoryMapping{primaryMapping(0.5)},
		Evidence: []knowledge.EvidenceItem{
			validItem("e1", vocab.EvidenceCode, vocab.DomainAuthentication),
			validItem("e2", vocab.EvidenceCode, vocab.DomainAuditLogging),
		},
		Requirements: authRequirements(),
		At:           assessTime,
	})

	assert.Equal(t, vocab.StatusPartiallyImplemented, status.Status)
}

func TestAssessNotImplementedWhenEmpty(t *testing.T) {
	status := defaultAssessor().Assess("ac-2", Input{At: assessTime})

	assert.Equal(t, vocab.StatusNotImplemented, status.Status)
	assert.Zero(t, status.Confidence)
	require.Len(t, status.Gaps, 1)
	assert.Contains(t, status.Gaps[0].Requirement, "ac-2")
}

func TestAssessNotApplicableOnlyFromConfig(t *testing.T) {
	a := New(config.AssessmentConfig{
		CoverageThreshold: 0.8,
		MinRelevance:      0.5,
		NotApplicable:     []string{"pe-3"},
	})

	status := a.Assess("pe-3", Input{At: assessTime})
	assert.Equal(t, vocab.StatusNotApplicable, status.Status)

	// Never inferred for other controls, however empty they are.
	other := a.Assess("ac-2", Input{At: assessTime})
	assert.Equal(t, vocab.StatusNotImplemented, other.Status)
}

func TestAssessIgnoresLowRelevanceMappings(t *testing.T) {
	weak := primaryMapping(0.9)
	weak.RelevanceScore = 0.3 // below the 0.5 floor

	status := defaultAssessor().Assess("ia-5", Input{
		Mappings: []knowledge.RepositoryMapping{weak},
		At:       assessTime,
	})

	assert.Equal(t, vocab.StatusNotImplemented, status.Status)
}

func TestAssessIdempotent(t *testing.T) {
	in := Input{
		Mappings: []knowledge.RepositoryMapping{primaryMapping(0.9)},
		Evidence: []knowledge.EvidenceItem{
			validItem("e1", vocab.EvidenceCode, vocab.DomainAuthentication),
		},
		Requirements: authRequirements(),
		At:           assessTime,
	}

	a := defaultAssessor()
	first := a.Assess("ia-5", in)
	second := a.Assess("ia-5", in)

	assert.Equal(t, first, second)
}

func TestAssessConfidenceMonotonicInValidEvidence(t *testing.T) {
	a := defaultAssessor()
	in := Input{
		Mappings: []knowledge.RepositoryMapping{primaryMapping(0.9)},
		Evidence: []knowledge.EvidenceItem{
			validItem("e1", vocab.EvidenceCode, vocab.DomainAuthentication),
			{
				ID:               "e2",
				Type:             vocab.EvidenceCode,
				ControlID:        "ia-5",
				ValidationStatus: vocab.ValidationInvalid,
				Metadata:         map[string]string{"domain": "audit-logging"},
			},
		},
		Requirements: authRequirements(),
		At:           assessTime,
	}

	before := a.Assess("ia-5", in)

	in.Evidence = append(in.Evidence, validItem("e3", vocab.EvidenceCode, vocab.DomainAuditLogging))
	after := a.Assess("ia-5", in)

	assert.GreaterOrEqual(t, after.Confidence, before.Confidence)
}

func TestAssessConfidenceBounds(t *testing.T) {
	a := defaultAssessor()

	cases := []Input{
		{At: assessTime},
		{Mappings: []knowledge.RepositoryMapping{primaryMapping(0.9)}, At: assessTime},
		{
			Mappings:     []knowledge.RepositoryMapping{primaryMapping(1.0)},
			Evidence:     []knowledge.EvidenceItem{validItem("e1", vocab.EvidenceCode, vocab.DomainAuthentication)},
			Requirements: authRequirements(),
			At:           assessTime,
		},
	}

	for _, in := range cases {
		status := a.Assess("ia-5", in)
		assert.GreaterOrEqual(t, status.Confidence, 0.0)
		assert.LessOrEqual(t, status.Confidence, 1.0)
		assert.True(t, status.Status.IsValid())
	}
}

func TestAssessEvidenceSortedByID(t *testing.T) {
	status := defaultAssessor().Assess("ia-5", Input{
		Evidence: []knowledge.EvidenceItem{
			validItem("zz", vocab.EvidenceCode, vocab.DomainAuthentication),
			validItem("aa", vocab.EvidenceCode, vocab.DomainAuthentication),
		},
		At: assessTime,
	})

	require.Len(t, status.Evidence, 2)
	assert.Equal(t, "aa", status.Evidence[0].ID)
}
