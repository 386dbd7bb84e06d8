package knowledge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleMapping(path, controlID string, score float64) RepositoryMapping {
	return RepositoryMapping{
		StandardPath:           path,
		ControlID:              controlID,
		MappingType:            vocab.MappingPrimary,
		RelevanceScore:         score,
		ImplementationCoverage: 0.9,
		AutomaticDetection:     true,
		SemanticAlignment:      0.8,
		Domains:                []vocab.Domain{vocab.DomainAuthentication},
		Technologies:           []string{"bcrypt"},
	}
}

func TestUpsertMappingIdempotent(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	m := NewManager(WithClock(func() time.Time { return clock }))

	require.True(t, m.UpsertMapping(sampleMapping("docs/auth.md", "ia-5", 0.8)))
	stored := m.Mappings("ia-5")
	require.Len(t, stored, 1)
	assert.Equal(t, base, stored[0].LastValidated)

	// Same score later: no-op, timestamp untouched.
	clock = base.Add(time.Hour)
	assert.False(t, m.UpsertMapping(sampleMapping("docs/auth.md", "ia-5", 0.8)))
	assert.Equal(t, base, m.Mappings("ia-5")[0].LastValidated)
}

func TestUpsertMappingDriftRefreshesTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	m := NewManager(WithClock(func() time.Time { return clock }))

	m.UpsertMapping(sampleMapping("docs/auth.md", "ia-5", 0.8))

	clock = base.Add(time.Hour)
	require.True(t, m.UpsertMapping(sampleMapping("docs/auth.md", "ia-5", 0.6)))

	stored := m.Mappings("ia-5")
	require.Len(t, stored, 1)
	assert.Equal(t, base.Add(time.Hour), stored[0].LastValidated)
	assert.InDelta(t, 0.6, stored[0].RelevanceScore, 0.001)
}

func TestQueryControlsAscendingOrder(t *testing.T) {
	m := NewManager(WithClock(fixedClock(time.Now())))

	// Insert out of order.
	for _, id := range []string{"sc-13", "ac-2", "ia-5", "au-2"} {
		m.SetStatus(ComplianceStatus{
			ControlID:  id,
			Status:     vocab.StatusImplemented,
			Confidence: 0.9,
		})
	}

	results := m.QueryControls(ControlQuery{})
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ControlID
	}
	assert.Equal(t, []string{"ac-2", "au-2", "ia-5", "sc-13"}, ids)
}

func TestQueryControlsFilters(t *testing.T) {
	m := NewManager(WithClock(fixedClock(time.Now())))

	m.UpsertMapping(sampleMapping("docs/auth.md", "ia-5", 0.8))
	m.SetStatus(ComplianceStatus{ControlID: "ia-5", Status: vocab.StatusImplemented, Confidence: 0.85})
	m.SetStatus(ComplianceStatus{ControlID: "au-2", Status: vocab.StatusNotImplemented, Confidence: 0.3})

	assert.Len(t, m.QueryControls(ControlQuery{ControlID: "ia-5"}), 1)
	assert.Len(t, m.QueryControls(ControlQuery{Status: vocab.StatusNotImplemented}), 1)
	assert.Len(t, m.QueryControls(ControlQuery{MinConfidence: 0.5}), 1)
	assert.Len(t, m.QueryControls(ControlQuery{Domain: vocab.DomainAuthentication}), 1)
	assert.Empty(t, m.QueryControls(ControlQuery{Domain: vocab.DomainCryptography}))
	assert.Len(t, m.QueryControls(ControlQuery{Technology: "bcrypt"}), 1)
	assert.Empty(t, m.QueryControls(ControlQuery{Technology: "casbin"}))
}

func TestEvidenceAppendOnly(t *testing.T) {
	m := NewManager()

	m.AddEvidence(EvidenceItem{ID: "e1", ControlID: "ia-5", ValidationStatus: vocab.ValidationValid})
	m.AddEvidence(EvidenceItem{ID: "e2", ControlID: "ia-5", ValidationStatus: vocab.ValidationInvalid})

	items := m.Evidence("ia-5")
	require.Len(t, items, 2)
	// Invalid items are retained for audit.
	assert.Equal(t, vocab.ValidationInvalid, items[1].ValidationStatus)
}

func TestSetStatusReplacesAtomically(t *testing.T) {
	m := NewManager()

	m.SetStatus(ComplianceStatus{
		ControlID: "ia-5",
		Status:    vocab.StatusPartiallyImplemented,
		Gaps:      []ComplianceGap{{Requirement: "audit logging"}},
	})
	m.SetStatus(ComplianceStatus{ControlID: "ia-5", Status: vocab.StatusImplemented})

	status := m.Status("ia-5")
	require.NotNil(t, status)
	assert.Equal(t, vocab.StatusImplemented, status.Status)
	assert.Empty(t, status.Gaps)
}

func TestUpsertNodeMergesEdges(t *testing.T) {
	m := NewManager()

	m.UpsertNode(KnowledgeNode{
		ID:   "standard:docs/auth.md",
		Type: vocab.NodeStandard,
		Relationships: Relationships{
			Implements: []string{"control:ia-5"},
		},
	})
	m.UpsertNode(KnowledgeNode{
		ID:   "standard:docs/auth.md",
		Type: vocab.NodeStandard,
		Relationships: Relationships{
			Implements: []string{"control:ia-5", "control:ia-2"},
			Supports:   []string{"standard:docs/sso.md"},
		},
	})

	graph := m.GetGraph()
	require.Len(t, graph, 1)
	assert.Equal(t, []string{"control:ia-2", "control:ia-5"}, graph[0].Relationships.Implements)
	assert.Equal(t, []string{"standard:docs/sso.md"}, graph[0].Relationships.Supports)
}

func TestGetGraphSorted(t *testing.T) {
	m := NewManager()
	m.UpsertNode(KnowledgeNode{ID: "b", Type: vocab.NodeControl})
	m.UpsertNode(KnowledgeNode{ID: "a", Type: vocab.NodeControl})

	graph := m.GetGraph()
	require.Len(t, graph, 2)
	assert.Equal(t, "a", graph[0].ID)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "state", "knowledge.json")

	m := NewManager(WithClock(fixedClock(now)))
	m.UpsertMapping(sampleMapping("docs/auth.md", "ia-5", 0.8))
	m.UpsertNode(KnowledgeNode{ID: "control:ia-5", Type: vocab.NodeControl})
	m.SetStatus(ComplianceStatus{ControlID: "ia-5", Status: vocab.StatusImplemented, Confidence: 0.9, LastAssessed: now})

	require.NoError(t, m.Save(path))

	loaded, err := Load(path, WithClock(fixedClock(now)))
	require.NoError(t, err)

	mappings := loaded.Mappings("ia-5")
	require.Len(t, mappings, 1)
	assert.Equal(t, now, mappings[0].LastValidated)
	assert.Equal(t, m.GetGraph(), loaded.GetGraph())

	status := loaded.Status("ia-5")
	require.NotNil(t, status)
	assert.Equal(t, vocab.StatusImplemented, status.Status)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, m.GetGraph())
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMappedControls(t *testing.T) {
	m := NewManager(WithClock(fixedClock(time.Now())))
	m.UpsertMapping(sampleMapping("a.md", "sc-13", 0.5))
	m.UpsertMapping(sampleMapping("b.md", "ac-2", 0.5))
	m.UpsertMapping(sampleMapping("c.md", "ac-2", 0.6))

	assert.Equal(t, []string{"ac-2", "sc-13"}, m.MappedControls())
}
