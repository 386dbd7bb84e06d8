package semantic

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complymap/complymap/analyzer"
	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/scanner"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

func bcryptArtifact() *scanner.RepositoryStandard {
	return &scanner.RepositoryStandard{
		Path: "internal/auth/password.go",
		Content: `package auth

import "golang.org/x/crypto/bcrypt"

// VerifyPassword checks a submitted password against the stored hash.
func VerifyPassword(hash, password []byte) error {
	return bcrypt.CompareHashAndPassword(hash, password)
}
`,
		Type: scanner.ArtifactCode,
	}
}

func bcryptPatterns() []analyzer.ImplementationPattern {
	return []analyzer.ImplementationPattern{{
		Name:       "password-hashing",
		Domain:     vocab.DomainAuthentication,
		Language:   "go",
		Method:     analyzer.ValidationStaticAnalysis,
		Location:   "internal/auth/password.go",
		Matched:    "golang.org/x/crypto/bcrypt",
		Confidence: 0.9,
	}}
}

func TestClassifyAssignsAuthenticationDomain(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)

	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())
	require.NoError(t, err)

	require.NotEmpty(t, result.Domains)
	assert.Equal(t, vocab.DomainAuthentication, result.Domains[0])
	assert.Contains(t, result.Technologies, "bcrypt")
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestClassifyTagConfidenceReflectsAnalyzer(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)

	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())
	require.NoError(t, err)

	var authTag *SemanticTag
	for i := range result.Tags {
		if result.Tags[i].Domain == vocab.DomainAuthentication {
			authTag = &result.Tags[i]
		}
	}
	require.NotNil(t, authTag)
	// Analyzer match at 0.9 outranks keyword-derived confidence.
	assert.InDelta(t, 0.9, authTag.Confidence, 0.001)
	assert.Equal(t, SourceAnalyzer, authTag.Source)
}

func TestClassifyCarriesEvidenceRequirements(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)

	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())
	require.NoError(t, err)

	var mandatory []EvidenceRequirement
	for _, req := range result.EvidenceRequirements {
		if req.Mandatory {
			mandatory = append(mandatory, req)
		}
	}
	require.NotEmpty(t, mandatory)
	assert.Equal(t, vocab.DomainAuthentication, mandatory[0].Domain)
}

func TestClassifyNoMatchReturnsMappingError(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)

	artifact := &scanner.RepositoryStandard{
		Path:    "docs/roadmap.md",
		Content: "# Roadmap\n\nShip the widget editor next quarter.\n",
		Type:    scanner.ArtifactDocumentation,
	}

	_, err := c.Classify(context.Background(), artifact, nil)
	require.Error(t, err)
	assert.True(t, IsMappingError(err))
}

func TestClassifyMinConfidenceFiltersWeakTags(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.95, nil)

	// A single keyword hit scores well below 0.95.
	artifact := &scanner.RepositoryStandard{
		Path:    "docs/notes.md",
		Content: "remember to rotate the password\n",
		Type:    scanner.ArtifactDocumentation,
	}

	_, err := c.Classify(context.Background(), artifact, nil)
	require.Error(t, err)
	assert.True(t, IsMappingError(err))
}

func TestClassifySpecificityOrdersDomains(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)

	// "initialization vector" (cryptography) is a longer match than
	// "logging" (audit-logging), so cryptography leads.
	artifact := &scanner.RepositoryStandard{
		Path:    "docs/crypto.md",
		Content: "Every message uses a fresh initialization vector. Errors go to logging.\n",
		Type:    scanner.ArtifactDocumentation,
	}

	result, err := c.Classify(context.Background(), artifact, nil)
	require.NoError(t, err)
	require.Len(t, result.Domains, 2)
	assert.Equal(t, vocab.DomainCryptography, result.Domains[0])
	assert.Equal(t, vocab.DomainAuditLogging, result.Domains[1])
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)

	first, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `rules:
  - domain: authentication
    keywords: ["password", "mfa"]
    technologies: ["bcrypt"]
    control_families: ["ia"]
  - domain: not-a-domain
    keywords: ["whatever"]
  - domain: cryptography
    keywords: []
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)

	// Unknown-domain and keywordless entries are excluded.
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, vocab.DomainAuthentication, rs.Rules[0].Domain)
	assert.Equal(t, []string{"ia"}, rs.FamiliesFor(vocab.DomainAuthentication))
}

func TestLoadRuleSetMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [not: valid: yaml\n"), 0644))

	_, err := LoadRuleSet(path)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}

func TestLoadRuleSetAllExcluded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - domain: bogus\n    keywords: [\"x\"]\n"), 0644))

	_, err := LoadRuleSet(path)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}
