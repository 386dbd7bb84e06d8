package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser_Parse_NoFrontmatter(t *testing.T) {
	p := NewMarkdownParser()

	content := `# Access Control Standard

All repositories must enforce branch protection.
`

	doc, err := p.Parse("access-control.md", []byte(content))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "access-control.md", doc.Filename)
	assert.Equal(t, "Access Control Standard", doc.Title)
	assert.Equal(t, content, doc.Body)
	assert.False(t, doc.HasFrontmatter())
}

func TestMarkdownParser_Parse_WithFrontmatter(t *testing.T) {
	p := NewMarkdownParser()

	content := `---
title: Authenticator Management Standard
nist_800_53_r5:
  - control_id: ia-5
    control_name: Authenticator Management
    mapping_type: primary
    relevance_score: 0.95
    implementation_coverage: 0.85
    evidence_provided:
      - code
      - documentation
    semantic_keywords:
      - password
      - bcrypt
---
# Authenticator Management

Passwords must be stored using an adaptive hash.
`

	doc, err := p.Parse("ia-5-standard.md", []byte(content))
	require.NoError(t, err)

	assert.True(t, doc.HasFrontmatter())
	assert.Equal(t, "Authenticator Management Standard", doc.Frontmatter["title"])
	assert.Equal(t, "Authenticator Management", doc.Title)

	mappings, ok := doc.Frontmatter["nist_800_53_r5"].([]any)
	require.True(t, ok)
	require.Len(t, mappings, 1)

	entry, ok := mappings[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ia-5", entry["control_id"])
	assert.Equal(t, "primary", entry["mapping_type"])
}

func TestMarkdownParser_Parse_MalformedFrontmatter(t *testing.T) {
	p := NewMarkdownParser()

	content := "---\n{not yaml: [\n---\n# Body\n"

	doc, err := p.Parse("broken.md", []byte(content))
	require.NoError(t, err)

	// Malformed front-matter degrades to plain body, never fails the file.
	assert.False(t, doc.HasFrontmatter())
	assert.Equal(t, content, doc.Body)
}

func TestRegistry_Parse_PlainTextFallback(t *testing.T) {
	r := NewRegistry()

	doc, err := r.Parse("main.go", []byte("package main"))
	require.NoError(t, err)
	assert.Equal(t, "package main", doc.Body)
}

func TestRegistry_ForFile(t *testing.T) {
	r := NewRegistry()

	_, ok := r.ForFile("standard.md")
	assert.True(t, ok)
	_, ok = r.ForFile("page.HTML")
	assert.True(t, ok)
	_, ok = r.ForFile("main.rs")
	assert.False(t, ok)
}

func TestHTMLTitle(t *testing.T) {
	title := htmlTitle([]byte(`<html><head><title>Crypto Policy</title></head><body></body></html>`))
	assert.Equal(t, "Crypto Policy", title)

	assert.Empty(t, htmlTitle([]byte(`<html><body>no title</body></html>`)))
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "access-control-v2", sanitizeID("Access Control (v2)"))
	assert.Equal(t, "ia-5-standard", sanitizeID("IA-5_standard"))
}
