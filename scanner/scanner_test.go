package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complymap/complymap/catalog"
	"github.com/complymap/complymap/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testScanConfig(root string) config.ScanConfig {
	cfg := config.DefaultConfig().Scan
	cfg.Root = root
	return cfg
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "standards/access-control.md", "# Access Control\n\nRules.\n")
	writeFile(t, root, "auth/login.go", "package auth\n")
	writeFile(t, root, "deploy/k8s/app.yaml", "kind: Deployment\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, "notes.rs", "fn main() {}\n")

	s := New(testScanConfig(root), nil)
	standards, scanErrs, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scanErrs)

	// Sorted by path; excluded and non-included files absent.
	require.Len(t, standards, 3)
	assert.Equal(t, "auth/login.go", standards[0].Path)
	assert.Equal(t, "deploy/k8s/app.yaml", standards[1].Path)
	assert.Equal(t, "standards/access-control.md", standards[2].Path)

	assert.Equal(t, ArtifactCode, standards[0].Type)
	assert.Equal(t, ArtifactInfrastructure, standards[1].Type)
	assert.Equal(t, ArtifactDocumentation, standards[2].Type)
	assert.Equal(t, "Access Control", standards[2].Title)
	assert.False(t, standards[2].LastModified.IsZero())
}

func TestScanAll_Restartable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")
	writeFile(t, root, "b.md", "# B\n")

	s := New(testScanConfig(root), nil)

	first, _, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	second, _, err := s.ScanAll(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Path, second[0].Path)
	assert.Equal(t, first[1].Path, second[1].Path)
}

func TestScanAll_UnreadableFileReportedNotFatal(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are ignored when running as root")
	}

	root := t.TempDir()
	writeFile(t, root, "good.md", "# Good\n")
	writeFile(t, root, "bad.md", "# Bad\n")
	require.NoError(t, os.Chmod(filepath.Join(root, "bad.md"), 0000))

	s := New(testScanConfig(root), nil)
	standards, scanErrs, err := s.ScanAll(context.Background())
	require.NoError(t, err)

	require.Len(t, standards, 1)
	assert.Equal(t, "good.md", standards[0].Path)
	require.Len(t, scanErrs, 1)
	assert.Equal(t, "bad.md", scanErrs[0].Path)
}

func TestScanAll_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.md", "# ok\n")
	writeFile(t, root, "big.md", "# "+string(make([]byte, 100))+"\n")

	cfg := testScanConfig(root)
	cfg.MaxFileSize = 10

	s := New(cfg, nil)
	standards, _, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, standards, 1)
	assert.Equal(t, "small.md", standards[0].Path)
}

func TestWalk_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(testScanConfig(root), nil)
	err := s.Walk(ctx, func(*RepositoryStandard) error { return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

const mappedStandard = `---
nist_800_53_r5:
  - control_id: ia-5
    control_name: Authenticator Management
    mapping_type: primary
    relevance_score: 0.9
    implementation_coverage: 0.85
    semantic_keywords: [password, bcrypt]
  - control_id: xx-99
    mapping_type: primary
    relevance_score: 0.5
  - control_id: au-2
    mapping_type: documentation
    relevance_score: 2.5
---
# Authenticator Management
`

func scanOne(t *testing.T, content string) *RepositoryStandard {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "std.md", content)

	s := New(testScanConfig(root), nil)
	standards, _, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, standards, 1)
	return standards[0]
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load([]byte(`{"catalog":{"groups":[
		{"id":"ia","controls":[{"id":"ia-5","title":"Authenticator Management"}]},
		{"id":"au","controls":[{"id":"au-2","title":"Event Logging"}]}
	]}}`))
	require.NoError(t, err)
	return cat
}

func TestControlMappings(t *testing.T) {
	std := scanOne(t, mappedStandard)
	cat := testCatalog(t)

	mappings, errs := ControlMappings(std, cat)

	// ia-5 is valid; xx-99 is not in the catalog; au-2 has a bad score.
	require.Len(t, mappings, 1)
	assert.Equal(t, "ia-5", mappings[0].ControlID)
	assert.Equal(t, 0.9, mappings[0].RelevanceScore)
	assert.Equal(t, []string{"password", "bcrypt"}, mappings[0].SemanticKeywords)

	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, config.IsConfigError(err), "expected ConfigError, got %v", err)
	}
	assert.Contains(t, errs[0].Error(), "xx-99")
	assert.Contains(t, errs[1].Error(), "relevance_score")
}

func TestControlMappings_NoFrontmatter(t *testing.T) {
	std := scanOne(t, "# Plain\n")
	mappings, errs := ControlMappings(std, testCatalog(t))
	assert.Empty(t, mappings)
	assert.Empty(t, errs)
}

func TestClassifyArtifact(t *testing.T) {
	tests := []struct {
		path string
		want ArtifactType
	}{
		{"docs/policy.md", ArtifactDocumentation},
		{"auth/login.go", ArtifactCode},
		{"auth/login_test.go", ArtifactTest},
		{"settings.yaml", ArtifactConfiguration},
		{"k8s/deploy.yaml", ArtifactInfrastructure},
		{"infra/main.tf", ArtifactInfrastructure},
		{"app/test_auth.py", ArtifactTest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyArtifact(tt.path), "path %s", tt.path)
	}
}
