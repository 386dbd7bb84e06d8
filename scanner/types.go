// Package scanner walks a repository tree and emits RepositoryStandard
// records for downstream analysis. Traversal is best-effort: unreadable
// paths are reported per-file as ScanErrors and never abort the scan.
package scanner

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/complymap/complymap/scanner/parser"
)

// ArtifactType classifies what kind of artifact a scanned file is.
type ArtifactType string

const (
	// ArtifactDocumentation is authored prose (markdown, HTML).
	ArtifactDocumentation ArtifactType = "documentation"

	// ArtifactCode is source code.
	ArtifactCode ArtifactType = "code"

	// ArtifactConfiguration is configuration data (YAML, JSON).
	ArtifactConfiguration ArtifactType = "configuration"

	// ArtifactInfrastructure is infrastructure-as-code (Terraform, manifests).
	ArtifactInfrastructure ArtifactType = "infrastructure"

	// ArtifactTest is test code.
	ArtifactTest ArtifactType = "test"
)

// RepositoryStandard is one scanned artifact: a standards document,
// source file, or configuration file. Created per scan; never persisted
// across runs except via derived mappings.
type RepositoryStandard struct {
	// Path is the path relative to the scan root, slash-separated.
	Path string `json:"path"`

	// Title is the document title when one could be extracted.
	Title string `json:"title,omitempty"`

	// Content is the analyzable content: the parsed body for documents,
	// raw content otherwise.
	Content string `json:"content"`

	// Type classifies the artifact.
	Type ArtifactType `json:"type"`

	// LastModified is the file modification time.
	LastModified time.Time `json:"last_modified"`

	// Doc holds the parsed document, including any front-matter.
	Doc *parser.Document `json:"-"`
}

// HasFrontmatter reports whether the artifact declared front-matter.
func (s *RepositoryStandard) HasFrontmatter() bool {
	return s.Doc != nil && s.Doc.HasFrontmatter()
}

// Language returns the programming language for code artifacts, derived
// from the file extension, or empty.
func (s *RepositoryStandard) Language() string {
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".mjs":
		return "javascript"
	case ".ts":
		return "typescript"
	}
	return ""
}

// classifyArtifact derives the artifact type from path and extension.
func classifyArtifact(relPath string) ArtifactType {
	base := strings.ToLower(filepath.Base(relPath))
	ext := strings.ToLower(filepath.Ext(relPath))

	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_") && ext == ".py",
		strings.HasSuffix(base, ".test.js"),
		strings.HasSuffix(base, ".spec.ts"):
		return ArtifactTest
	}

	switch ext {
	case ".md", ".markdown", ".html", ".htm", ".rst", ".txt":
		return ArtifactDocumentation
	case ".go", ".py", ".js", ".mjs", ".ts":
		return ArtifactCode
	case ".tf", ".tfvars":
		return ArtifactInfrastructure
	case ".yaml", ".yml":
		if isInfraPath(relPath) {
			return ArtifactInfrastructure
		}
		return ArtifactConfiguration
	case ".json", ".toml", ".ini", ".env":
		return ArtifactConfiguration
	}
	return ArtifactDocumentation
}

// isInfraPath recognizes common IaC locations for YAML manifests.
func isInfraPath(relPath string) bool {
	p := strings.ToLower(relPath)
	for _, marker := range []string{"k8s/", "kubernetes/", "manifests/", "helm/", "charts/", ".github/workflows/", "ansible/", "terraform/"} {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}
