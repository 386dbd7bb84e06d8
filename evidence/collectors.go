package evidence

import (
	"fmt"

	"github.com/complymap/complymap/scanner"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// Collector produces candidate evidence items from one source
// category. Candidates are validated by the harvester; collectors only
// decide applicability and describe what was found.
type Collector interface {
	// Category is the evidence type this collector produces.
	Category() vocab.EvidenceType

	// Applies reports whether the collector can draw evidence from the
	// artifact.
	Applies(std *scanner.RepositoryStandard) bool

	// Describe renders the candidate item's description.
	Describe(std *scanner.RepositoryStandard) string
}

// defaultCollectors returns the four source-category collectors: code,
// configuration, documentation, and infrastructure-as-code.
func defaultCollectors() []Collector {
	return []Collector{
		codeCollector{},
		configurationCollector{},
		documentationCollector{},
		infrastructureCollector{},
	}
}

type codeCollector struct{}

func (codeCollector) Category() vocab.EvidenceType {
	return vocab.EvidenceCode
}

func (codeCollector) Applies(std *scanner.RepositoryStandard) bool {
	return std.Type == scanner.ArtifactCode || std.Type == scanner.ArtifactTest
}

func (codeCollector) Describe(std *scanner.RepositoryStandard) string {
	return fmt.Sprintf("source implementation in %s", std.Path)
}

type configurationCollector struct{}

func (configurationCollector) Category() vocab.EvidenceType {
	return vocab.EvidenceConfiguration
}

func (configurationCollector) Applies(std *scanner.RepositoryStandard) bool {
	return std.Type == scanner.ArtifactConfiguration
}

func (configurationCollector) Describe(std *scanner.RepositoryStandard) string {
	return fmt.Sprintf("configuration settings in %s", std.Path)
}

type documentationCollector struct{}

func (documentationCollector) Category() vocab.EvidenceType {
	return vocab.EvidenceDocumentation
}

func (documentationCollector) Applies(std *scanner.RepositoryStandard) bool {
	return std.Type == scanner.ArtifactDocumentation
}

func (documentationCollector) Describe(std *scanner.RepositoryStandard) string {
	title := std.Title
	if title == "" {
		title = std.Path
	}
	return fmt.Sprintf("documented procedure %q", title)
}

// infrastructureCollector draws configuration-category evidence from
// infrastructure-as-code artifacts (Terraform, Kubernetes manifests).
type infrastructureCollector struct{}

func (infrastructureCollector) Category() vocab.EvidenceType {
	return vocab.EvidenceConfiguration
}

func (infrastructureCollector) Applies(std *scanner.RepositoryStandard) bool {
	return std.Type == scanner.ArtifactInfrastructure
}

func (infrastructureCollector) Describe(std *scanner.RepositoryStandard) string {
	return fmt.Sprintf("infrastructure definition in %s", std.Path)
}
