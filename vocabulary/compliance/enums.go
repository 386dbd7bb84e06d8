package compliance

// MappingType classifies the relationship between a repository standard
// and a control.
type MappingType string

const (
	// MappingPrimary indicates the standard is the main implementation of
	// the control. A control without a primary mapping cannot be assessed
	// as implemented.
	MappingPrimary MappingType = "primary"

	// MappingSupporting indicates the standard contributes to the control
	// without being its main implementation.
	MappingSupporting MappingType = "supporting"

	// MappingEvidence indicates the standard serves as evidence for the
	// control rather than implementing it.
	MappingEvidence MappingType = "evidence"

	// MappingDocumentation indicates the standard documents the control.
	MappingDocumentation MappingType = "documentation"
)

// IsValid checks if a mapping type is a known value.
func (m MappingType) IsValid() bool {
	switch m {
	case MappingPrimary, MappingSupporting, MappingEvidence, MappingDocumentation:
		return true
	}
	return false
}

// String returns the string representation of the mapping type.
func (m MappingType) String() string {
	return string(m)
}

// ParseMappingType converts a string to a MappingType, returning empty
// for invalid values.
func ParseMappingType(s string) MappingType {
	m := MappingType(s)
	if m.IsValid() {
		return m
	}
	return ""
}

// ImplementationStatus is the assessed implementation state of a control.
type ImplementationStatus string

const (
	// StatusImplemented indicates coverage meets the configured threshold
	// and every mandatory evidence requirement has at least one valid item.
	StatusImplemented ImplementationStatus = "implemented"

	// StatusPartiallyImplemented indicates a primary mapping exists but
	// coverage is below threshold or mandatory evidence is missing.
	StatusPartiallyImplemented ImplementationStatus = "partially-implemented"

	// StatusNotImplemented indicates no primary mapping and no evidence.
	StatusNotImplemented ImplementationStatus = "not-implemented"

	// StatusNotApplicable is assigned only by explicit configuration,
	// never inferred.
	StatusNotApplicable ImplementationStatus = "not-applicable"
)

// IsValid checks if a status is a known value.
func (s ImplementationStatus) IsValid() bool {
	switch s {
	case StatusImplemented, StatusPartiallyImplemented, StatusNotImplemented, StatusNotApplicable:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s ImplementationStatus) String() string {
	return string(s)
}

// EvidenceType classifies the source category of an evidence item.
type EvidenceType string

const (
	// EvidenceCode is evidence extracted from source files.
	EvidenceCode EvidenceType = "code"

	// EvidenceConfiguration is evidence extracted from configuration files.
	EvidenceConfiguration EvidenceType = "configuration"

	// EvidenceDocumentation is evidence extracted from documentation.
	EvidenceDocumentation EvidenceType = "documentation"

	// EvidenceLog is evidence extracted from log output.
	EvidenceLog EvidenceType = "log"

	// EvidenceTest is evidence extracted from test files.
	EvidenceTest EvidenceType = "test"
)

// IsValid checks if an evidence type is a known value.
func (e EvidenceType) IsValid() bool {
	switch e {
	case EvidenceCode, EvidenceConfiguration, EvidenceDocumentation, EvidenceLog, EvidenceTest:
		return true
	}
	return false
}

// ValidationStatus tracks evidence validation state.
type ValidationStatus string

const (
	// ValidationValid indicates the item passed its collection criteria.
	// Valid items are immutable; re-collection creates a new item.
	ValidationValid ValidationStatus = "valid"

	// ValidationInvalid indicates the item failed criteria. Invalid items
	// are retained for audit rather than discarded.
	ValidationInvalid ValidationStatus = "invalid"

	// ValidationPending indicates the item has not been validated yet.
	ValidationPending ValidationStatus = "pending"
)

// IsValid checks if a validation status is a known value.
func (v ValidationStatus) IsValid() bool {
	switch v {
	case ValidationValid, ValidationInvalid, ValidationPending:
		return true
	}
	return false
}

// NodeType classifies knowledge graph nodes.
type NodeType string

const (
	// NodeControl is a catalog control node.
	NodeControl NodeType = "control"

	// NodeStandard is a repository standard node.
	NodeStandard NodeType = "standard"

	// NodeImplementation is a detected implementation pattern node.
	NodeImplementation NodeType = "implementation"

	// NodeEvidence is an evidence item node.
	NodeEvidence NodeType = "evidence"
)

// IsValid checks if a node type is a known value.
func (n NodeType) IsValid() bool {
	switch n {
	case NodeControl, NodeStandard, NodeImplementation, NodeEvidence:
		return true
	}
	return false
}

// EdgeType classifies directional knowledge graph relationships.
type EdgeType string

const (
	// EdgeImplements links a standard or implementation to the control it
	// implements.
	EdgeImplements EdgeType = "implements"

	// EdgeSupports links a node to one it reinforces. Standards may
	// mutually support one another; no cycle constraint is enforced.
	EdgeSupports EdgeType = "supports"

	// EdgeRequires links a node to a prerequisite.
	EdgeRequires EdgeType = "requires"

	// EdgeConflicts links nodes with contradictory requirements.
	EdgeConflicts EdgeType = "conflicts"
)

// IsValid checks if an edge type is a known value.
func (e EdgeType) IsValid() bool {
	switch e {
	case EdgeImplements, EdgeSupports, EdgeRequires, EdgeConflicts:
		return true
	}
	return false
}

// GapEffort estimates remediation effort for a compliance gap.
type GapEffort string

const (
	// EffortLow is remediation achievable within a single change.
	EffortLow GapEffort = "low"

	// EffortMedium is remediation requiring coordinated changes.
	EffortMedium GapEffort = "medium"

	// EffortHigh is remediation requiring new infrastructure or process.
	EffortHigh GapEffort = "high"
)

// GapPriority ranks compliance gaps for remediation ordering.
type GapPriority string

const (
	// PriorityCritical gaps block any credible compliance claim.
	PriorityCritical GapPriority = "critical"

	// PriorityHigh gaps affect mandatory requirements.
	PriorityHigh GapPriority = "high"

	// PriorityMedium gaps affect supporting requirements.
	PriorityMedium GapPriority = "medium"

	// PriorityLow gaps are advisory.
	PriorityLow GapPriority = "low"
)

// Domain is a security domain assigned by the semantic tagger.
type Domain string

const (
	// DomainAuthentication covers credential handling and identity proofing.
	DomainAuthentication Domain = "authentication"

	// DomainAuthorization covers access decisions and privilege management.
	DomainAuthorization Domain = "authorization"

	// DomainCryptography covers encryption, hashing, and key management.
	DomainCryptography Domain = "cryptography"

	// DomainAuditLogging covers security event capture and retention.
	DomainAuditLogging Domain = "audit-logging"

	// DomainInputValidation covers sanitization and injection defenses.
	DomainInputValidation Domain = "input-validation"

	// DomainConfiguration covers secure settings and hardening.
	DomainConfiguration Domain = "configuration"

	// DomainDataProtection covers data at rest and in transit.
	DomainDataProtection Domain = "data-protection"
)

// IsValid checks if a domain is a known value.
func (d Domain) IsValid() bool {
	switch d {
	case DomainAuthentication, DomainAuthorization, DomainCryptography,
		DomainAuditLogging, DomainInputValidation, DomainConfiguration,
		DomainDataProtection:
		return true
	}
	return false
}

// String returns the string representation of the domain.
func (d Domain) String() string {
	return string(d)
}

// ParseDomain converts a string to a Domain, returning empty for
// invalid values.
func ParseDomain(s string) Domain {
	d := Domain(s)
	if d.IsValid() {
		return d
	}
	return ""
}
