// Package model provides capability-based model selection for the
// model-backed classifier. Callers specify capabilities (classification,
// summarization, fast) instead of model names; the registry resolves a
// capability to available models with fallback chains and tracks
// endpoint health so failing endpoints are skipped.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityClassification is for mapping artifact content to
	// security domains and control families.
	CapabilityClassification Capability = "classification"

	// CapabilitySummarization is for condensing long artifacts before
	// classification.
	CapabilitySummarization Capability = "summarization"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityClassification, CapabilitySummarization, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
