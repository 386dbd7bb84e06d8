package oscal

import "github.com/google/uuid"

// documentNamespace seeds all content-derived UUIDs so identical inputs
// always reproduce identical identifiers.
var documentNamespace = uuid.MustParse("c41f1d22-6f0a-4c61-8f0e-5b9d3a7e2c18")

// deterministicUUID derives a UUIDv5 from the given name parts.
func deterministicUUID(parts ...string) string {
	name := ""
	for i, p := range parts {
		if i > 0 {
			name += "|"
		}
		name += p
	}
	return uuid.NewSHA1(documentNamespace, []byte(name)).String()
}

// EvidenceResourceUUID is the back-matter resource identifier for one
// piece of evidence attached to one control.
func EvidenceResourceUUID(controlID, evidenceID string) string {
	return deterministicUUID("resource", controlID, evidenceID)
}
