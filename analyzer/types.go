// Package analyzer detects security-relevant implementation patterns in
// repository artifacts. Detection is declarative: a pattern table keyed
// by language describes what to look for, so supporting a new language or
// framework is a data change, not a logic change.
//
// The analyzer makes no false-negative guarantee; false positives are
// tolerated and resolved downstream by confidence scoring.
package analyzer

import (
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// ValidationMethod describes how a detected pattern can be verified.
type ValidationMethod string

const (
	// ValidationStaticAnalysis verifies via source inspection.
	ValidationStaticAnalysis ValidationMethod = "static-analysis"

	// ValidationRuntimeCheck verifies via runtime behavior.
	ValidationRuntimeCheck ValidationMethod = "runtime-check"

	// ValidationConfigurationScan verifies via configuration inspection.
	ValidationConfigurationScan ValidationMethod = "configuration-scan"
)

// IsValid checks if a validation method is a known value.
func (v ValidationMethod) IsValid() bool {
	switch v {
	case ValidationStaticAnalysis, ValidationRuntimeCheck, ValidationConfigurationScan:
		return true
	}
	return false
}

// ImplementationPattern is one detected security-relevant pattern in an
// artifact.
type ImplementationPattern struct {
	// Name identifies the pattern, e.g. "password-hashing".
	Name string `json:"name"`

	// Domain is the security domain the pattern belongs to.
	Domain vocab.Domain `json:"domain"`

	// Language is the detecting language or "text" for content matches.
	Language string `json:"language"`

	// Method is how this pattern should be validated.
	Method ValidationMethod `json:"validation_method"`

	// Location is the artifact path the pattern was found in.
	Location string `json:"location"`

	// Matched records what triggered the detection (import path, call
	// name, or keyword).
	Matched string `json:"matched"`

	// Confidence is the detection confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Facts are the language-neutral extraction results a recognizer
// produces from one source file.
type Facts struct {
	// Imports are imported module/package paths.
	Imports []string

	// Calls are called function/method names, including selector paths
	// like "bcrypt.CompareHashAndPassword".
	Calls []string
}
