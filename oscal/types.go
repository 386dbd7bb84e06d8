// Package oscal assembles, validates, and serializes OSCAL System
// Security Plan and Assessment Results documents. Generation is a pure
// transform of assessed statuses plus system characteristics; every
// identifier is derived deterministically from document content, so
// regeneration from unchanged inputs is byte-identical apart from the
// last-modified timestamp.
package oscal

import (
	"time"
)

// oscalVersion is the OSCAL model version the documents declare.
const oscalVersion = "1.1.2"

// Metadata is the common document metadata block.
type Metadata struct {
	Title        string    `json:"title"`
	LastModified time.Time `json:"last-modified"`
	Version      string    `json:"version"`
	OSCALVersion string    `json:"oscal-version"`
}

// Property is an OSCAL name/value annotation.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Link references another part of the document or an external resource.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel,omitempty"`
	Text string `json:"text,omitempty"`
}

// Resource is a back-matter entry referenced by evidence links.
type Resource struct {
	UUID        string     `json:"uuid"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Props       []Property `json:"props,omitempty"`
}

// BackMatter holds a document's resources.
type BackMatter struct {
	Resources []Resource `json:"resources"`
}

// SystemID identifies the documented system.
type SystemID struct {
	IdentifierType string `json:"identifier-type,omitempty"`
	ID             string `json:"id"`
}

// SystemStatus is the operational state of the system.
type SystemStatus struct {
	State string `json:"state"`
}

// SystemCharacteristics is the externally supplied description of the
// system an SSP documents.
type SystemCharacteristics struct {
	SystemIDs                []SystemID   `json:"system-ids"`
	SystemName               string       `json:"system-name"`
	Description              string       `json:"description"`
	SecuritySensitivityLevel string       `json:"security-sensitivity-level"`
	Status                   SystemStatus `json:"status"`
}

// ImportProfile names the control baseline the SSP responds to.
type ImportProfile struct {
	Href string `json:"href"`
}

// ImplementedRequirement is one control's implementation entry in the
// SSP. Exactly one per assessed control.
type ImplementedRequirement struct {
	UUID      string     `json:"uuid"`
	ControlID string     `json:"control-id"`
	Props     []Property `json:"props,omitempty"`
	Links     []Link     `json:"links,omitempty"`
	Remarks   string     `json:"remarks,omitempty"`
}

// ControlImplementation collects the SSP's implemented requirements.
type ControlImplementation struct {
	Description             string                   `json:"description"`
	ImplementedRequirements []ImplementedRequirement `json:"implemented-requirements"`
}

// SystemSecurityPlan is the root SSP model.
type SystemSecurityPlan struct {
	UUID                  string                `json:"uuid"`
	Metadata              Metadata              `json:"metadata"`
	ImportProfile         ImportProfile         `json:"import-profile"`
	SystemCharacteristics SystemCharacteristics `json:"system-characteristics"`
	ControlImplementation ControlImplementation `json:"control-implementation"`
	BackMatter            *BackMatter           `json:"back-matter,omitempty"`
}

// SSPDocument is the on-disk SSP envelope.
type SSPDocument struct {
	SystemSecurityPlan SystemSecurityPlan `json:"system-security-plan"`
}

// ActorType is the closed set of origin actor kinds.
type ActorType string

const (
	ActorTool               ActorType = "tool"
	ActorAssessmentPlatform ActorType = "assessment-platform"
	ActorParty              ActorType = "party"
)

// IsValid checks if an actor type is a known value.
func (a ActorType) IsValid() bool {
	switch a {
	case ActorTool, ActorAssessmentPlatform, ActorParty:
		return true
	}
	return false
}

// OriginActor is a tagged variant: Type selects the actor kind,
// ActorUUID identifies it.
type OriginActor struct {
	Type      ActorType `json:"type"`
	ActorUUID string    `json:"actor-uuid"`
}

// Origin records who produced a finding.
type Origin struct {
	Actors []OriginActor `json:"actors"`
}

// TargetType is the closed set of finding target kinds.
type TargetType string

const (
	TargetStatementID TargetType = "statement-id"
	TargetObjectiveID TargetType = "objective-id"
)

// IsValid checks if a target type is a known value.
func (t TargetType) IsValid() bool {
	switch t {
	case TargetStatementID, TargetObjectiveID:
		return true
	}
	return false
}

// TargetStatus is the finding target's satisfaction state.
type TargetStatus struct {
	State string `json:"state"`
}

// FindingTarget is a tagged variant: Type selects whether TargetID
// names a statement or an objective.
type FindingTarget struct {
	Type     TargetType   `json:"type"`
	TargetID string       `json:"target-id"`
	Status   TargetStatus `json:"status"`
}

// Finding is one control's assessment outcome.
type Finding struct {
	UUID        string        `json:"uuid"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Origins     []Origin      `json:"origins,omitempty"`
	Target      FindingTarget `json:"target"`
	Links       []Link        `json:"links,omitempty"`
}

// Result is one assessment run's results block.
type Result struct {
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	Findings    []Finding `json:"findings"`
}

// AssessmentResults is the root assessment-results model.
type AssessmentResults struct {
	UUID       string      `json:"uuid"`
	Metadata   Metadata    `json:"metadata"`
	Results    []Result    `json:"results"`
	BackMatter *BackMatter `json:"back-matter,omitempty"`
}

// AssessmentResultsDocument is the on-disk envelope.
type AssessmentResultsDocument struct {
	AssessmentResults AssessmentResults `json:"assessment-results"`
}
