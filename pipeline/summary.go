package pipeline

import (
	"sort"
	"sync"

	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/evidence"
	"github.com/complymap/complymap/oscal"
	"github.com/complymap/complymap/scanner"
	"github.com/complymap/complymap/semantic"
)

// Recovered-error kinds aggregated in the run summary.
const (
	KindScan               = "scan"
	KindMapping            = "mapping"
	KindConfig             = "config"
	KindEvidenceValidation = "evidence-validation"
	KindClassifierTimeout  = "classifier-timeout"
	KindSchemaValidation   = "schema-validation"
	KindInternal           = "internal"
)

// Summary aggregates what a run touched and every error it recovered
// from, counted by kind. Safe for concurrent recording from pipeline
// workers.
type Summary struct {
	mu sync.Mutex

	FilesScanned     int
	MappingsCreated  int
	EvidenceItems    int
	ControlsAssessed int

	errors   map[string]int
	warnings []string
}

// NewSummary creates an empty run summary.
func NewSummary() *Summary {
	return &Summary{errors: make(map[string]int)}
}

// Record classifies a recovered error and bumps its kind's count.
func (s *Summary) Record(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[errorKind(err)]++
}

// Warn records a non-fatal run warning.
func (s *Summary) Warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

// ErrorCount returns the recovered-error count for one kind.
func (s *Summary) ErrorCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[kind]
}

// Errors returns a copy of the per-kind recovered-error counts.
func (s *Summary) Errors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Warnings returns the recorded warnings in a stable order.
func (s *Summary) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	sort.Strings(out)
	return out
}

// HasWarnings reports whether any warning or recovered error was
// recorded; with --strict this turns the exit code non-zero.
func (s *Summary) HasWarnings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.warnings) > 0 || len(s.errors) > 0
}

func errorKind(err error) string {
	switch {
	case scanner.IsScanError(err):
		return KindScan
	case semantic.IsClassifierTimeout(err):
		return KindClassifierTimeout
	case semantic.IsMappingError(err):
		return KindMapping
	case config.IsConfigError(err):
		return KindConfig
	case evidence.IsValidationError(err):
		return KindEvidenceValidation
	case oscal.IsSchemaValidationError(err):
		return KindSchemaValidation
	}
	return KindInternal
}
