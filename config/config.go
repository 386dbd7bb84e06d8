// Package config provides configuration loading and management for complymap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete complymap configuration.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Scan       ScanConfig       `yaml:"scan"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Output     OutputConfig     `yaml:"output"`
	System     SystemConfig     `yaml:"system"`
	Workers    int              `yaml:"workers"`
}

// SystemConfig describes the documented system for SSP generation.
type SystemConfig struct {
	// Name is the system name recorded in generated documents.
	Name string `yaml:"name"`
	// Description is a short system description.
	Description string `yaml:"description"`
	// Version is the document version stamped into metadata.
	Version string `yaml:"version"`
	// State is the operational state (default "operational").
	State string `yaml:"state"`
	// ProfileHref names the imported control profile in the SSP.
	ProfileHref string `yaml:"profile_href"`
}

// CatalogConfig locates the control catalog and baseline membership.
type CatalogConfig struct {
	// Path is the NIST 800-53r5 OSCAL catalog JSON file.
	Path string `yaml:"path"`
	// Baselines maps impact levels to control id lists. Empty means the
	// full catalog is assessed for every baseline.
	Baselines BaselineLists `yaml:"baselines"`
}

// BaselineLists holds per-impact-level control id lists.
type BaselineLists struct {
	Low      []string `yaml:"low"`
	Moderate []string `yaml:"moderate"`
	High     []string `yaml:"high"`
}

// ScanConfig controls repository traversal.
type ScanConfig struct {
	// Root is the repository root to scan (default: current directory).
	Root string `yaml:"root"`
	// Include lists doublestar glob patterns for paths to scan.
	Include []string `yaml:"include"`
	// Exclude lists doublestar glob patterns for paths to skip.
	Exclude []string `yaml:"exclude"`
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// ClassifierConfig selects and tunes the semantic classifier backend.
type ClassifierConfig struct {
	// Backend is "rules" (deterministic, default) or "model".
	Backend string `yaml:"backend"`
	// RulesPath is the mapping-rules document (keyword/pattern → domain →
	// control-family associations). Empty uses the built-in rules.
	RulesPath string `yaml:"rules_path"`
	// ModelsPath is the model registry JSON for the model backend.
	// Empty uses built-in registry defaults.
	ModelsPath string `yaml:"models_path"`
	// ModelTimeout bounds a single model-backend classification call.
	// On timeout the pipeline falls back to the rules backend.
	ModelTimeout time.Duration `yaml:"model_timeout"`
	// MinConfidence drops tags below this confidence.
	MinConfidence float64 `yaml:"min_confidence"`
}

// KnowledgeConfig locates knowledge graph persistence.
type KnowledgeConfig struct {
	// Path is the knowledge-graph persistence file, read at startup and
	// rewritten at shutdown.
	Path string `yaml:"path"`
}

// AssessmentConfig tunes compliance status determination.
type AssessmentConfig struct {
	// CoverageThreshold is the minimum implementation coverage for a
	// control to be assessed as implemented.
	CoverageThreshold float64 `yaml:"coverage_threshold"`
	// MinRelevance is the minimum mapping relevance score for a mapping
	// to count toward assessment.
	MinRelevance float64 `yaml:"min_relevance"`
	// NotApplicable lists control ids explicitly marked not-applicable.
	// Not-applicable status is never inferred.
	NotApplicable []string `yaml:"not_applicable"`
}

// OutputConfig controls document emission.
type OutputConfig struct {
	// Dir is the directory for generated OSCAL documents.
	Dir string `yaml:"dir"`
	// Strict promotes run warnings to a non-zero exit code.
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "catalog/nist-800-53r5.json",
		},
		Scan: ScanConfig{
			Root: "",
			Include: []string{
				"**/*.md",
				"**/*.go",
				"**/*.py",
				"**/*.js",
				"**/*.ts",
				"**/*.yaml",
				"**/*.yml",
				"**/*.json",
				"**/*.tf",
				"**/*.html",
			},
			Exclude: []string{
				"**/node_modules/**",
				"**/vendor/**",
				"**/.git/**",
				"**/dist/**",
			},
			MaxFileSize: 2 << 20, // 2MB
		},
		Classifier: ClassifierConfig{
			Backend:       "rules",
			ModelTimeout:  30 * time.Second,
			MinConfidence: 0.2,
		},
		Knowledge: KnowledgeConfig{
			Path: ".complymap/knowledge.json",
		},
		Assessment: AssessmentConfig{
			CoverageThreshold: 0.8,
			MinRelevance:      0.5,
		},
		Output: OutputConfig{
			Dir: "oscal-output",
		},
		System: SystemConfig{
			Name:        "repository",
			Description: "Scanned repository",
			Version:     "1.0.0",
			State:       "operational",
			ProfileHref: "https://raw.githubusercontent.com/usnistgov/oscal-content/main/nist.gov/SP800-53/rev5/json/NIST_SP-800-53_rev5_catalog.json",
		},
		Workers: 0, // 0 = runtime.NumCPU()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	switch c.Classifier.Backend {
	case "rules", "model":
	default:
		return fmt.Errorf("classifier.backend must be \"rules\" or \"model\", got %q", c.Classifier.Backend)
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.min_confidence must be between 0 and 1")
	}
	if c.Assessment.CoverageThreshold < 0 || c.Assessment.CoverageThreshold > 1 {
		return fmt.Errorf("assessment.coverage_threshold must be between 0 and 1")
	}
	if c.Assessment.MinRelevance < 0 || c.Assessment.MinRelevance > 1 {
		return fmt.Errorf("assessment.min_relevance must be between 0 and 1")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}
	if len(other.Catalog.Baselines.Low) > 0 {
		c.Catalog.Baselines.Low = other.Catalog.Baselines.Low
	}
	if len(other.Catalog.Baselines.Moderate) > 0 {
		c.Catalog.Baselines.Moderate = other.Catalog.Baselines.Moderate
	}
	if len(other.Catalog.Baselines.High) > 0 {
		c.Catalog.Baselines.High = other.Catalog.Baselines.High
	}

	if other.Scan.Root != "" {
		c.Scan.Root = other.Scan.Root
	}
	if len(other.Scan.Include) > 0 {
		c.Scan.Include = other.Scan.Include
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}
	if other.Scan.MaxFileSize != 0 {
		c.Scan.MaxFileSize = other.Scan.MaxFileSize
	}

	if other.Classifier.Backend != "" {
		c.Classifier.Backend = other.Classifier.Backend
	}
	if other.Classifier.RulesPath != "" {
		c.Classifier.RulesPath = other.Classifier.RulesPath
	}
	if other.Classifier.ModelTimeout != 0 {
		c.Classifier.ModelTimeout = other.Classifier.ModelTimeout
	}
	if other.Classifier.MinConfidence != 0 {
		c.Classifier.MinConfidence = other.Classifier.MinConfidence
	}

	if other.Knowledge.Path != "" {
		c.Knowledge.Path = other.Knowledge.Path
	}

	if other.Assessment.CoverageThreshold != 0 {
		c.Assessment.CoverageThreshold = other.Assessment.CoverageThreshold
	}
	if other.Assessment.MinRelevance != 0 {
		c.Assessment.MinRelevance = other.Assessment.MinRelevance
	}
	if len(other.Assessment.NotApplicable) > 0 {
		c.Assessment.NotApplicable = other.Assessment.NotApplicable
	}

	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.Strict {
		c.Output.Strict = true
	}

	if other.System.Name != "" {
		c.System.Name = other.System.Name
	}
	if other.System.Description != "" {
		c.System.Description = other.System.Description
	}
	if other.System.Version != "" {
		c.System.Version = other.System.Version
	}
	if other.System.State != "" {
		c.System.State = other.System.State
	}
	if other.System.ProfileHref != "" {
		c.System.ProfileHref = other.System.ProfileHref
	}

	if other.Workers != 0 {
		c.Workers = other.Workers
	}
}
