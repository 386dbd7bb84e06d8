package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/complymap/complymap/analyzer"
	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/llm"
	"github.com/complymap/complymap/scanner"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// classifySystemPrompt instructs the model to return a strict JSON
// classification.
const classifySystemPrompt = `You classify software artifacts into security domains for compliance mapping.

Respond with ONLY a JSON object:
{
  "domains": ["authentication" | "authorization" | "cryptography" | "audit-logging" | "input-validation" | "configuration" | "data-protection"],
  "technologies": ["..."],
  "keywords": ["..."],
  "confidence": 0.0
}

Only include domains the artifact demonstrably addresses. confidence is your overall certainty in [0,1].`

// maxArtifactChars bounds how much artifact content is sent per call.
const maxArtifactChars = 12000

// ModelClassifier is the model-backed backend. Every call carries an
// explicit timeout; on timeout or any model failure it degrades to the
// deterministic rules backend so the pipeline never blocks on the
// network.
type ModelClassifier struct {
	client     llm.Completer
	fallback   *RulesClassifier
	timeout    time.Duration
	minConf    float64
	logger     *slog.Logger
	onFallback func(error)
}

// OnFallback registers an observer invoked with the recovered model
// error each time classification degrades to the rules backend. Used to
// count classifier timeouts in the run summary.
func (c *ModelClassifier) OnFallback(fn func(error)) {
	c.onFallback = fn
}

// NewModelClassifier creates the model-backed classifier with the given
// deterministic fallback.
func NewModelClassifier(client llm.Completer, fallback *RulesClassifier, cfg config.ClassifierConfig, logger *slog.Logger) *ModelClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ModelTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ModelClassifier{
		client:   client,
		fallback: fallback,
		timeout:  timeout,
		minConf:  cfg.MinConfidence,
		logger:   logger,
	}
}

// modelClassification is the JSON shape the model is asked to produce.
type modelClassification struct {
	Domains      []string `json:"domains"`
	Technologies []string `json:"technologies"`
	Keywords     []string `json:"keywords"`
	Confidence   float64  `json:"confidence"`
}

// Classify asks the model and falls back to the rules backend on any
// failure. The fallback path is total: callers never see a model error
// other than through the run summary's recovered-error counts.
func (c *ModelClassifier) Classify(ctx context.Context, std *scanner.RepositoryStandard, patterns []analyzer.ImplementationPattern) (*SemanticAnalysisResult, error) {
	result, err := c.classifyWithModel(ctx, std, patterns)
	if err == nil {
		return result, nil
	}

	if c.onFallback != nil {
		c.onFallback(err)
	}
	if IsClassifierTimeout(err) {
		c.logger.Warn("Model classifier timed out, using rules backend",
			"path", std.Path,
			"timeout", c.timeout)
	} else {
		c.logger.Warn("Model classifier failed, using rules backend",
			"path", std.Path,
			"error", err)
	}

	return c.fallback.Classify(ctx, std, patterns)
}

func (c *ModelClassifier) classifyWithModel(ctx context.Context, std *scanner.RepositoryStandard, patterns []analyzer.ImplementationPattern) (*SemanticAnalysisResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Complete(callCtx, llm.Request{
		Capability: "classification",
		Messages: []llm.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: c.buildPrompt(std, patterns)},
		},
		Temperature: floatPtr(0),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &ClassifierTimeoutError{
				Backend: "model",
				Timeout: c.timeout,
				Err:     err,
			}
		}
		return nil, err
	}

	raw := llm.ExtractJSON(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var parsed modelClassification
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse model classification: %w", err)
	}

	return c.resultFromModel(std.Path, parsed, patterns)
}

// buildPrompt renders the artifact and analyzer findings for the model.
func (c *ModelClassifier) buildPrompt(std *scanner.RepositoryStandard, patterns []analyzer.ImplementationPattern) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\nArtifact type: %s\n", std.Path, std.Type)

	if len(patterns) > 0 {
		b.WriteString("Static analysis findings:\n")
		for _, p := range patterns {
			fmt.Fprintf(&b, "- %s (%s, matched %q)\n", p.Name, p.Domain, p.Matched)
		}
	}

	content := std.Content
	if len(content) > maxArtifactChars {
		content = content[:maxArtifactChars]
	}
	b.WriteString("\nContent:\n")
	b.WriteString(content)
	return b.String()
}

// resultFromModel validates the model's answer against the closed
// domain vocabulary and assembles the result. Unknown domains are
// dropped; an answer with no usable domain is a MappingError.
func (c *ModelClassifier) resultFromModel(path string, parsed modelClassification, patterns []analyzer.ImplementationPattern) (*SemanticAnalysisResult, error) {
	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	var tags []SemanticTag
	var domains []vocab.Domain
	seen := make(map[vocab.Domain]struct{})
	for _, name := range parsed.Domains {
		domain := vocab.ParseDomain(name)
		if domain == "" {
			c.logger.Debug("Dropping unknown domain from model answer",
				"path", path,
				"domain", name)
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		if confidence < c.minConf {
			continue
		}
		domains = append(domains, domain)
		tags = append(tags, SemanticTag{
			Type:       "security-domain",
			Domain:     domain,
			Keywords:   dedupeSorted(parsed.Keywords),
			Confidence: confidence,
			Source:     SourceModel,
		})
	}

	if len(tags) == 0 {
		return nil, &MappingError{
			Path:   path,
			Reason: "model answer contained no usable domain",
		}
	}

	var requirements []EvidenceRequirement
	for _, domain := range domains {
		requirements = append(requirements, c.fallback.Rules().RequirementsFor(domain)...)
	}

	return &SemanticAnalysisResult{
		Path:                   path,
		Domains:                domains,
		Technologies:           dedupeSorted(parsed.Technologies),
		ImplementationPatterns: patterns,
		EvidenceRequirements:   requirements,
		Keywords:               dedupeSorted(parsed.Keywords),
		Tags:                   tags,
		Confidence:             confidence,
	}, nil
}

func floatPtr(f float64) *float64 {
	return &f
}
