package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/complymap/complymap/analyzer"
	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/scanner"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// Rule associates keyword and technology markers with one security
// domain, the control families that domain maps to, and the evidence
// its mappings require.
type Rule struct {
	Domain          vocab.Domain          `yaml:"domain"`
	Keywords        []string              `yaml:"keywords"`
	Technologies    []string              `yaml:"technologies"`
	ControlFamilies []string              `yaml:"control_families"`
	Controls        []string              `yaml:"controls"`
	Evidence        []EvidenceRequirement `yaml:"evidence"`
}

// RuleSet is the mapping-rules document driving the deterministic
// classifier backend.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// FamiliesFor returns the control families associated with a domain.
func (rs *RuleSet) FamiliesFor(domain vocab.Domain) []string {
	for _, rule := range rs.Rules {
		if rule.Domain == domain {
			return rule.ControlFamilies
		}
	}
	return nil
}

// ControlsFor returns the control identifiers a domain maps onto.
func (rs *RuleSet) ControlsFor(domain vocab.Domain) []string {
	for _, rule := range rs.Rules {
		if rule.Domain == domain {
			return rule.Controls
		}
	}
	return nil
}

// RequirementsFor returns the evidence requirements of a domain.
func (rs *RuleSet) RequirementsFor(domain vocab.Domain) []EvidenceRequirement {
	for _, rule := range rs.Rules {
		if rule.Domain == domain {
			return rule.Evidence
		}
	}
	return nil
}

// LoadRuleSet reads a mapping-rules YAML document. Entries with an
// unknown domain or no keywords are excluded with a per-entry
// ConfigError logged by the caller; a document yielding zero usable
// rules is an error.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var loaded RuleSet
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, &config.ConfigError{
			Source: path,
			Reason: "malformed mapping-rules document",
			Err:    err,
		}
	}

	kept := make([]Rule, 0, len(loaded.Rules))
	for i, rule := range loaded.Rules {
		if !rule.Domain.IsValid() {
			slog.Warn("Excluding mapping rule with unknown domain",
				"source", path,
				"entry", i,
				"domain", rule.Domain)
			continue
		}
		if len(rule.Keywords) == 0 {
			slog.Warn("Excluding mapping rule with no keywords",
				"source", path,
				"entry", i,
				"domain", rule.Domain)
			continue
		}
		kept = append(kept, rule)
	}

	if len(kept) == 0 {
		return nil, &config.ConfigError{
			Source: path,
			Reason: "no usable mapping rules",
		}
	}

	return &RuleSet{Rules: kept}, nil
}

// DefaultRuleSet returns the built-in mapping rules used when no
// rules document is configured.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{Rules: []Rule{
		{
			Domain:          vocab.DomainAuthentication,
			Keywords:        []string{"password", "credential", "login", "mfa", "multi-factor", "authentication", "identity proofing"},
			Technologies:    []string{"bcrypt", "argon2", "scrypt", "oauth", "oidc", "saml"},
			ControlFamilies: []string{"ia"},
			Controls:        []string{"ia-2", "ia-5"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainAuthentication,
					Type:        vocab.EvidenceCode,
					Description: "password verification using an adaptive hashing algorithm",
					Mandatory:   true,
					Criteria:    []string{"bcrypt|argon2|scrypt"},
				},
				{
					Domain:      vocab.DomainAuditLogging,
					Type:        vocab.EvidenceCode,
					Description: "authentication events emitted to the audit log",
					Mandatory:   true,
					Criteria:    []string{"audit|slog|logger"},
				},
				{
					Domain:      vocab.DomainAuthentication,
					Type:        vocab.EvidenceDocumentation,
					Description: "credential management policy",
					Mandatory:   false,
					Criteria:    []string{"credential|password policy"},
				},
			},
		},
		{
			Domain:          vocab.DomainAuthorization,
			Keywords:        []string{"authorization", "access control", "rbac", "role-based", "least privilege", "permission"},
			Technologies:    []string{"casbin", "opa"},
			ControlFamilies: []string{"ac"},
			Controls:        []string{"ac-3", "ac-6"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainAuthorization,
					Type:        vocab.EvidenceCode,
					Description: "access decisions enforced before protected operations",
					Mandatory:   true,
					Criteria:    []string{"enforce|role|permission"},
				},
			},
		},
		{
			Domain:          vocab.DomainCryptography,
			Keywords:        []string{"encryption", "encrypt", "cipher", "aes", "key management", "hashing", "nonce", "initialization vector"},
			Technologies:    []string{"aes-256", "gcm", "rsa", "kms"},
			ControlFamilies: []string{"sc"},
			Controls:        []string{"sc-13", "sc-28"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainCryptography,
					Type:        vocab.EvidenceCode,
					Description: "encryption-library import with IV/nonce generation",
					Mandatory:   true,
					Criteria:    []string{"aes|gcm|cipher", "nonce|iv|rand"},
				},
			},
		},
		{
			Domain:          vocab.DomainAuditLogging,
			Keywords:        []string{"audit log", "audit trail", "security event", "log retention", "logging"},
			Technologies:    []string{"slog", "zap", "winston", "syslog"},
			ControlFamilies: []string{"au"},
			Controls:        []string{"au-2", "au-3"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainAuditLogging,
					Type:        vocab.EvidenceCode,
					Description: "security-relevant events emitted through a structured logger",
					Mandatory:   true,
					Criteria:    []string{"slog|logger|audit"},
				},
			},
		},
		{
			Domain:          vocab.DomainInputValidation,
			Keywords:        []string{"input validation", "sanitize", "injection", "allowlist", "parameterized"},
			Technologies:    []string{"validator", "pydantic", "joi", "zod"},
			ControlFamilies: []string{"si"},
			Controls:        []string{"si-10"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainInputValidation,
					Type:        vocab.EvidenceCode,
					Description: "external input validated or sanitized before use",
					Mandatory:   true,
					Criteria:    []string{"validate|sanitize|schema"},
				},
			},
		},
		{
			Domain:          vocab.DomainConfiguration,
			Keywords:        []string{"secret management", "vault", "hardening", "secure baseline", "key rotation"},
			Technologies:    []string{"vault", "secretsmanager", "sops"},
			ControlFamilies: []string{"cm"},
			Controls:        []string{"cm-6"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainConfiguration,
					Type:        vocab.EvidenceConfiguration,
					Description: "secrets sourced from a managed secret store",
					Mandatory:   true,
					Criteria:    []string{"vault|secret"},
				},
			},
		},
		{
			Domain:          vocab.DomainDataProtection,
			Keywords:        []string{"tls", "https", "data in transit", "data at rest", "certificate"},
			Technologies:    []string{"tls1.2", "tls1.3", "letsencrypt"},
			ControlFamilies: []string{"sc"},
			Controls:        []string{"sc-8"},
			Evidence: []EvidenceRequirement{
				{
					Domain:      vocab.DomainDataProtection,
					Type:        vocab.EvidenceConfiguration,
					Description: "transport security configured with modern TLS",
					Mandatory:   true,
					Criteria:    []string{"tls"},
				},
			},
		},
	}}
}

// RulesClassifier is the deterministic backend: keyword and analyzer
// matches against the rule set, no network, fully reproducible.
type RulesClassifier struct {
	rules         *RuleSet
	minConfidence float64
	logger        *slog.Logger
}

// NewRulesClassifier creates the deterministic classifier backend.
func NewRulesClassifier(rules *RuleSet, minConfidence float64, logger *slog.Logger) *RulesClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesClassifier{
		rules:         rules,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Rules returns the classifier's rule set.
func (c *RulesClassifier) Rules() *RuleSet {
	return c.rules
}

// domainMatch accumulates evidence for one domain during
// classification.
type domainMatch struct {
	domain      vocab.Domain
	keywords    []string
	specificity int // longest triggering marker
	hits        int
	patternConf float64
	source      TagSource
}

// Classify matches the rule set and analyzer output against one
// artifact. Returns a MappingError when nothing matches.
func (c *RulesClassifier) Classify(_ context.Context, std *scanner.RepositoryStandard, patterns []analyzer.ImplementationPattern) (*SemanticAnalysisResult, error) {
	lowered := strings.ToLower(std.Content)
	matches := make(map[vocab.Domain]*domainMatch)
	var technologies []string

	for _, rule := range c.rules.Rules {
		for _, keyword := range rule.Keywords {
			if !strings.Contains(lowered, strings.ToLower(keyword)) {
				continue
			}
			m := getMatch(matches, rule.Domain)
			m.keywords = append(m.keywords, keyword)
			m.hits++
			if len(keyword) > m.specificity {
				m.specificity = len(keyword)
			}
		}
		for _, tech := range rule.Technologies {
			if strings.Contains(lowered, strings.ToLower(tech)) {
				technologies = append(technologies, tech)
				m := getMatch(matches, rule.Domain)
				m.keywords = append(m.keywords, tech)
				m.hits++
				if len(tech) > m.specificity {
					m.specificity = len(tech)
				}
			}
		}
	}

	// Analyzer matches carry their own confidence and outrank keyword
	// hits in the same domain.
	for _, p := range patterns {
		m := getMatch(matches, p.Domain)
		m.keywords = append(m.keywords, p.Matched)
		m.hits++
		if len(p.Matched) > m.specificity {
			m.specificity = len(p.Matched)
		}
		if p.Confidence > m.patternConf {
			m.patternConf = p.Confidence
		}
		m.source = SourceAnalyzer
		technologies = append(technologies, p.Matched)
	}

	if len(matches) == 0 {
		return nil, &MappingError{
			Path:   std.Path,
			Reason: "no domain keywords or implementation patterns matched",
		}
	}

	result := c.buildResult(std.Path, matches, technologies, patterns)
	if len(result.Tags) == 0 {
		return nil, &MappingError{
			Path:   std.Path,
			Reason: fmt.Sprintf("all matches below minimum confidence %.2f", c.minConfidence),
		}
	}
	return result, nil
}

func getMatch(matches map[vocab.Domain]*domainMatch, domain vocab.Domain) *domainMatch {
	if m, ok := matches[domain]; ok {
		return m
	}
	m := &domainMatch{domain: domain, source: SourceRules}
	matches[domain] = m
	return m
}

// buildResult turns accumulated domain matches into a scored, stably
// ordered result.
func (c *RulesClassifier) buildResult(path string, matches map[vocab.Domain]*domainMatch, technologies []string, patterns []analyzer.ImplementationPattern) *SemanticAnalysisResult {
	tags := make([]SemanticTag, 0, len(matches))
	for _, m := range matches {
		confidence := 0.4 + 0.15*float64(m.hits-1)
		if confidence > 1 {
			confidence = 1
		}
		if m.patternConf > confidence {
			confidence = m.patternConf
		}
		if confidence < c.minConfidence {
			continue
		}
		tags = append(tags, SemanticTag{
			Type:        "security-domain",
			Domain:      m.domain,
			Keywords:    dedupeSorted(m.keywords),
			Confidence:  confidence,
			Source:      m.source,
			specificity: m.specificity,
		})
	}

	// Strongest tag first: higher specificity wins (longer keyword
	// match), then higher confidence, then domain name for stability.
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].specificity != tags[j].specificity {
			return tags[i].specificity > tags[j].specificity
		}
		if tags[i].Confidence != tags[j].Confidence {
			return tags[i].Confidence > tags[j].Confidence
		}
		return tags[i].Domain < tags[j].Domain
	})

	domains := make([]vocab.Domain, 0, len(tags))
	var keywords []string
	var requirements []EvidenceRequirement
	seenReq := make(map[string]struct{})
	var weightedSum, weightTotal float64

	for _, tag := range tags {
		domains = append(domains, tag.Domain)
		keywords = append(keywords, tag.Keywords...)
		weightedSum += tag.Confidence * float64(tag.specificity)
		weightTotal += float64(tag.specificity)

		for _, req := range c.rules.RequirementsFor(tag.Domain) {
			key := string(req.Domain) + "|" + string(req.Type) + "|" + req.Description
			if _, ok := seenReq[key]; ok {
				continue
			}
			seenReq[key] = struct{}{}
			requirements = append(requirements, req)
		}
	}

	overall := 0.0
	if weightTotal > 0 {
		overall = weightedSum / weightTotal
	}

	return &SemanticAnalysisResult{
		Path:                   path,
		Domains:                domains,
		Technologies:           dedupeSorted(technologies),
		ImplementationPatterns: patterns,
		EvidenceRequirements:   requirements,
		Keywords:               dedupeSorted(keywords),
		Tags:                   tags,
		Confidence:             overall,
	}
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
