// Package analyzer recognizes security implementation patterns in
// repository artifacts. Language recognizers extract structural facts
// (imports and calls) from source files; a declarative pattern table is
// then matched against those facts, degrading to keyword matching over
// raw text when no recognizer applies or parsing fails.
package analyzer

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/complymap/complymap/scanner"
)

// Recognizer extracts structural facts from source files of one
// language.
type Recognizer interface {
	// Language returns the language name matched against
	// RepositoryStandard.Language().
	Language() string
	// Extract parses the file content and reports its imports and
	// calls.
	Extract(ctx context.Context, path string, content []byte) (*Facts, error)
}

// Analyzer matches implementation patterns in repository artifacts.
type Analyzer struct {
	recognizers map[string]Recognizer
	patterns    []Pattern
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPatterns replaces the default pattern table.
func WithPatterns(patterns []Pattern) Option {
	return func(a *Analyzer) {
		a.patterns = patterns
	}
}

// WithLogger sets the analyzer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer with the Go, Python, and JavaScript
// recognizers registered and the default pattern table.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		recognizers: make(map[string]Recognizer),
		patterns:    DefaultPatterns(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, r := range []Recognizer{
		NewGoRecognizer(),
		NewPythonRecognizer(),
		NewJavaScriptRecognizer(),
	} {
		a.Register(r)
	}
	return a
}

// Register adds a recognizer, replacing any existing one for the same
// language.
func (a *Analyzer) Register(r Recognizer) {
	a.recognizers[r.Language()] = r
}

// Analyze matches the pattern table against one artifact. Results are
// deduplicated to one match per pattern and sorted by pattern name.
func (a *Analyzer) Analyze(ctx context.Context, std *scanner.RepositoryStandard) []ImplementationPattern {
	language := std.Language()
	content := []byte(std.Content)

	var facts *Facts
	if recognizer, ok := a.recognizers[language]; ok {
		extracted, err := recognizer.Extract(ctx, std.Path, content)
		if err != nil {
			// Unparseable files still get keyword matching.
			a.logger.Warn("source parse failed, falling back to keyword matching",
				"path", std.Path,
				"language", language,
				"error", err)
		} else {
			facts = extracted
		}
	}

	var found []ImplementationPattern
	for _, pattern := range a.patterns {
		match, ok := a.matchPattern(pattern, language, facts, std)
		if !ok {
			continue
		}
		found = append(found, match)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found
}

// matchPattern checks one pattern against the artifact's facts and
// text. Structural signatures for the artifact's language are tried
// first; the "text" signature applies to every artifact.
func (a *Analyzer) matchPattern(pattern Pattern, language string, facts *Facts, std *scanner.RepositoryStandard) (ImplementationPattern, bool) {
	if facts != nil {
		if sig, ok := pattern.Signatures[language]; ok {
			if trigger, matched := matchFacts(sig, facts); matched {
				return ImplementationPattern{
					Name:       pattern.Name,
					Domain:     pattern.Domain,
					Language:   language,
					Method:     pattern.Method,
					Location:   std.Path,
					Matched:    trigger,
					Confidence: pattern.Confidence,
				}, true
			}
		}
	}

	if sig, ok := pattern.Signatures["text"]; ok {
		if trigger, matched := matchKeywords(sig, std.Content); matched {
			return ImplementationPattern{
				Name:       pattern.Name,
				Domain:     pattern.Domain,
				Language:   language,
				Method:     pattern.Method,
				Location:   std.Path,
				Matched:    trigger,
				// Keyword hits carry less weight than structural
				// matches.
				Confidence: pattern.Confidence * 0.8,
			}, true
		}
	}

	return ImplementationPattern{}, false
}

// matchFacts reports whether any signature import or call appears in
// the extracted facts, returning the first trigger.
func matchFacts(sig Signature, facts *Facts) (string, bool) {
	for _, want := range sig.Imports {
		for _, have := range facts.Imports {
			if have == want || strings.HasPrefix(have, want+"/") || strings.HasPrefix(have, want+".") {
				return have, true
			}
		}
	}
	for _, want := range sig.Calls {
		for _, have := range facts.Calls {
			if have == want || strings.HasSuffix(have, "."+want) {
				return have, true
			}
		}
	}
	return "", false
}

// matchKeywords reports whether any signature keyword appears in the
// content, case-insensitively.
func matchKeywords(sig Signature, content string) (string, bool) {
	lowered := strings.ToLower(content)
	for _, keyword := range sig.Keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}
