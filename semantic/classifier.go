package semantic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/complymap/complymap/analyzer"
	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/llm"
	"github.com/complymap/complymap/model"
	"github.com/complymap/complymap/scanner"
)

// Classifier assigns security domains to one artifact given its content
// and the code analyzer's matches.
type Classifier interface {
	Classify(ctx context.Context, std *scanner.RepositoryStandard, patterns []analyzer.ImplementationPattern) (*SemanticAnalysisResult, error)
}

// NewClassifier builds the classifier selected by configuration.
// Backend "rules" returns the deterministic backend; "model" wraps it
// with the model-backed backend that falls back to rules on failure or
// timeout. Backend selection happens here, once, at configuration time.
func NewClassifier(cfg config.ClassifierConfig, logger *slog.Logger) (Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules, err := rulesFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", "rules":
		return rules, nil
	case "model":
		registry := model.NewDefaultRegistry()
		if cfg.ModelsPath != "" {
			registry, err = model.LoadFromFile(cfg.ModelsPath)
			if err != nil {
				return nil, fmt.Errorf("load model registry: %w", err)
			}
		}
		client := llm.NewClient(registry, llm.WithLogger(logger))
		return NewModelClassifier(client, rules, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

func rulesFromConfig(cfg config.ClassifierConfig, logger *slog.Logger) (*RulesClassifier, error) {
	ruleSet := DefaultRuleSet()
	if cfg.RulesPath != "" {
		loaded, err := LoadRuleSet(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("load mapping rules: %w", err)
		}
		ruleSet = loaded
	}
	return NewRulesClassifier(ruleSet, cfg.MinConfidence, logger), nil
}
