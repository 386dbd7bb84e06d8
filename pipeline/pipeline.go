// Package pipeline orchestrates a compliance run: scan, analyze,
// classify, map, harvest, assess, and emit. Per-file stages run on a
// worker pool; results are sorted by path before any knowledge
// mutation so document generation stays deterministic regardless of
// completion order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/complymap/complymap/analyzer"
	"github.com/complymap/complymap/assess"
	"github.com/complymap/complymap/catalog"
	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/evidence"
	"github.com/complymap/complymap/knowledge"
	"github.com/complymap/complymap/oscal"
	"github.com/complymap/complymap/scanner"
	"github.com/complymap/complymap/semantic"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// Pipeline wires the run stages together around one catalog and one
// configuration.
type Pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	cat        *catalog.Catalog
	baselines  *catalog.BaselineSelection
	analyzer   *analyzer.Analyzer
	classifier semantic.Classifier
	rules      *semantic.RuleSet
	harvester  *evidence.Harvester
	assessor   *assess.Assessor
	now        func() time.Time
}

// New builds a pipeline from configuration: catalog, baselines,
// classifier backend, and mapping rules are all resolved here, before
// any file is touched.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	rules := semantic.DefaultRuleSet()
	if cfg.Classifier.RulesPath != "" {
		rules, err = semantic.LoadRuleSet(cfg.Classifier.RulesPath)
		if err != nil {
			return nil, err
		}
	}

	classifier, err := semantic.NewClassifier(cfg.Classifier, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		cat:        cat,
		baselines:  catalog.NewBaselineSelection(cfg.Catalog.Baselines.Low, cfg.Catalog.Baselines.Moderate, cfg.Catalog.Baselines.High),
		analyzer:   analyzer.New(analyzer.WithLogger(logger)),
		classifier: classifier,
		rules:      rules,
		harvester:  evidence.NewHarvester(evidence.WithLogger(logger)),
		assessor:   assess.New(cfg.Assessment),
		now:        time.Now,
	}, nil
}

// Catalog returns the loaded control catalog.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.cat
}

// BaselineControls resolves the control set assessed for a baseline.
// Without configured baseline membership the full catalog is assessed.
func (p *Pipeline) BaselineControls(b catalog.Baseline) []string {
	if p.baselines.Empty() {
		return p.cat.IDs()
	}
	return p.baselines.Controls(b, p.cat)
}

// Outcome is everything a completed run produced.
type Outcome struct {
	Statuses []knowledge.ComplianceStatus
	Evidence []knowledge.EvidenceItem
	Summary  *Summary
}

// fileResult pairs one scanned artifact with its analysis output.
// Semantic is nil when classification recovered with a MappingError.
type fileResult struct {
	std      *scanner.RepositoryStandard
	patterns []analyzer.ImplementationPattern
	semantic *semantic.SemanticAnalysisResult
}

// Run executes the full pipeline against the configured repository and
// assesses the given controls; a nil control list means every control
// that ended up mapped. The knowledge graph is loaded before and saved
// after; cancellation returns before anything is persisted.
func (p *Pipeline) Run(ctx context.Context, controls []string) (*Outcome, error) {
	summary := NewSummary()
	if mc, ok := p.classifier.(*semantic.ModelClassifier); ok {
		mc.OnFallback(summary.Record)
	}

	km, err := knowledge.Load(p.cfg.Knowledge.Path, knowledge.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("loading knowledge graph: %w", err)
	}

	files, err := p.analyzeAll(ctx, summary)
	if err != nil {
		return nil, err
	}

	requirements := p.applyMappings(km, files, summary)
	p.harvestAll(km, files, requirements, summary)

	ids := controls
	if ids == nil {
		ids = km.MappedControls()
	} else {
		ids = append([]string(nil), ids...)
		sort.Strings(ids)
	}

	statuses := p.assessAll(ctx, km, ids, requirements)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for _, st := range statuses {
		km.SetStatus(st)
	}
	summary.ControlsAssessed = len(statuses)

	if err := km.Save(p.cfg.Knowledge.Path); err != nil {
		return nil, fmt.Errorf("saving knowledge graph: %w", err)
	}

	return &Outcome{
		Statuses: statuses,
		Evidence: collectEvidence(km),
		Summary:  summary,
	}, nil
}

// analyzeAll scans the repository and runs analysis plus classification
// on a worker pool, then sorts results by path.
func (p *Pipeline) analyzeAll(ctx context.Context, summary *Summary) ([]fileResult, error) {
	sc := scanner.New(p.cfg.Scan, p.logger)
	stds, scanErrs, err := sc.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, se := range scanErrs {
		summary.Record(se)
	}
	summary.FilesScanned = len(stds)

	jobs := make(chan *scanner.RepositoryStandard)
	results := make([]fileResult, 0, len(stds))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.workerCount(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for std := range jobs {
				fr := p.analyzeOne(ctx, std, summary)
				mu.Lock()
				results = append(results, fr)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, std := range stds {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- std:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].std.Path < results[j].std.Path })
	return results, nil
}

func (p *Pipeline) analyzeOne(ctx context.Context, std *scanner.RepositoryStandard, summary *Summary) fileResult {
	patterns := p.analyzer.Analyze(ctx, std)
	result, err := p.classifier.Classify(ctx, std, patterns)
	if err != nil {
		summary.Record(err)
		p.logger.Debug("Artifact left unmapped",
			"path", std.Path,
			"error", err)
		result = nil
	}
	return fileResult{std: std, patterns: patterns, semantic: result}
}

// applyMappings upserts front-matter and automatic mappings into the
// knowledge graph and accumulates per-control evidence requirements.
// Files arrive sorted, so upsert order is stable across runs.
func (p *Pipeline) applyMappings(km *knowledge.Manager, files []fileResult, summary *Summary) map[string][]semantic.EvidenceRequirement {
	requirements := make(map[string][]semantic.EvidenceRequirement)
	seenReq := make(map[string]struct{})

	addReqs := func(controlID string, reqs []semantic.EvidenceRequirement) {
		for _, req := range reqs {
			key := controlID + "|" + string(req.Domain) + "|" + string(req.Type) + "|" + req.Description
			if _, ok := seenReq[key]; ok {
				continue
			}
			seenReq[key] = struct{}{}
			requirements[controlID] = append(requirements[controlID], req)
		}
	}

	for _, fr := range files {
		created := 0

		declared, errs := scanner.ControlMappings(fr.std, p.cat)
		for _, err := range errs {
			summary.Record(err)
			p.logger.Warn("Rejecting front-matter mapping entry",
				"path", fr.std.Path,
				"error", err)
		}
		for _, dm := range declared {
			mapping := knowledge.RepositoryMapping{
				StandardPath:           fr.std.Path,
				ControlID:              dm.ControlID,
				MappingType:            dm.MappingType,
				RelevanceScore:         dm.RelevanceScore,
				ImplementationCoverage: dm.ImplementationCoverage,
				AutomaticDetection:     false,
				EvidenceProvided:       dm.EvidenceProvided,
			}
			if fr.semantic != nil {
				mapping.SemanticAlignment = fr.semantic.Confidence
				mapping.Domains = fr.semantic.Domains
				mapping.Technologies = fr.semantic.Technologies
				addReqs(dm.ControlID, fr.semantic.EvidenceRequirements)
			}
			if km.UpsertMapping(mapping) {
				summary.MappingsCreated++
			}
			p.linkNodes(km, fr.std.Path, mapping)
			created++
		}

		if fr.semantic != nil {
			for _, tag := range fr.semantic.Tags {
				for _, id := range p.rules.ControlsFor(tag.Domain) {
					if !p.cat.Has(id) {
						continue
					}
					mapping := knowledge.RepositoryMapping{
						StandardPath:       fr.std.Path,
						ControlID:          id,
						MappingType:        p.mappingType(fr.std, tag),
						RelevanceScore:     tag.Confidence,
						AutomaticDetection: true,
						SemanticAlignment:  fr.semantic.Confidence,
						Domains:            fr.semantic.Domains,
						Technologies:       fr.semantic.Technologies,
					}
					if mapping.MappingType == vocab.MappingPrimary {
						mapping.ImplementationCoverage = tag.Confidence
					}
					if km.UpsertMapping(mapping) {
						summary.MappingsCreated++
					}
					p.linkNodes(km, fr.std.Path, mapping)
					created++
					addReqs(id, p.rules.RequirementsFor(tag.Domain))
				}
			}
		}

		if created == 0 && len(fr.patterns) > 0 {
			summary.Warn(fmt.Sprintf("security-relevant code without a control mapping: %s", fr.std.Path))
		}
	}

	return requirements
}

// linkNodes records the mapping in the typed knowledge graph: a
// control node, a standard node implementing or supporting it, and an
// implementation node for analyzer-confirmed primary mappings.
func (p *Pipeline) linkNodes(km *knowledge.Manager, path string, mapping knowledge.RepositoryMapping) {
	controlNode := "control:" + mapping.ControlID
	km.UpsertNode(knowledge.KnowledgeNode{ID: controlNode, Type: vocab.NodeControl})

	rel := knowledge.Relationships{}
	if mapping.MappingType == vocab.MappingPrimary {
		rel.Implements = []string{controlNode}
	} else {
		rel.Supports = []string{controlNode}
	}
	km.UpsertNode(knowledge.KnowledgeNode{
		ID:            "standard:" + path,
		Type:          vocab.NodeStandard,
		Relationships: rel,
	})

	if mapping.MappingType == vocab.MappingPrimary && mapping.AutomaticDetection {
		km.UpsertNode(knowledge.KnowledgeNode{
			ID:            "implementation:" + path,
			Type:          vocab.NodeImplementation,
			Relationships: knowledge.Relationships{Implements: []string{controlNode}},
		})
	}
}

// mappingType derives the mapping type from the artifact and how the
// tag was produced: analyzer-confirmed code is a primary
// implementation, configuration and infrastructure carry evidence,
// prose documents and keyword-only code matches are supporting.
func (p *Pipeline) mappingType(std *scanner.RepositoryStandard, tag semantic.SemanticTag) vocab.MappingType {
	switch std.Type {
	case scanner.ArtifactDocumentation:
		return vocab.MappingDocumentation
	case scanner.ArtifactConfiguration, scanner.ArtifactInfrastructure:
		return vocab.MappingEvidence
	}
	if tag.Source == semantic.SourceAnalyzer {
		return vocab.MappingPrimary
	}
	return vocab.MappingSupporting
}

// harvestAll runs evidence collection for every mapped control against
// each mapping's source artifact.
func (p *Pipeline) harvestAll(km *knowledge.Manager, files []fileResult, requirements map[string][]semantic.EvidenceRequirement, summary *Summary) {
	byPath := make(map[string]fileResult, len(files))
	for _, fr := range files {
		byPath[fr.std.Path] = fr
	}

	for _, controlID := range km.MappedControls() {
		for _, mapping := range km.Mappings(controlID) {
			fr, ok := byPath[mapping.StandardPath]
			if !ok {
				continue
			}
			result := p.harvester.Harvest(mapping, fr.std, requirements[controlID])
			for _, item := range result.Items {
				km.AddEvidence(item)
				km.UpsertNode(knowledge.KnowledgeNode{
					ID:            "evidence:" + item.ID,
					Type:          vocab.NodeEvidence,
					Relationships: knowledge.Relationships{Supports: []string{"control:" + controlID}},
				})
			}
			summary.EvidenceItems += len(result.Items)
			for _, verr := range result.ValidationErrors {
				summary.Record(verr)
			}
		}
	}
}

// assessAll computes a ComplianceStatus per control, fanned out per
// control since assessments are independent. Output order follows the
// input id order.
func (p *Pipeline) assessAll(ctx context.Context, km *knowledge.Manager, ids []string, requirements map[string][]semantic.EvidenceRequirement) []knowledge.ComplianceStatus {
	at := p.now()
	statuses := make([]knowledge.ComplianceStatus, len(ids))
	sem := make(chan struct{}, p.workerCount())
	var wg sync.WaitGroup

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			statuses[i] = p.assessor.Assess(id, assess.Input{
				Mappings:     km.Mappings(id),
				Evidence:     km.Evidence(id),
				Requirements: requirements[id],
				At:           at,
			})
		}()
	}
	wg.Wait()
	return statuses
}

func (p *Pipeline) workerCount() int {
	if p.cfg.Workers > 0 {
		return p.cfg.Workers
	}
	return runtime.NumCPU()
}

// collectEvidence gathers every control's evidence in ascending
// control-id order.
func collectEvidence(km *knowledge.Manager) []knowledge.EvidenceItem {
	var out []knowledge.EvidenceItem
	for _, id := range km.MappedControls() {
		out = append(out, km.Evidence(id)...)
	}
	return out
}

// WriteDocuments emits the SSP and assessment-results documents for a
// completed run. A schema-validation failure blocks that document but
// the other is still attempted; any such failure is returned so the
// caller can exit non-zero.
func (p *Pipeline) WriteDocuments(outcome *Outcome, baseline catalog.Baseline) ([]string, error) {
	at := p.now()
	sys := oscal.SystemCharacteristics{
		SystemIDs:                []oscal.SystemID{{IdentifierType: "local", ID: p.cfg.System.Name}},
		SystemName:               p.cfg.System.Name,
		Description:              p.cfg.System.Description,
		SecuritySensitivityLevel: string(baseline),
		Status:                   oscal.SystemStatus{State: p.cfg.System.State},
	}

	var written []string
	var failures []error

	ssp := oscal.GenerateSSP(oscal.SSPInput{
		System:      sys,
		Baseline:    string(baseline),
		ProfileHref: p.cfg.System.ProfileHref,
		Version:     p.cfg.System.Version,
		Statuses:    outcome.Statuses,
		GeneratedAt: at,
	})
	sspPath := filepath.Join(p.cfg.Output.Dir, fmt.Sprintf("ssp-%s.json", baseline))
	if err := oscal.WriteSSP(sspPath, ssp); err != nil {
		outcome.Summary.Record(err)
		if !oscal.IsSchemaValidationError(err) {
			return written, err
		}
		p.logger.Error("SSP blocked by schema validation", "error", err)
		failures = append(failures, err)
	} else {
		written = append(written, sspPath)
	}

	ar := oscal.GenerateAssessmentResults(oscal.AssessmentInput{
		SystemName:  p.cfg.System.Name,
		Version:     p.cfg.System.Version,
		Statuses:    outcome.Statuses,
		GeneratedAt: at,
	})
	arPath := filepath.Join(p.cfg.Output.Dir, fmt.Sprintf("assessment-results-%s.json", baseline))
	if err := oscal.WriteAssessmentResults(arPath, ar); err != nil {
		outcome.Summary.Record(err)
		if !oscal.IsSchemaValidationError(err) {
			return written, err
		}
		p.logger.Error("Assessment results blocked by schema validation", "error", err)
		failures = append(failures, err)
	} else {
		written = append(written, arPath)
	}

	return written, errors.Join(failures...)
}

// evidenceCatalog is the optional machine-readable evidence listing
// written alongside the OSCAL documents.
type evidenceCatalog struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Items       []knowledge.EvidenceItem `json:"items"`
}

// WriteEvidenceCatalog emits the harvested evidence as a standalone
// JSON catalog.
func (p *Pipeline) WriteEvidenceCatalog(outcome *Outcome) (string, error) {
	path := filepath.Join(p.cfg.Output.Dir, "evidence-catalog.json")
	catalogDoc := evidenceCatalog{GeneratedAt: p.now(), Items: outcome.Evidence}
	if catalogDoc.Items == nil {
		catalogDoc.Items = []knowledge.EvidenceItem{}
	}
	if err := oscal.WriteJSON(path, catalogDoc); err != nil {
		return "", err
	}
	return path, nil
}

// ValidateControls checks declared front-matter mappings against the
// loaded catalog without mutating the knowledge graph. Rejected entries
// are counted; security-relevant code with no declared mapping is
// reported as a warning.
func (p *Pipeline) ValidateControls(ctx context.Context) (*Summary, error) {
	summary := NewSummary()

	sc := scanner.New(p.cfg.Scan, p.logger)
	stds, scanErrs, err := sc.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, se := range scanErrs {
		summary.Record(se)
	}
	summary.FilesScanned = len(stds)

	for _, std := range stds {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		declared, errs := scanner.ControlMappings(std, p.cat)
		for _, merr := range errs {
			summary.Record(merr)
			p.logger.Warn("Invalid front-matter mapping",
				"path", std.Path,
				"error", merr)
		}
		summary.MappingsCreated += len(declared)

		if len(declared) > 0 {
			continue
		}
		if patterns := p.analyzer.Analyze(ctx, std); len(patterns) > 0 {
			summary.Warn(fmt.Sprintf("security-relevant code without a control mapping: %s", std.Path))
		}
	}

	return summary, nil
}
