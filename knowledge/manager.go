package knowledge

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Manager owns the knowledge graph. All methods are safe for concurrent
// use: mutation is serialized behind a writer lock, reads proceed
// concurrently with each other but wait behind in-flight mutation.
type Manager struct {
	mu       sync.RWMutex
	nodes    map[string]*KnowledgeNode
	mappings map[mappingKey]*RepositoryMapping
	evidence map[string][]EvidenceItem // control id → items, append-only
	statuses map[string]*ComplianceStatus
	logger   *slog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

type mappingKey struct {
	standardPath string
	controlID    string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the validation timestamp source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty knowledge manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		nodes:    make(map[string]*KnowledgeNode),
		mappings: make(map[mappingKey]*RepositoryMapping),
		evidence: make(map[string][]EvidenceItem),
		statuses: make(map[string]*ComplianceStatus),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UpsertMapping inserts or updates a mapping keyed by
// (StandardPath, ControlID). A repeated upsert with an unchanged
// relevance score is a no-op; a changed score refreshes LastValidated
// and logs a drift event. Returns true when the stored state changed.
func (m *Manager) UpsertMapping(mapping RepositoryMapping) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mappingKey{mapping.StandardPath, mapping.ControlID}
	existing, ok := m.mappings[key]
	if ok && existing.RelevanceScore == mapping.RelevanceScore {
		return false
	}

	mapping.LastValidated = m.now()
	if ok {
		m.logger.Info("Mapping relevance drift",
			"standard", mapping.StandardPath,
			"control", mapping.ControlID,
			"old_score", existing.RelevanceScore,
			"new_score", mapping.RelevanceScore)
	}
	m.mappings[key] = &mapping
	return true
}

// Mappings returns all mappings for a control, sorted by standard path.
func (m *Manager) Mappings(controlID string) []RepositoryMapping {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []RepositoryMapping
	for key, mapping := range m.mappings {
		if key.controlID == controlID {
			out = append(out, *mapping)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StandardPath < out[j].StandardPath
	})
	return out
}

// MappedControls returns the ids of all controls with at least one
// mapping, ascending.
func (m *Manager) MappedControls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for key := range m.mappings {
		seen[key.controlID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AddEvidence appends an evidence item to its control's history.
// Evidence is append-only; invalid items are retained for audit.
func (m *Manager) AddEvidence(item EvidenceItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evidence[item.ControlID] = append(m.evidence[item.ControlID], item)
}

// Evidence returns all evidence for a control in collection order.
func (m *Manager) Evidence(controlID string) []EvidenceItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]EvidenceItem(nil), m.evidence[controlID]...)
}

// SetStatus replaces a control's compliance status atomically.
func (m *Manager) SetStatus(status ComplianceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses[status.ControlID] = &status
}

// Status returns a control's compliance status, or nil if never
// assessed.
func (m *Manager) Status(controlID string) *ComplianceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[controlID]
	if !ok {
		return nil
	}
	copied := *status
	return &copied
}

// QueryControls returns assessed statuses matching the query, in
// ascending control-id order regardless of insertion order.
func (m *Manager) QueryControls(q ControlQuery) []ComplianceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ComplianceStatus
	for id, status := range m.statuses {
		if q.ControlID != "" && id != q.ControlID {
			continue
		}
		if q.Status != "" && status.Status != q.Status {
			continue
		}
		if status.Confidence < q.MinConfidence {
			continue
		}
		if q.Domain != "" && !m.controlInDomainLocked(id, q) {
			continue
		}
		if q.Technology != "" && !m.controlUsesTechnologyLocked(id, q.Technology) {
			continue
		}
		out = append(out, *status)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ControlID < out[j].ControlID
	})
	return out
}

func (m *Manager) controlInDomainLocked(controlID string, q ControlQuery) bool {
	for key, mapping := range m.mappings {
		if key.controlID != controlID {
			continue
		}
		for _, d := range mapping.Domains {
			if d == q.Domain {
				return true
			}
		}
	}
	return false
}

func (m *Manager) controlUsesTechnologyLocked(controlID, tech string) bool {
	for key, mapping := range m.mappings {
		if key.controlID != controlID {
			continue
		}
		for _, t := range mapping.Technologies {
			if strings.EqualFold(t, tech) {
				return true
			}
		}
	}
	return false
}

// UpsertNode inserts a node or merges relationship edges into an
// existing one. Edge lists stay deduplicated.
func (m *Manager) UpsertNode(node KnowledgeNode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.nodes[node.ID]
	if !ok {
		copied := node
		m.nodes[node.ID] = &copied
		return
	}

	existing.Relationships.Implements = mergeEdges(existing.Relationships.Implements, node.Relationships.Implements)
	existing.Relationships.Supports = mergeEdges(existing.Relationships.Supports, node.Relationships.Supports)
	existing.Relationships.Requires = mergeEdges(existing.Relationships.Requires, node.Relationships.Requires)
	existing.Relationships.Conflicts = mergeEdges(existing.Relationships.Conflicts, node.Relationships.Conflicts)
}

// GetGraph returns all nodes sorted by id.
func (m *Manager) GetGraph() []KnowledgeNode {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]KnowledgeNode, 0, len(m.nodes))
	for _, node := range m.nodes {
		out = append(out, *node)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func mergeEdges(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, a := range added {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		existing = append(existing, a)
	}
	sort.Strings(existing)
	return existing
}
