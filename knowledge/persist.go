package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// snapshotVersion is bumped when the persistence format changes.
const snapshotVersion = 1

// snapshot is the on-disk form of the knowledge graph. Evidence is
// per-run and deliberately not persisted.
type snapshot struct {
	Version   int                 `json:"version"`
	UpdatedAt time.Time           `json:"updated_at"`
	Nodes     []KnowledgeNode     `json:"nodes"`
	Mappings  []RepositoryMapping `json:"mappings"`
	Statuses  []ComplianceStatus  `json:"statuses,omitempty"`
}

// Load reads a persisted knowledge graph. A missing file yields an
// empty manager; a corrupt file is an error so a bad graph is never
// silently replaced.
func Load(path string, opts ...ManagerOption) (*Manager, error) {
	m := NewManager(opts...)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read knowledge graph: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse knowledge graph %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("knowledge graph %s: unsupported version %d", path, snap.Version)
	}

	for _, node := range snap.Nodes {
		m.UpsertNode(node)
	}
	for _, mapping := range snap.Mappings {
		// Restore stored timestamps verbatim rather than re-stamping.
		key := mappingKey{mapping.StandardPath, mapping.ControlID}
		copied := mapping
		m.mappings[key] = &copied
	}
	for _, status := range snap.Statuses {
		m.SetStatus(status)
	}

	return m, nil
}

// Save writes the graph to path atomically: a temporary file in the
// same directory, then a rename. A canceled or failed run never leaves
// a partially-written graph behind.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	snap := snapshot{
		Version:   snapshotVersion,
		UpdatedAt: m.now(),
		Nodes:     make([]KnowledgeNode, 0, len(m.nodes)),
		Mappings:  make([]RepositoryMapping, 0, len(m.mappings)),
		Statuses:  make([]ComplianceStatus, 0, len(m.statuses)),
	}
	for _, node := range m.nodes {
		snap.Nodes = append(snap.Nodes, *node)
	}
	for _, mapping := range m.mappings {
		snap.Mappings = append(snap.Mappings, *mapping)
	}
	for _, status := range m.statuses {
		snap.Statuses = append(snap.Statuses, *status)
	}
	m.mu.RUnlock()

	// Stable ordering keeps successive saves diffable.
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID < snap.Nodes[j].ID })
	sort.Slice(snap.Mappings, func(i, j int) bool {
		if snap.Mappings[i].ControlID != snap.Mappings[j].ControlID {
			return snap.Mappings[i].ControlID < snap.Mappings[j].ControlID
		}
		return snap.Mappings[i].StandardPath < snap.Mappings[j].StandardPath
	})
	sort.Slice(snap.Statuses, func(i, j int) bool { return snap.Statuses[i].ControlID < snap.Statuses[j].ControlID })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal knowledge graph: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create knowledge directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".knowledge-*.json")
	if err != nil {
		return fmt.Errorf("create temporary graph file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write knowledge graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close knowledge graph: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace knowledge graph: %w", err)
	}
	return nil
}
