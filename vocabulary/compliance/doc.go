// Package compliance defines the closed-set vocabulary shared across the
// compliance-mapping pipeline: mapping types, implementation statuses,
// evidence classifications, knowledge graph node and edge types, gap
// priorities, and security domains.
//
// Every enumeration here is a closed set. Components must not invent
// values outside these constants; serialization layers reject unknown
// values rather than passing them through.
package compliance
