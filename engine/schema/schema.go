// Package schema discovers computed attributes from a branch-scoped schema
// snapshot and compiles them into a dependency index: which source kinds
// must re-trigger which target nodes, and
// which filters locate those targets.
package schema

// NodeKind identifies a node type in the host graph schema (e.g. "TShirt").
type NodeKind string

// Cardinality is a relationship's arity on one side.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// RelationshipDef describes one relationship declared on a node kind.
type RelationshipDef struct {
	Name        string
	PeerKind    NodeKind
	Cardinality Cardinality // cardinality on THIS (near) side
}

// AttributeDef describes one attribute declared on a node kind, computed or
// otherwise.
type AttributeDef struct {
	Name     string
	Computed bool

	// Fields below are meaningful only when Computed is true.
	Flavor         Flavor
	Template       string
	TransformRef   string
	QueryName      string
	QueryModels    []string
	RepositoryID   string
	RepositoryName string
	RepositoryKind string
	AttributeKind  string
}

// NodeDef is one node kind's full attribute and relationship surface.
type NodeDef struct {
	Kind          NodeKind
	Attributes    []AttributeDef
	Relationships []RelationshipDef
}

func (d NodeDef) relationship(name string) (RelationshipDef, bool) {
	for _, r := range d.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	return RelationshipDef{}, false
}

func (d NodeDef) attribute(name string) (AttributeDef, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeDef{}, false
}

// Schema is the host-collaborator boundary: a queryable bag of node
// definitions for one branch. The index never imports the host's own schema
// package; it only depends on this narrow interface.
type Schema interface {
	Kinds() []NodeKind
	NodeDef(kind NodeKind) (NodeDef, bool)
}

// StaticSchema is an in-memory Schema, the shape used by tests and by any
// host adapter that snapshots its schema eagerly per branch.
type StaticSchema struct {
	nodes map[NodeKind]NodeDef
}

func NewStaticSchema(defs ...NodeDef) *StaticSchema {
	s := &StaticSchema{nodes: make(map[NodeKind]NodeDef, len(defs))}
	for _, d := range defs {
		s.nodes[d.Kind] = d
	}
	return s
}

func (s *StaticSchema) Kinds() []NodeKind {
	kinds := make([]NodeKind, 0, len(s.nodes))
	for k := range s.nodes {
		kinds = append(kinds, k)
	}
	return kinds
}

func (s *StaticSchema) NodeDef(kind NodeKind) (NodeDef, bool) {
	d, ok := s.nodes[kind]
	return d, ok
}
