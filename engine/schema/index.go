package schema

import (
	"fmt"
	"sort"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/pkg/tplengine"
)

// sourceDep ties a (source kind, source field) pair to the descriptor that
// must be re-evaluated when a node of that kind changes that field.
type sourceDep struct {
	kind  NodeKind
	field string
}

// Index is the compiled dependency index, immutable once
// built: a single schema reload produces a new Index, never a mutation of an
// existing one.
type Index struct {
	descriptors map[string]*Descriptor // by KeyName

	jinjaBySourceKind      map[NodeKind][]*Descriptor
	jinjaBySourceKindField map[sourceDep][]*Descriptor

	pythonByTransform map[string][]*Descriptor
	pythonByNode      map[NodeKind][]*Descriptor

	nodeFilters      map[string][]string   // by KeyName
	sourceKindsByKey map[string][]NodeKind // by KeyName, TEMPLATE descriptors only
}

// BuildIndex compiles every computed attribute declared in sch into an
// Index. Malformed descriptors are collected and returned as errs alongside
// an Index built from the remaining valid descriptors — one bad descriptor
// never aborts the whole schema.
func BuildIndex(sch Schema) (*Index, []error) {
	idx := &Index{
		descriptors:            make(map[string]*Descriptor),
		jinjaBySourceKind:      make(map[NodeKind][]*Descriptor),
		jinjaBySourceKindField: make(map[sourceDep][]*Descriptor),
		pythonByTransform:      make(map[string][]*Descriptor),
		pythonByNode:           make(map[NodeKind][]*Descriptor),
		nodeFilters:            make(map[string][]string),
		sourceKindsByKey:       make(map[string][]NodeKind),
	}
	var errs []error
	for _, kind := range sch.Kinds() {
		def, _ := sch.NodeDef(kind)
		for _, attrDef := range def.Attributes {
			if !attrDef.Computed {
				continue
			}
			d, err := newDescriptor(kind, attrDef)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := idx.addDescriptor(def, d); err != nil {
				errs = append(errs, err)
				continue
			}
		}
	}
	return idx, errs
}

func (idx *Index) addDescriptor(owner NodeDef, d *Descriptor) error {
	switch d.Flavor {
	case FlavorTemplate:
		return idx.addTemplateDescriptor(owner, d)
	case FlavorTransform:
		idx.addTransformDescriptor(d)
		return nil
	default:
		return core.SchemaError(string(d.Kind), d.Attribute, "unknown flavor")
	}
}

func (idx *Index) addTemplateDescriptor(owner NodeDef, d *Descriptor) error {
	refs := tplengine.ExtractVariables(d.Template)
	filters := make(map[string]bool)
	sourceKinds := make(map[NodeKind]bool)
	var deps []sourceDep
	for _, ref := range refs {
		if !ref.IsRelation() {
			// Two-segment ref: must name a plain attribute on the owning
			// kind, not a relationship — relationship names are reserved
			// for the three-segment grammar.
			if _, isRel := owner.relationship(ref.Attr); isRel {
				return core.SchemaError(
					string(d.Kind), d.Attribute,
					fmt.Sprintf("two-segment reference %q names a relationship, not an attribute", ref.Raw),
				)
			}
			deps = append(deps, sourceDep{kind: d.Kind, field: ref.Attr})
			sourceKinds[d.Kind] = true
			filters["id"] = true
			continue
		}
		rel, ok := owner.relationship(ref.Relation)
		if !ok {
			return core.SchemaError(
				string(d.Kind), d.Attribute,
				fmt.Sprintf("reference %q names unknown relationship %q", ref.Raw, ref.Relation),
			)
		}
		if rel.Cardinality != CardinalityOne {
			return core.SchemaError(
				string(d.Kind), d.Attribute,
				fmt.Sprintf("relationship %q is cardinality-many on the near side; invalid for a variable reference", ref.Relation),
			)
		}
		deps = append(deps, sourceDep{kind: rel.PeerKind, field: ref.Attr})
		sourceKinds[rel.PeerKind] = true
		filters[ref.Relation+"__id"] = true
	}
	if len(filters) == 0 {
		return core.SchemaError(string(d.Kind), d.Attribute, "template has no variable references; target nodes are undiscoverable")
	}
	for _, dep := range deps {
		idx.recordDependency(dep, d)
	}
	for k := range sourceKinds {
		idx.jinjaBySourceKind[k] = append(idx.jinjaBySourceKind[k], d)
	}
	idx.descriptors[d.KeyName()] = d
	idx.nodeFilters[d.KeyName()] = sortedKeys(filters)
	kinds := make([]NodeKind, 0, len(sourceKinds))
	for k := range sourceKinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	idx.sourceKindsByKey[d.KeyName()] = kinds
	return nil
}

// SourceKinds returns the set of node kinds whose change should re-trigger
// descriptor d. For a TRANSFORM descriptor this is always {d.Kind} — the
// query-targets half of the pair is driven by QueryModels instead, exposed
// directly on the Descriptor.
func (idx *Index) SourceKinds(d *Descriptor) []NodeKind {
	if d.Flavor == FlavorTransform {
		return []NodeKind{d.Kind}
	}
	return idx.sourceKindsByKey[d.KeyName()]
}

func (idx *Index) addTransformDescriptor(d *Descriptor) {
	idx.descriptors[d.KeyName()] = d
	idx.pythonByTransform[d.TransformRef] = append(idx.pythonByTransform[d.TransformRef], d)
	idx.pythonByNode[d.Kind] = append(idx.pythonByNode[d.Kind], d)
}

func (idx *Index) recordDependency(dep sourceDep, d *Descriptor) {
	list := idx.jinjaBySourceKindField[dep]
	for _, existing := range list {
		if existing.KeyName() == d.KeyName() {
			return
		}
	}
	idx.jinjaBySourceKindField[dep] = append(list, d)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ImpactedJinja returns the TEMPLATE descriptors that depend on a change of
// kind, restricted to updatedFields when known. A nil updatedFields means
// "unknown" and returns the full set of descriptors depending on kind
// through any field.
func (idx *Index) ImpactedJinja(kind NodeKind, updatedFields []string) []*Descriptor {
	if updatedFields == nil {
		return append([]*Descriptor(nil), idx.jinjaBySourceKind[kind]...)
	}
	seen := make(map[string]bool)
	var out []*Descriptor
	for _, field := range updatedFields {
		for _, d := range idx.jinjaBySourceKindField[sourceDep{kind: kind, field: field}] {
			if seen[d.KeyName()] {
				continue
			}
			seen[d.KeyName()] = true
			out = append(out, d)
		}
	}
	return out
}

// NodeFilters returns the query-filter keys that locate the target nodes of
// descriptor d, reachable from a just-updated source node — always
// non-empty for a TEMPLATE descriptor.
func (idx *Index) NodeFilters(d *Descriptor) []string {
	return idx.nodeFilters[d.KeyName()]
}

// Descriptor looks a descriptor up by its KeyName, the disambiguator the
// automation parameters (computed_attribute_owner_kind/computed_attribute_name)
// carry at runtime.
func (idx *Index) Descriptor(keyName string) (*Descriptor, bool) {
	d, ok := idx.descriptors[keyName]
	return d, ok
}

// Descriptors returns every descriptor in the index, TEMPLATE and TRANSFORM
// alike, in no particular order.
func (idx *Index) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(idx.descriptors))
	for _, d := range idx.descriptors {
		out = append(out, d)
	}
	return out
}

// PythonByNode returns the TRANSFORM descriptors declared on kind — the
// reverse index the query-targets worker uses to decide
// which descriptors to re-run for a given subscriber node kind.
func (idx *Index) PythonByNode(kind NodeKind) []*Descriptor {
	return idx.pythonByNode[kind]
}

// PythonByTransform groups TRANSFORM descriptors that share one external
// transform.
func (idx *Index) PythonByTransform(transformRef string) []*Descriptor {
	return idx.pythonByTransform[transformRef]
}
