// Package tplengine implements the computed-attribute template engine: it
// parses `rel__prop__sub`-shaped variable references out of a template
// string, resolves them against a small node capability interface, and
// renders the result by substitution — no general-purpose template grammar,
// since a computed-attribute template is a flat set of named placeholders,
// not a program.
//
// Rendering never performs I/O: ResolveBindings walks the node graph once to
// build a binding map, then Render is a pure function of (template,
// bindings).
package tplengine

import (
	"fmt"
	"regexp"
	"strings"
)

// varTokenPattern matches a single `{{ ident }}` reference, optionally with
// trim markers (`{{- ident -}}`). Anything richer (pipelines, dotted paths,
// control structures) does not match, is never treated as a variable
// reference, and is left in Render's output unchanged.
var varTokenPattern = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_]*)\s*-?\}\}`)

// HasTemplate reports whether s contains template delimiters at all.
func HasTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// AttrValue is a structured attribute value as the host graph store exposes
// it: a named scalar with a handful of well-known sub-fields (`value`,
// `name`, ...).
type AttrValue interface {
	// Field returns the scalar at the given sub-field name ("value", "name",
	// ...), or ok=false if the node has no such sub-field.
	Field(name string) (any, bool)
}

// Node is the capability interface the template engine resolves variable
// references against. Any host node implementation can satisfy it without
// the engine ever reflecting into concrete types.
type Node interface {
	// Attribute returns the structured value of attribute name, or
	// ok=false if the node carries no such attribute.
	Attribute(name string) (AttrValue, bool)
	// RelationPeer follows a cardinality-one relationship named name and
	// returns the peer node, or ok=false if the relationship is unset,
	// broken, or not cardinality-one.
	RelationPeer(name string) (Node, bool)
}

// VariableRef is one parsed `A__B` or `A__B__C` reference.
type VariableRef struct {
	Raw      string // original token, e.g. "color__name__value"
	Relation string // set only for three-segment refs
	Attr     string
	Sub      string
}

func (r VariableRef) IsRelation() bool { return r.Relation != "" }

// parseSegments splits a candidate identifier into its `__`-delimited parts
// and reports whether it has the shape (A__B or A__B__C) the grammar
// recognizes as a variable reference.
func parseSegments(ident string) (VariableRef, bool) {
	parts := strings.Split(ident, "__")
	// strings.Split never drops empty segments, so "rel__" -> ["rel", ""]
	// and is correctly rejected below.
	for _, p := range parts {
		if p == "" {
			return VariableRef{}, false
		}
	}
	switch len(parts) {
	case 2:
		return VariableRef{Raw: ident, Attr: parts[0], Sub: parts[1]}, true
	case 3:
		return VariableRef{Raw: ident, Relation: parts[0], Attr: parts[1], Sub: parts[2]}, true
	default:
		return VariableRef{}, false
	}
}

// ExtractVariables returns the complete, de-duplicated, order-preserving set
// of variable references a template consults, without evaluating any of
// them. Tokens that don't match the two/three-segment grammar are silently
// skipped here; Render still replaces such a `{{ ident }}` token with the
// empty string.
func ExtractVariables(tmpl string) []VariableRef {
	seen := make(map[string]bool)
	var out []VariableRef
	for _, m := range varTokenPattern.FindAllStringSubmatch(tmpl, -1) {
		ident := m[1]
		ref, ok := parseSegments(ident)
		if !ok {
			continue
		}
		if seen[ref.Raw] {
			continue
		}
		seen[ref.Raw] = true
		out = append(out, ref)
	}
	return out
}

// ExtractVariableNames is ExtractVariables projected to the raw token names.
func ExtractVariableNames(tmpl string) []string {
	refs := ExtractVariables(tmpl)
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Raw
	}
	return names
}

// Render performs the textual interpolation: every `{{ ident }}` token
// (valid shape or not) is replaced by bindings[ident], defaulting to the
// empty string when absent. This is the single rendering code path used by
// every computed-attribute flavor; it is pure and deterministic.
func Render(tmpl string, bindings map[string]string) string {
	return varTokenPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		m := varTokenPattern.FindStringSubmatch(tok)
		if m == nil {
			return tok
		}
		return bindings[m[1]]
	})
}

// ResolveBindings walks every variable reference in tmpl against node,
// producing the binding map Render consumes. Relationship-resolution
// failures (broken or absent peers) and missing attributes yield an empty
// string binding rather than an error.
func ResolveBindings(tmpl string, node Node) map[string]string {
	bindings := make(map[string]string)
	for _, ref := range ExtractVariables(tmpl) {
		bindings[ref.Raw] = resolveOne(ref, node)
	}
	return bindings
}

func resolveOne(ref VariableRef, node Node) string {
	target := node
	if ref.IsRelation() {
		peer, ok := node.RelationPeer(ref.Relation)
		if !ok {
			return ""
		}
		target = peer
	}
	attr, ok := target.Attribute(ref.Attr)
	if !ok {
		return ""
	}
	val, ok := attr.Field(ref.Sub)
	if !ok {
		return ""
	}
	return scalarToString(val)
}

func scalarToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
