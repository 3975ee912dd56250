package tplengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAttr struct{ fields map[string]any }

func (a fakeAttr) Field(name string) (any, bool) {
	v, ok := a.fields[name]
	return v, ok
}

type fakeNode struct {
	attrs     map[string]fakeAttr
	relations map[string]*fakeNode
}

func (n *fakeNode) Attribute(name string) (AttrValue, bool) {
	if n == nil {
		return nil, false
	}
	a, ok := n.attrs[name]
	if !ok {
		return nil, false
	}
	return a, true
}

func (n *fakeNode) RelationPeer(name string) (Node, bool) {
	if n == nil {
		return nil, false
	}
	peer, ok := n.relations[name]
	if !ok || peer == nil {
		return nil, false
	}
	return peer, true
}

func TestHasTemplate(t *testing.T) {
	assert.False(t, HasTemplate(""))
	assert.False(t, HasTemplate("plain text"))
	assert.True(t, HasTemplate("Hello {{ name__value }}"))
	assert.False(t, HasTemplate("Hello {not a template}"))
}

func TestExtractVariables_TwoAndThreeSegment(t *testing.T) {
	tmpl := "{{ foo__bar }} / {{ rel__x__y }} / {{ rel__ }}"
	got := ExtractVariableNames(tmpl)
	assert.Equal(t, []string{"foo__bar", "rel__x__y"}, got)
}

func TestExtractVariables_DeduplicatesAndPreservesOrder(t *testing.T) {
	tmpl := "{{ a__b }} and again {{ a__b }} then {{ c__d__e }}"
	got := ExtractVariableNames(tmpl)
	assert.Equal(t, []string{"a__b", "c__d__e"}, got)
}

func TestExtractVariables_IgnoresOtherShapes(t *testing.T) {
	tmpl := "{{ single }} and {{ way__too__many__segments }}"
	got := ExtractVariableNames(tmpl)
	assert.Empty(t, got)
}

func TestRender_SubstitutesAndDefaultsMissingToEmpty(t *testing.T) {
	tmpl := "{{ foo__bar }} / {{ rel__x__y }} / {{ rel__ }}"
	got := Render(tmpl, map[string]string{"foo__bar": "1", "rel__x__y": "2"})
	assert.Equal(t, "1 / 2 / ", got)
}

func TestRender_IsDeterministic(t *testing.T) {
	tmpl := "{{ a__b }}-{{ c__d }}"
	bindings := map[string]string{"a__b": "x", "c__d": "y"}
	assert.Equal(t, Render(tmpl, bindings), Render(tmpl, bindings))
}

func TestResolveBindings_RelationshipTraversal(t *testing.T) {
	color := &fakeNode{attrs: map[string]fakeAttr{
		"name":        {fields: map[string]any{"value": "Sunset"}},
		"description": {fields: map[string]any{"value": "A bold, vibrant orange…"}},
	}}
	tshirt := &fakeNode{
		attrs:     map[string]fakeAttr{"name": {fields: map[string]any{"value": "Explorer"}}},
		relations: map[string]*fakeNode{"color": color},
	}
	tmpl := "A {{color__name__value }} {{ name__value}} t-shirt. {{ color__description__value }}"
	bindings := ResolveBindings(tmpl, tshirt)
	got := Render(tmpl, bindings)
	assert.Equal(t, "A Sunset Explorer t-shirt. A bold, vibrant orange…", got)
}

func TestResolveBindings_BrokenRelationshipYieldsEmptyString(t *testing.T) {
	tshirt := &fakeNode{attrs: map[string]fakeAttr{"name": {fields: map[string]any{"value": "Explorer"}}}}
	tmpl := "{{ color__name__value }} {{ name__value }}"
	bindings := ResolveBindings(tmpl, tshirt)
	assert.Equal(t, "Explorer", bindings["name__value"])
	assert.Equal(t, " Explorer", Render(tmpl, bindings))
}

func TestResolveBindings_FlipRelationshipPeer(t *testing.T) {
	tmpl := "A {{color__name__value }} {{ name__value}} t-shirt. {{ color__description__value }}"
	ocean := &fakeNode{attrs: map[string]fakeAttr{
		"name":        {fields: map[string]any{"value": "Ocean"}},
		"description": {fields: map[string]any{"value": "Deep and calming…"}},
	}}
	tshirt := &fakeNode{
		attrs:     map[string]fakeAttr{"name": {fields: map[string]any{"value": "Explorer"}}},
		relations: map[string]*fakeNode{"color": ocean},
	}
	bindings := ResolveBindings(tmpl, tshirt)
	assert.Equal(t, "A Ocean Explorer t-shirt. Deep and calming…", Render(tmpl, bindings))
}
