package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tshirtSchema() Schema {
	color := NodeDef{Kind: "Color", Attributes: []AttributeDef{
		{Name: "name"}, {Name: "description"},
	}}
	tshirt := NodeDef{
		Kind: "TShirt",
		Attributes: []AttributeDef{
			{Name: "name"},
			{
				Name:     "description",
				Computed: true,
				Template: "A {{color__name__value }} {{ name__value}} t-shirt. {{ color__description__value }}",
			},
			{
				Name:           "pitch",
				Computed:       true,
				TransformRef:   "tshirt_pitch",
				QueryName:      "ColorDescriptionQuery",
				QueryModels:    []string{"Color"},
				RepositoryID:   "repo-1",
				RepositoryName: "transforms",
				RepositoryKind: "git",
			},
		},
		Relationships: []RelationshipDef{
			{Name: "color", PeerKind: "Color", Cardinality: CardinalityOne},
		},
	}
	return NewStaticSchema(color, tshirt)
}

func TestBuildIndex_TemplateDescriptor(t *testing.T) {
	idx, errs := BuildIndex(tshirtSchema())
	require.Empty(t, errs)

	d, ok := idx.Descriptor("TShirt_description")
	require.True(t, ok)
	assert.Equal(t, FlavorTemplate, d.Flavor)

	impacted := idx.ImpactedJinja("Color", nil)
	require.Len(t, impacted, 1)
	assert.Equal(t, "TShirt_description", impacted[0].KeyName())

	impacted = idx.ImpactedJinja("TShirt", []string{"name"})
	require.Len(t, impacted, 1)

	impacted = idx.ImpactedJinja("TShirt", []string{"unrelated_field"})
	assert.Empty(t, impacted)

	filters := idx.NodeFilters(d)
	assert.ElementsMatch(t, []string{"id", "color__id"}, filters)
}

func TestBuildIndex_TransformDescriptor(t *testing.T) {
	idx, errs := BuildIndex(tshirtSchema())
	require.Empty(t, errs)

	d, ok := idx.Descriptor("TShirt_pitch")
	require.True(t, ok)
	assert.Equal(t, FlavorTransform, d.Flavor)
	assert.Equal(t, []NodeKind{"Color"}, d.QueryModels)

	onTShirt := idx.PythonByNode("TShirt")
	require.Len(t, onTShirt, 1)
	assert.Equal(t, "TShirt_pitch", onTShirt[0].KeyName())

	byTransform := idx.PythonByTransform("tshirt_pitch")
	require.Len(t, byTransform, 1)
}

func TestBuildIndex_RejectsBothTemplateAndTransform(t *testing.T) {
	bad := NodeDef{Kind: "Widget", Attributes: []AttributeDef{
		{Name: "x", Computed: true, Template: "{{ y__value }}", TransformRef: "t"},
	}}
	idx, errs := BuildIndex(NewStaticSchema(bad))
	require.Len(t, errs, 1)
	_, ok := idx.Descriptor("Widget_x")
	assert.False(t, ok)
}

func TestBuildIndex_RejectsNeitherTemplateNorTransform(t *testing.T) {
	bad := NodeDef{Kind: "Widget", Attributes: []AttributeDef{
		{Name: "x", Computed: true},
	}}
	_, errs := BuildIndex(NewStaticSchema(bad))
	require.Len(t, errs, 1)
}

func TestBuildIndex_RejectsCardinalityManyRelationship(t *testing.T) {
	bad := NodeDef{
		Kind: "Widget",
		Attributes: []AttributeDef{
			{Name: "x", Computed: true, Template: "{{ parts__name__value }}"},
		},
		Relationships: []RelationshipDef{
			{Name: "parts", PeerKind: "Part", Cardinality: CardinalityMany},
		},
	}
	_, errs := BuildIndex(NewStaticSchema(bad))
	require.Len(t, errs, 1)
}

func TestBuildIndex_RejectsTemplateWithNoReferences(t *testing.T) {
	bad := NodeDef{Kind: "Widget", Attributes: []AttributeDef{
		{Name: "x", Computed: true, Template: "no variables here"},
	}}
	_, errs := BuildIndex(NewStaticSchema(bad))
	require.Len(t, errs, 1)
}

func TestBuildIndex_OneBadDescriptorDoesNotAbortOthers(t *testing.T) {
	sch := tshirtSchema()
	def, _ := sch.(*StaticSchema)
	widget := NodeDef{Kind: "Widget", Attributes: []AttributeDef{
		{Name: "x", Computed: true},
	}}
	def.nodes["Widget"] = widget

	idx, errs := BuildIndex(sch)
	require.Len(t, errs, 1)
	_, ok := idx.Descriptor("TShirt_description")
	assert.True(t, ok)
	_, ok = idx.Descriptor("TShirt_pitch")
	assert.True(t, ok)
}
