package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infrahub-io/computed-attributes/engine/schema"
)

type fakeNodeLister struct {
	idsByKind map[schema.NodeKind][]string
}

func (f fakeNodeLister) ListKind(_ context.Context, _ string, kind schema.NodeKind) ([]string, error) {
	return f.idsByKind[kind], nil
}

type recordingDispatcher struct {
	templateRuns  []string
	transformRuns []string
}

func (r *recordingDispatcher) DispatchTemplateRun(_ context.Context, _ schema.NodeKind, nodeID string, d *schema.Descriptor) error {
	r.templateRuns = append(r.templateRuns, d.KeyName()+"/"+nodeID)
	return nil
}

func (r *recordingDispatcher) DispatchTransformRun(_ context.Context, _ schema.NodeKind, nodeID string, d *schema.Descriptor) error {
	r.transformRuns = append(r.transformRuns, d.KeyName()+"/"+nodeID)
	return nil
}

func TestRun_SubmitsOneRunPerExistingNode(t *testing.T) {
	color := schema.NodeDef{Kind: "Color", Attributes: []schema.AttributeDef{{Name: "description"}}}
	tshirt := schema.NodeDef{
		Kind: "TShirt",
		Attributes: []schema.AttributeDef{
			{Name: "description", Computed: true, Template: "{{ color__description__value }}"},
		},
		Relationships: []schema.RelationshipDef{{Name: "color", PeerKind: "Color", Cardinality: schema.CardinalityOne}},
	}
	idx, errs := schema.BuildIndex(schema.NewStaticSchema(color, tshirt))
	require.Empty(t, errs)

	nodes := fakeNodeLister{idsByKind: map[schema.NodeKind][]string{
		"TShirt": {"tshirt-1", "tshirt-2"},
	}}
	dispatcher := &recordingDispatcher{}

	err := Run(t.Context(), idx, nodes, dispatcher)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"TShirt_description/tshirt-1", "TShirt_description/tshirt-2"}, dispatcher.templateRuns)
	assert.Empty(t, dispatcher.transformRuns)
}

func TestRun_NoExistingNodesSubmitsNothing(t *testing.T) {
	color := schema.NodeDef{Kind: "Color", Attributes: []schema.AttributeDef{{Name: "description"}}}
	tshirt := schema.NodeDef{
		Kind: "TShirt",
		Attributes: []schema.AttributeDef{
			{Name: "description", Computed: true, Template: "{{ color__description__value }}"},
		},
		Relationships: []schema.RelationshipDef{{Name: "color", PeerKind: "Color", Cardinality: schema.CardinalityOne}},
	}
	idx, errs := schema.BuildIndex(schema.NewStaticSchema(color, tshirt))
	require.Empty(t, errs)

	dispatcher := &recordingDispatcher{}
	err := Run(t.Context(), idx, fakeNodeLister{}, dispatcher)
	require.NoError(t, err)
	assert.Empty(t, dispatcher.templateRuns)
}
