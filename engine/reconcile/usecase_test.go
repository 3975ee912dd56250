package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessJinja2Usecase_ExecuteMatchesTheBareFunction(t *testing.T) {
	idx, colorKind, tshirtKind := tshirtIndex(t)
	store := newFakeNodeStore()

	sunset := &fakeNode{
		id: "color-1", kind: string(colorKind),
		attrs: map[string]fakeAttr{
			"name":        {fields: map[string]any{"value": "Sunset"}},
			"description": {fields: map[string]any{"value": "A bold, vibrant orange…"}},
		},
	}
	tshirt := &fakeNode{
		id: "tshirt-1", kind: string(tshirtKind),
		attrs:      map[string]fakeAttr{"name": {fields: map[string]any{"value": "Explorer"}}},
		relations:  map[string]*fakeNode{"color": sunset},
		currentStr: map[string]string{},
	}
	store.nodesByKind[string(colorKind)] = []*fakeNode{sunset}
	store.nodesByKind[string(tshirtKind)] = []*fakeNode{tshirt}

	uc := &ProcessJinja2Usecase{
		Index: idx,
		Nodes: store,
		Input: ProcessJinja2Input{
			Branch: "main", SourceKind: colorKind, SourceID: "color-1",
			AttrName: "description", AttrOwnerKind: tshirtKind,
		},
	}
	result, err := uc.Execute(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.NodesWritten)
}
