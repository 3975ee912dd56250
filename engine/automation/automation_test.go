package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infrahub-io/computed-attributes/engine/schema"
)

type fakeEngine struct {
	handles   map[string]Handle
	specs     map[string]Spec
	createErr error
	listErr   error
	nextID    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{handles: make(map[string]Handle), specs: make(map[string]Spec)}
}

func (f *fakeEngine) List(_ context.Context) ([]Descriptor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Descriptor, 0, len(f.handles))
	for name, h := range f.handles {
		out = append(out, Descriptor{Handle: h, Name: name})
	}
	return out, nil
}

func (f *fakeEngine) Create(_ context.Context, spec Spec) (Handle, error) {
	if f.createErr != nil {
		return Handle{}, f.createErr
	}
	f.nextID++
	h := Handle{ID: spec.Name, Name: spec.Name}
	f.handles[spec.Name] = h
	f.specs[spec.Name] = spec
	return h, nil
}

func (f *fakeEngine) Update(_ context.Context, handle Handle, spec Spec) error {
	f.handles[spec.Name] = handle // keep the same handle id
	f.specs[spec.Name] = spec
	return nil
}

type fakeTransformStore struct {
	known map[string]bool
}

func (f fakeTransformStore) Lookup(_ context.Context, transformRef string) (string, string, bool) {
	if !f.known[transformRef] {
		return "", "", false
	}
	return "transforms/pitch.py", "PitchGenerator", true
}

func schemaWithOneTemplateOneTransform() *schema.Index {
	color := schema.NodeDef{Kind: "Color", Attributes: []schema.AttributeDef{{Name: "description"}}}
	tshirt := schema.NodeDef{
		Kind: "TShirt",
		Attributes: []schema.AttributeDef{
			{Name: "description", Computed: true, Template: "{{ color__description__value }}"},
			{Name: "pitch", Computed: true, TransformRef: "tshirt_pitch", QueryModels: []string{"Color"}},
		},
		Relationships: []schema.RelationshipDef{{Name: "color", PeerKind: "Color", Cardinality: schema.CardinalityOne}},
	}
	idx, errs := schema.BuildIndex(schema.NewStaticSchema(color, tshirt))
	if len(errs) != 0 {
		panic(errs)
	}
	return idx
}

func TestReconcile_S3_ConvergenceCreatesExpectedAutomations(t *testing.T) {
	idx := schemaWithOneTemplateOneTransform()
	eng := newFakeEngine()
	transforms := fakeTransformStore{known: map[string]bool{"tshirt_pitch": true}}

	err := Reconcile(t.Context(), idx, eng, transforms)
	require.NoError(t, err)

	assert.Contains(t, eng.handles, Name(ProcessPrefix, "TShirt_description", DefaultScope))
	assert.Contains(t, eng.handles, Name(ProcessPrefix, "TShirt_pitch", DefaultScope))
	assert.Contains(t, eng.handles, Name(QueryPrefix, "TShirt_pitch", DefaultScope))
	assert.Len(t, eng.handles, 3)
}

func TestReconcile_IsIdempotent(t *testing.T) {
	idx := schemaWithOneTemplateOneTransform()
	eng := newFakeEngine()
	transforms := fakeTransformStore{known: map[string]bool{"tshirt_pitch": true}}

	require.NoError(t, Reconcile(t.Context(), idx, eng, transforms))
	firstHandles := make(map[string]Handle, len(eng.handles))
	for k, v := range eng.handles {
		firstHandles[k] = v
	}

	require.NoError(t, Reconcile(t.Context(), idx, eng, transforms))

	assert.Equal(t, firstHandles, eng.handles, "handles must be preserved across an update, not replaced")
}

func TestReconcile_NeverDeletesOrphanedAutomations(t *testing.T) {
	eng := newFakeEngine()
	eng.handles[Name(ProcessPrefix, "Stale_attr", DefaultScope)] = Handle{ID: "old", Name: "stale"}

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

	require.NoError(t, Reconcile(t.Context(), idx, eng, nil))

	assert.Contains(t, eng.handles, Name(ProcessPrefix, "Stale_attr", DefaultScope))
	assert.Contains(t, eng.handles, Name(ProcessPrefix, "TShirt_description", DefaultScope))
}

func TestReconcile_S5_MissingTransformSkipsRegistration(t *testing.T) {
	idx := schemaWithOneTemplateOneTransform()
	eng := newFakeEngine()
	transforms := fakeTransformStore{known: map[string]bool{}} // tshirt_pitch absent

	err := Reconcile(t.Context(), idx, eng, transforms)
	require.NoError(t, err)

	assert.NotContains(t, eng.handles, Name(ProcessPrefix, "TShirt_pitch", DefaultScope))
	assert.NotContains(t, eng.handles, Name(QueryPrefix, "TShirt_pitch", DefaultScope))
	assert.Contains(t, eng.handles, Name(ProcessPrefix, "TShirt_description", DefaultScope))
}

func TestParseName(t *testing.T) {
	prefix, identifier, scope, ok := ParseName("computed-attr-process::TShirt_description::default")
	require.True(t, ok)
	assert.Equal(t, ProcessPrefix, prefix)
	assert.Equal(t, "TShirt_description", identifier)
	assert.Equal(t, "default", scope)

	_, _, _, ok = ParseName("not-a-valid-name")
	assert.False(t, ok)

	_, _, _, ok = ParseName("unknown-prefix::x::default")
	assert.False(t, ok)
}

func TestReconcile_EngineUnavailable(t *testing.T) {
	idx := schemaWithOneTemplateOneTransform()
	eng := newFakeEngine()
	eng.listErr = assert.AnError

	err := Reconcile(t.Context(), idx, eng, nil)
	require.Error(t, err)
}
