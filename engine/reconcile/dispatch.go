package reconcile

import (
	"github.com/infrahub-io/computed-attributes/engine/automation"
	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/event"
	"github.com/infrahub-io/computed-attributes/engine/schema"
)

// resolveParams is the worker input binding step: an
// automation's static parameters, with the fields its EventParams select out
// of the triggering event layered on top.
func resolveParams(spec automation.Spec, ev event.TriggerEvent) (core.Params, error) {
	derived := make(core.Params, len(spec.EventParams))
	for name, path := range spec.EventParams {
		switch path {
		case event.ParamBranch:
			derived[name] = ev.Branch
		case event.ParamKind:
			derived[name] = ev.Kind
		case event.ParamID:
			derived[name] = ev.ID
		}
	}
	return spec.StaticParams.Merge(derived)
}

// BuildProcessJinja2Input merges spec's parameters against ev into the
// process_computed_attribute_jinja2 deployment's typed entry point.
func BuildProcessJinja2Input(spec automation.Spec, ev event.TriggerEvent) (ProcessJinja2Input, error) {
	params, err := resolveParams(spec, ev)
	if err != nil {
		return ProcessJinja2Input{}, err
	}
	return ProcessJinja2Input{
		Branch:        params.String("branch_name"),
		SourceKind:    schema.NodeKind(params.String("node_kind")),
		SourceID:      params.String("object_id"),
		AttrName:      params.String("computed_attribute_name"),
		AttrOwnerKind: schema.NodeKind(params.String("computed_attribute_owner_kind")),
		UpdatedFields: ev.UpdatedFields,
	}, nil
}

// BuildProcessTransformInput merges spec's parameters against ev into the
// process_computed_attribute_transform deployment's typed entry point.
func BuildProcessTransformInput(spec automation.Spec, ev event.TriggerEvent) (ProcessTransformInput, error) {
	params, err := resolveParams(spec, ev)
	if err != nil {
		return ProcessTransformInput{}, err
	}
	return ProcessTransformInput{
		Branch:        params.String("branch_name"),
		NodeKind:      schema.NodeKind(params.String("node_kind")),
		NodeID:        params.String("object_id"),
		AttrName:      params.String("computed_attribute_name"),
		AttrOwnerKind: schema.NodeKind(params.String("computed_attribute_owner_kind")),
		UpdatedFields: ev.UpdatedFields,
	}, nil
}

// BuildQueryTransformTargetsInput merges spec's parameters against ev into
// the query-computed-attribute-transform-targets deployment's typed entry
// point.
func BuildQueryTransformTargetsInput(spec automation.Spec, ev event.TriggerEvent) (QueryTransformTargetsInput, error) {
	params, err := resolveParams(spec, ev)
	if err != nil {
		return QueryTransformTargetsInput{}, err
	}
	return QueryTransformTargetsInput{
		Branch:      params.String("branch_name"),
		ChangedKind: schema.NodeKind(params.String("node_kind")),
		ChangedID:   params.String("object_id"),
	}, nil
}
