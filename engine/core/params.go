package core

import (
	"fmt"
	"maps"

	"dario.cat/mergo"
)

// Params is a workflow/activity parameter bag: the merge of an automation's
// static parameters and the fields substituted from the triggering event.
type Params map[string]any

func NewParams(m map[string]any) Params {
	if m == nil {
		return make(Params)
	}
	return Params(m)
}

// Merge combines p with other, with other's keys taking precedence — the
// shape used when layering event-derived fields (branch, kind, id) over an
// automation's static parameters (computed_attribute_name, ...).
func (p Params) Merge(other Params) (Params, error) {
	result := make(map[string]any)
	maps.Copy(result, p)
	if err := mergo.Merge(&result, map[string]any(other), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge params: %w", err)
	}
	return Params(result), nil
}

func (p Params) String(key string) string {
	v, _ := p[key].(string)
	return v
}
