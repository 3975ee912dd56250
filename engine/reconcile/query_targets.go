package reconcile

import (
	"context"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/host"
	"github.com/infrahub-io/computed-attributes/engine/schema"
)

// QueryTransformTargetsInput is the query_transform_targets worker's entry
// point.
type QueryTransformTargetsInput struct {
	Branch      string
	ChangedKind schema.NodeKind
	ChangedID   string
}

// TransformDispatch is one process_transform run the query-targets worker
// wants scheduled; the caller (a workflow) is responsible for actually
// submitting it, keeping this package's core logic a pure function of its
// inputs.
type TransformDispatch struct {
	NodeKind      schema.NodeKind
	NodeID        string
	AttrName      string
	AttrOwnerKind schema.NodeKind
}

// QueryTransformTargetsResult is the set of process_transform runs to
// schedule.
type QueryTransformTargetsResult struct {
	Dispatches []TransformDispatch
}

// QueryTransformTargets implements the QUERY-TARGETS worker: it looks up
// every subscriber group containing changed_id,
// collects subscriber nodes whose kind has at least one TRANSFORM
// descriptor, and returns one dispatch per (subscriber, descriptor) pair.
func QueryTransformTargets(
	ctx context.Context,
	idx *schema.Index,
	groups host.SubscriberGroups,
	in QueryTransformTargetsInput,
) (*QueryTransformTargetsResult, error) {
	memberGroups, err := groups.GroupsContaining(ctx, in.Branch, in.ChangedID)
	if err != nil {
		return nil, core.HostQueryError(err, map[string]any{"changed_id": in.ChangedID})
	}

	result := &QueryTransformTargetsResult{}
	seen := make(map[string]bool)
	for _, group := range memberGroups {
		for _, sub := range group.Subscribers {
			for _, d := range idx.PythonByNode(schema.NodeKind(sub.Kind)) {
				key := sub.ID + "|" + d.KeyName()
				if seen[key] {
					continue
				}
				seen[key] = true
				result.Dispatches = append(result.Dispatches, TransformDispatch{
					NodeKind:      schema.NodeKind(sub.Kind),
					NodeID:        sub.ID,
					AttrName:      d.Attribute,
					AttrOwnerKind: d.Kind,
				})
			}
		}
	}
	return result, nil
}
