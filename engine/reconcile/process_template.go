package reconcile

import (
	"context"
	"fmt"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/host"
	"github.com/infrahub-io/computed-attributes/engine/schema"
	"github.com/infrahub-io/computed-attributes/pkg/logger"
	"github.com/infrahub-io/computed-attributes/pkg/tplengine"
)

// ProcessJinja2Input is the process_jinja2 worker's entry point.
type ProcessJinja2Input struct {
	Branch        string
	SourceKind    schema.NodeKind
	SourceID      string
	AttrName      string
	AttrOwnerKind schema.NodeKind
	// UpdatedFields is nil when the host didn't report which fields
	// changed; impacted_jinja then returns the full per-kind set.
	UpdatedFields []string
}

// ProcessJinja2Result reports how many target nodes were found and how many
// were actually mutated (the rest short-circuited on the equality guard).
type ProcessJinja2Result struct {
	NodesFound    int
	NodesWritten  int
	DescriptorRun string
}

// ProcessJinja2 implements the TEMPLATE worker: it
// identifies the one descriptor the automation's parameters represent,
// queries every target node reachable from source, re-renders the template
// for each, and writes back through the equality guard.
func ProcessJinja2(ctx context.Context, idx *schema.Index, store host.NodeStore, in ProcessJinja2Input) (*ProcessJinja2Result, error) {
	log := logger.FromContext(ctx)

	var target *schema.Descriptor
	for _, d := range idx.ImpactedJinja(in.SourceKind, in.UpdatedFields) {
		if d.Kind == in.AttrOwnerKind && d.Attribute == in.AttrName {
			target = d
			break
		}
	}
	if target == nil {
		log.Debug("process_jinja2: no matching descriptor for this automation's parameters",
			"source_kind", in.SourceKind, "attr_owner_kind", in.AttrOwnerKind, "attr_name", in.AttrName)
		return &ProcessJinja2Result{}, nil
	}

	result := &ProcessJinja2Result{DescriptorRun: target.KeyName()}
	found, err := findTargetNodes(ctx, store, idx, in.Branch, target, in.SourceID)
	if err != nil {
		return nil, core.HostQueryError(err, map[string]any{"descriptor": target.KeyName()})
	}
	if len(found) == 0 {
		log.Info("process_jinja2: no target nodes reachable from source", "descriptor", target.KeyName(), "source_id", in.SourceID)
		return result, nil
	}
	result.NodesFound = len(found)

	for _, node := range found {
		bindings := tplengine.ResolveBindings(target.Template, node)
		newValue := tplengine.Render(target.Template, bindings)
		wrote, err := writeIfChanged(ctx, store, in.Branch, string(target.Kind), node.ID(), target.Attribute, newValue, node)
		if err != nil {
			return nil, core.MutationError(err, node.ID(), target.Attribute)
		}
		if wrote {
			result.NodesWritten++
		}
	}
	return result, nil
}

// findTargetNodes queries the host once per node_filters(descriptor) key and
// concatenates the results, de-duplicating by node id.
func findTargetNodes(
	ctx context.Context, store host.NodeStore, idx *schema.Index, branch string, d *schema.Descriptor, sourceID string,
) ([]host.Node, error) {
	seen := make(map[string]bool)
	var out []host.Node
	for _, filterKey := range idx.NodeFilters(d) {
		nodes, err := store.FindByFilter(ctx, branch, string(d.Kind), filterKey, sourceID)
		if err != nil {
			return nil, fmt.Errorf("find by filter %q: %w", filterKey, err)
		}
		for _, n := range nodes {
			if seen[n.ID()] {
				continue
			}
			seen[n.ID()] = true
			out = append(out, n)
		}
	}
	return out, nil
}
