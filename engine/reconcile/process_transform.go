package reconcile

import (
	"context"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/host"
	"github.com/infrahub-io/computed-attributes/engine/schema"
	"github.com/infrahub-io/computed-attributes/pkg/logger"
)

// ProcessTransformInput is the process_transform worker's entry point.
type ProcessTransformInput struct {
	Branch        string
	NodeKind      schema.NodeKind
	NodeID        string
	AttrName      string
	AttrOwnerKind schema.NodeKind
	UpdatedFields []string
}

// ProcessTransformResult reports what ran.
type ProcessTransformResult struct {
	DescriptorsRun []string
	NodesWritten   int
}

// ProcessTransform implements the TRANSFORM worker: for
// every TRANSFORM descriptor declared on node_kind (narrowed to the one the
// automation's parameters name), it runs the transform's query, associates
// the subscriber group, invokes the external transform in its repository
// worktree, and writes back through the equality guard.
func ProcessTransform(
	ctx context.Context,
	idx *schema.Index,
	store host.NodeStore,
	queries host.QueryRunner,
	groups host.SubscriberGroups,
	repos host.RepositoryManager,
	transforms host.TransformStore,
	runner host.TransformRunner,
	in ProcessTransformInput,
) (*ProcessTransformResult, error) {
	log := logger.FromContext(ctx)
	result := &ProcessTransformResult{}

	for _, d := range idx.PythonByNode(in.NodeKind) {
		if d.Kind != in.AttrOwnerKind || d.Attribute != in.AttrName {
			continue
		}

		filePath, className, ok := transforms.Lookup(ctx, d.TransformRef)
		if !ok {
			missing := core.MissingTransformError(d.TransformRef)
			log.Warn("process_transform: transform missing from store, skipping run",
				"descriptor", d.KeyName(), "code", missing.Code, "details", missing.AsMap())
			continue
		}

		commit, err := repos.ResolveCommit(ctx, d.RepositoryID, d.RepositoryName, in.Branch)
		if err != nil {
			return nil, core.HostQueryError(err, map[string]any{"descriptor": d.KeyName(), "repository": d.RepositoryName})
		}
		worktreeDir, unlock, err := repos.Checkout(ctx, d.RepositoryID, d.RepositoryName, commit)
		if err != nil {
			return nil, core.TransformExecutionError(err, d.RepositoryName, commit)
		}

		written, err := runOneTransform(ctx, store, queries, groups, runner, d, in, worktreeDir, filePath, className, commit)
		unlock()
		if err != nil {
			return nil, err
		}
		result.DescriptorsRun = append(result.DescriptorsRun, d.KeyName())
		if written {
			result.NodesWritten++
		}
	}
	return result, nil
}

func subscribedIDs(queryResult map[string]any) []string {
	raw, ok := queryResult["_subscribed_ids"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func runOneTransform(
	ctx context.Context,
	store host.NodeStore,
	queries host.QueryRunner,
	groups host.SubscriberGroups,
	runner host.TransformRunner,
	d *schema.Descriptor,
	in ProcessTransformInput,
	worktreeDir, filePath, className, commit string,
) (bool, error) {
	queryResult, err := queries.Run(ctx, in.Branch, d.QueryName, map[string]any{"id": in.NodeID})
	if err != nil {
		return false, core.HostQueryError(err, map[string]any{"descriptor": d.KeyName(), "query": d.QueryName})
	}
	// The query result carries the ids of every node it read under the
	// reserved "_subscribed_ids" key (a convention of the query-runner
	// collaborator, not a core concept); each becomes a group member so a
	// later change to it re-triggers query_transform_targets for in.NodeID.
	for _, memberID := range subscribedIDs(queryResult) {
		if err := groups.AssociateMember(ctx, in.Branch, in.NodeID, memberID); err != nil {
			return false, core.HostQueryError(err, map[string]any{"descriptor": d.KeyName()})
		}
	}

	newValue, err := runner.Run(ctx, worktreeDir, filePath, className, queryResult)
	if err != nil {
		return false, core.TransformExecutionError(err, d.RepositoryName, commit)
	}

	node, err := store.Get(ctx, in.Branch, string(d.Kind), in.NodeID)
	if err != nil {
		return false, core.HostQueryError(err, map[string]any{"descriptor": d.KeyName(), "node_id": in.NodeID})
	}
	wrote, err := writeIfChanged(ctx, store, in.Branch, string(d.Kind), in.NodeID, d.Attribute, newValue, node)
	if err != nil {
		return false, core.MutationError(err, in.NodeID, d.Attribute)
	}
	return wrote, nil
}
