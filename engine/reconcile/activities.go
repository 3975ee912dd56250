package reconcile

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/host"
	"github.com/infrahub-io/computed-attributes/engine/schema"
)

// Activities bundles the host collaborators the reconciliation workers
// need, registered with the Temporal worker as activity methods. A process
// owns exactly one Activities value, built once at startup and torn down
// at shutdown.
type Activities struct {
	Index       *schema.Index
	Nodes       host.NodeStore
	Queries     host.QueryRunner
	Groups      host.SubscriberGroups
	Repos       host.RepositoryManager
	Transforms  host.TransformStore
	Transformer host.TransformRunner
}

// ProcessJinja2 is the Temporal activity wrapping the TEMPLATE worker.
func (a *Activities) ProcessJinja2(ctx context.Context, in ProcessJinja2Input) (*ProcessJinja2Result, error) {
	return (&ProcessJinja2Usecase{Index: a.Index, Nodes: a.Nodes, Input: in}).Execute(ctx)
}

// ProcessTransform is the Temporal activity wrapping the TRANSFORM worker.
// A TransformExecutionError is reported as a non-retryable failure.
func (a *Activities) ProcessTransform(ctx context.Context, in ProcessTransformInput) (*ProcessTransformResult, error) {
	result, err := (&ProcessTransformUsecase{
		Index:       a.Index,
		Nodes:       a.Nodes,
		Queries:     a.Queries,
		Groups:      a.Groups,
		Repos:       a.Repos,
		Transforms:  a.Transforms,
		Transformer: a.Transformer,
		Input:       in,
	}).Execute(ctx)
	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr.Is(core.CodeTransformExecution) {
		return nil, temporal.NewNonRetryableApplicationError(coreErr.Error(), string(coreErr.Code), err)
	}
	return result, err
}

// QueryTransformTargets is the Temporal activity wrapping the QUERY-TARGETS
// worker.
func (a *Activities) QueryTransformTargets(
	ctx context.Context, in QueryTransformTargetsInput,
) (*QueryTransformTargetsResult, error) {
	return (&QueryTransformTargetsUsecase{Index: a.Index, Groups: a.Groups, Input: in}).Execute(ctx)
}

// ListKind is the activity the initial-sweep driver (engine/sweep) uses to
// enumerate existing nodes of a kind.
func (a *Activities) ListKind(ctx context.Context, branch string, kind schema.NodeKind) ([]string, error) {
	nodes, err := a.Nodes.ListKind(ctx, branch, string(kind))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return ids, nil
}
