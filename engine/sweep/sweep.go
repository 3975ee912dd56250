// Package sweep implements the initial-sweep driver: after
// reconcile converges a flavor's automations, it fires one process-flavor
// run per existing node of each descriptor's kind so a newly declared
// computed attribute reaches its fixed point without waiting for an
// incidental edit.
package sweep

import (
	"context"
	"fmt"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/schema"
	"github.com/infrahub-io/computed-attributes/pkg/logger"
)

// NodeLister is the narrow host surface the sweep needs: every existing
// node id of a kind on the default branch.
type NodeLister interface {
	ListKind(ctx context.Context, branch string, kind schema.NodeKind) ([]string, error)
}

// Dispatcher submits one process-flavor run; the caller supplies the
// workflow-engine-specific implementation (a Temporal client start call in
// production, an in-memory recorder in tests).
type Dispatcher interface {
	DispatchTemplateRun(ctx context.Context, kind schema.NodeKind, nodeID string, d *schema.Descriptor) error
	DispatchTransformRun(ctx context.Context, kind schema.NodeKind, nodeID string, d *schema.Descriptor) error
}

// DefaultBranch is the branch the sweep runs against.
const DefaultBranch = "main"

// Run sweeps every descriptor in idx, submitting one process-flavor run per
// existing node of the descriptor's owning kind. The sweep is bounded (it
// enumerates exactly once per descriptor), non-transactional, and safe to
// re-run: the equality guard at the worker makes every submitted run a
// no-op when the graph is already at fixed point. Every log line from one
// call carries a fresh run_id so operators can correlate a sweep's
// submitted runs across the worker's logs.
func Run(ctx context.Context, idx *schema.Index, nodes NodeLister, dispatch Dispatcher) error {
	runID, err := core.NewID()
	if err != nil {
		return fmt.Errorf("sweep: generate run id: %w", err)
	}
	log := logger.FromContext(ctx).With("run_id", runID)

	var swept, submitted int
	for _, d := range idx.Descriptors() {
		ids, err := nodes.ListKind(ctx, DefaultBranch, d.Kind)
		if err != nil {
			return core.HostQueryError(err, map[string]any{"descriptor": d.KeyName(), "kind": string(d.Kind)})
		}
		swept++
		for _, id := range ids {
			var dispatchErr error
			switch d.Flavor {
			case schema.FlavorTemplate:
				dispatchErr = dispatch.DispatchTemplateRun(ctx, d.Kind, id, d)
			case schema.FlavorTransform:
				dispatchErr = dispatch.DispatchTransformRun(ctx, d.Kind, id, d)
			}
			if dispatchErr != nil {
				return dispatchErr
			}
			submitted++
		}
	}
	log.Info("initial sweep complete", "descriptors_swept", swept, "runs_submitted", submitted)
	return nil
}
