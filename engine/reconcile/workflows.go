package reconcile

import (
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// Activity names, registered by RegisterActivities against these exact
// strings so a workflow replay never depends on the Activities struct's
// method set matching across a deploy.
const (
	ActivityProcessJinja2         = "ProcessJinja2"
	ActivityProcessTransform      = "ProcessTransform"
	ActivityQueryTransformTargets = "QueryTransformTargets"
	ActivityListKind              = "ListKind"
)

// RegisterActivities registers every activity method on a against w, under
// the fixed names above — the sweep driver (engine/sweep) and the three
// worker workflows reference activities by these names, not by a's method
// set, so a deploy can change Activities' internal wiring without breaking
// workflow replay.
func RegisterActivities(w worker, a *Activities) {
	w.RegisterActivityWithOptions(a.ProcessJinja2, activity.RegisterOptions{Name: ActivityProcessJinja2})
	w.RegisterActivityWithOptions(a.ProcessTransform, activity.RegisterOptions{Name: ActivityProcessTransform})
	w.RegisterActivityWithOptions(a.QueryTransformTargets, activity.RegisterOptions{Name: ActivityQueryTransformTargets})
	w.RegisterActivityWithOptions(a.ListKind, activity.RegisterOptions{Name: ActivityListKind})
}

// worker is the narrow subset of Temporal's worker.Worker this package
// depends on, letting callers pass the real worker.Worker without this
// package importing it directly for more than registration.
type worker interface {
	RegisterActivityWithOptions(a any, options activity.RegisterOptions)
}

// defaultActivityOptions matches the failure semantics each worker
// assigns: host/mutation failures retry, transform failures do not
// retry the data (the ProcessTransform activity reports
// TransformExecutionError as non-retryable and the workflow does not
// resubmit).
var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 2 * time.Minute,
}

// ProcessJinja2Workflow is the process_computed_attribute_jinja2 deployment:
// one cooperative task per triggering event, a single activity call, a
// single suspension point before its terminal mutation so a cancellation
// leaves the graph consistent.
func ProcessJinja2Workflow(ctx workflow.Context, in ProcessJinja2Input) (*ProcessJinja2Result, error) {
	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions)
	var result ProcessJinja2Result
	if err := workflow.ExecuteActivity(ctx, ActivityProcessJinja2, in).Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessTransformWorkflow is the process_computed_attribute_transform
// deployment.
func ProcessTransformWorkflow(ctx workflow.Context, in ProcessTransformInput) (*ProcessTransformResult, error) {
	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions)
	var result ProcessTransformResult
	if err := workflow.ExecuteActivity(ctx, ActivityProcessTransform, in).Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueryTransformTargetsWorkflow is the
// query-computed-attribute-transform-targets deployment: it resolves the
// dispatch set, then submits one child
// ProcessTransformWorkflow run per dispatch, matching §4.4-c's "submit a
// process_transform run" step.
func QueryTransformTargetsWorkflow(ctx workflow.Context, in QueryTransformTargetsInput) (*QueryTransformTargetsResult, error) {
	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions)
	var result QueryTransformTargetsResult
	if err := workflow.ExecuteActivity(ctx, ActivityQueryTransformTargets, in).Get(ctx, &result); err != nil {
		return nil, err
	}

	childOpts := workflow.ChildWorkflowOptions{}
	for _, dispatch := range result.Dispatches {
		childCtx := workflow.WithChildOptions(ctx, childOpts)
		future := workflow.ExecuteChildWorkflow(childCtx, ProcessTransformWorkflow, ProcessTransformInput{
			Branch:        in.Branch,
			NodeKind:      dispatch.NodeKind,
			NodeID:        dispatch.NodeID,
			AttrName:      dispatch.AttrName,
			AttrOwnerKind: dispatch.AttrOwnerKind,
		})
		// Wait for the child to actually start before moving to the next
		// dispatch: this workflow returns right after the loop, and an
		// unstarted child under the default ParentClosePolicy (TERMINATE)
		// would be silently dropped rather than scheduled.
		if err := future.GetChildWorkflowExecution().Get(childCtx, nil); err != nil {
			return nil, err
		}
	}
	return &result, nil
}
