// Package temporalengine adapts automation.Engine onto Temporal, using a
// long-running workflow fed by named signals that matches incoming events
// against registered triggers, rather than Temporal Schedules, since the
// reactive trigger's shape (resource match, threshold, debounce window) has
// no cron equivalent.
package temporalengine

import (
	"go.temporal.io/sdk/workflow"

	"github.com/infrahub-io/computed-attributes/engine/automation"
	"github.com/infrahub-io/computed-attributes/engine/event"
	"github.com/infrahub-io/computed-attributes/engine/reconcile"
)

// CatalogWorkflowID is the single well-known workflow id every Engine
// method signals or queries; one instance per worker deployment.
const CatalogWorkflowID = "computed-attribute-automation-catalog"

// UpsertSignal is the signal channel CatalogWorkflow listens on.
const UpsertSignal = "automation.upsert"

// CatalogQuery is the query handler name Engine.List issues against the
// running CatalogWorkflow.
const CatalogQuery = "automation.list"

// DispatchSignal carries a node-mutation event in to CatalogWorkflow; every
// registered automation whose trigger matches the event's kind runs as a
// child workflow.
const DispatchSignal = "automation.dispatch"

// UpsertEvent is the payload carried on UpsertSignal: the desired automation
// and (if already known) the handle to update in place.
type UpsertEvent struct {
	Handle automation.Handle
	Spec   automation.Spec
}

// CatalogWorkflow holds the live automation set in its workflow state,
// mutated only by UpsertSignal and never by a delete (create/update/never-
// delete is structural here, not just a convention: there is no delete
// signal to send). It also dispatches: every DispatchSignal is matched
// against each registered automation's trigger, and a match runs that
// automation's worker as a child workflow with its static parameters merged
// against the event's fields.
func CatalogWorkflow(ctx workflow.Context) error {
	descriptors := make(map[string]automation.Descriptor) // by Handle.ID
	specs := make(map[string]automation.Spec)              // by Handle.ID
	nameIndex := make(map[string]string)                   // Spec.Name -> Handle.ID

	err := workflow.SetQueryHandler(ctx, CatalogQuery, func() ([]automation.Descriptor, error) {
		out := make([]automation.Descriptor, 0, len(descriptors))
		for _, d := range descriptors {
			out = append(out, d)
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	upsertCh := workflow.GetSignalChannel(ctx, UpsertSignal)
	dispatchCh := workflow.GetSignalChannel(ctx, DispatchSignal)
	selector := workflow.NewSelector(ctx)

	selector.AddReceive(upsertCh, func(c workflow.ReceiveChannel, _ bool) {
		var ev UpsertEvent
		c.Receive(ctx, &ev)

		handle := ev.Handle
		if handle.ID == "" {
			if existingID, ok := nameIndex[ev.Spec.Name]; ok {
				handle = automation.Handle{ID: existingID, Name: ev.Spec.Name}
			} else {
				handle = automation.Handle{ID: ev.Spec.Name, Name: ev.Spec.Name}
			}
		}
		nameIndex[ev.Spec.Name] = handle.ID
		descriptors[handle.ID] = automation.Descriptor{Handle: handle, Name: ev.Spec.Name}
		specs[handle.ID] = ev.Spec
	})

	selector.AddReceive(dispatchCh, func(c workflow.ReceiveChannel, _ bool) {
		var ev event.TriggerEvent
		c.Receive(ctx, &ev)
		dispatch(ctx, specs, ev)
	})

	for {
		selector.Select(ctx)
	}
}

// dispatch runs one child workflow per registered automation whose trigger
// names ev.Kind among its source kinds, merging that automation's static
// parameters with ev's fields into the deployment's typed input.
func dispatch(ctx workflow.Context, specs map[string]automation.Spec, ev event.TriggerEvent) {
	for _, spec := range specs {
		if !matches(spec.Trigger, ev.Kind) {
			continue
		}
		switch spec.Deployment {
		case automation.DeploymentProcessJinja2:
			in, err := reconcile.BuildProcessJinja2Input(spec, ev)
			if err != nil {
				continue
			}
			workflow.ExecuteChildWorkflow(ctx, reconcile.ProcessJinja2Workflow, in)
		case automation.DeploymentProcessTransform:
			in, err := reconcile.BuildProcessTransformInput(spec, ev)
			if err != nil {
				continue
			}
			workflow.ExecuteChildWorkflow(ctx, reconcile.ProcessTransformWorkflow, in)
		case automation.DeploymentQueryTargets:
			in, err := reconcile.BuildQueryTransformTargetsInput(spec, ev)
			if err != nil {
				continue
			}
			workflow.ExecuteChildWorkflow(ctx, reconcile.QueryTransformTargetsWorkflow, in)
		}
	}
}

func matches(t event.Trigger, kind string) bool {
	for _, k := range t.Match.NodeKind {
		if k == kind {
			return true
		}
	}
	return false
}
