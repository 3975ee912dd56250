package temporalengine

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/infrahub-io/computed-attributes/engine/automation"
	"github.com/infrahub-io/computed-attributes/engine/event"
)

// Engine implements automation.Engine against a running CatalogWorkflow,
// reached through a plain Temporal client.Client — the only vendor
// assumption this package makes; the catalog workflow is the adapter
// boundary, so swapping engines means swapping this package, not its callers.
type Engine struct {
	Client    client.Client
	TaskQueue string
}

// New builds an Engine and ensures CatalogWorkflow is running, starting it
// if this is the first setup on this namespace.
func New(ctx context.Context, c client.Client, taskQueue string) (*Engine, error) {
	e := &Engine{Client: c, TaskQueue: taskQueue}
	_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       CatalogWorkflowID,
		TaskQueue:                taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY, // one long-lived catalog per deployment
		WorkflowExecutionTimeout: 0,
	}, CatalogWorkflow)
	if err != nil {
		var alreadyStarted *client.WorkflowExecutionAlreadyStartedError
		if errors.As(err, &alreadyStarted) {
			return e, nil
		}
		return nil, fmt.Errorf("start catalog workflow: %w", err)
	}
	return e, nil
}

// List queries CatalogWorkflow for the current automation set.
func (e *Engine) List(ctx context.Context) ([]automation.Descriptor, error) {
	val, err := e.Client.QueryWorkflow(ctx, CatalogWorkflowID, "", CatalogQuery)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	var out []automation.Descriptor
	if err := val.Get(&out); err != nil {
		return nil, fmt.Errorf("decode catalog query result: %w", err)
	}
	return out, nil
}

// Create signals CatalogWorkflow to register spec under a handle whose id
// is spec's name.
func (e *Engine) Create(ctx context.Context, spec automation.Spec) (automation.Handle, error) {
	handle := automation.Handle{ID: spec.Name, Name: spec.Name}
	if err := e.Client.SignalWorkflow(ctx, CatalogWorkflowID, "", UpsertSignal, UpsertEvent{Handle: handle, Spec: spec}); err != nil {
		return automation.Handle{}, fmt.Errorf("signal create %q: %w", spec.Name, err)
	}
	return handle, nil
}

// Update signals CatalogWorkflow to replace spec in place, keeping handle's
// id: the same handle keeps identifying this automation across updates.
func (e *Engine) Update(ctx context.Context, handle automation.Handle, spec automation.Spec) error {
	if err := e.Client.SignalWorkflow(ctx, CatalogWorkflowID, "", UpsertSignal, UpsertEvent{Handle: handle, Spec: spec}); err != nil {
		return fmt.Errorf("signal update %q: %w", spec.Name, err)
	}
	return nil
}

// Dispatch signals CatalogWorkflow with a node-mutation event, triggering
// every registered automation whose trigger matches ev.Kind.
func (e *Engine) Dispatch(ctx context.Context, ev event.TriggerEvent) error {
	if err := e.Client.SignalWorkflow(ctx, CatalogWorkflowID, "", DispatchSignal, ev); err != nil {
		return fmt.Errorf("signal dispatch for kind %q: %w", ev.Kind, err)
	}
	return nil
}
