// Command worker wires the Temporal client, ensures the automation catalog
// workflow is running, registers the reconciliation workflows/activities,
// and runs the Temporal worker: a process-wide service handle whose
// lifecycle is initialized once at startup and torn down at shutdown. It
// does not run the schema-convergence wait, automation.Reconcile or the
// initial sweep; nothing in this command calls them. It is a startup entry
// point, not a CLI surface.
package main

import (
	"context"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/infrahub-io/computed-attributes/engine/automation/temporalengine"
	"github.com/infrahub-io/computed-attributes/engine/reconcile"
	"github.com/infrahub-io/computed-attributes/pkg/config"
	"github.com/infrahub-io/computed-attributes/pkg/logger"
)

func main() {
	log := logger.NewLogger(nil)
	ctx := logger.ContextWithLogger(context.Background(), log)
	if err := run(ctx); err != nil {
		log.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return err
	}
	defer temporalClient.Close()

	if _, err := temporalengine.New(ctx, temporalClient, cfg.Temporal.TaskQueue); err != nil {
		return err
	}

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
	activities := &reconcile.Activities{} // Nodes/Queries/Groups/Repos/Transforms/Transformer are wired by the host adapter package
	reconcile.RegisterActivities(w, activities)
	w.RegisterWorkflow(reconcile.ProcessJinja2Workflow)
	w.RegisterWorkflow(reconcile.ProcessTransformWorkflow)
	w.RegisterWorkflow(reconcile.QueryTransformTargetsWorkflow)
	w.RegisterWorkflow(temporalengine.CatalogWorkflow)

	log.Info("starting computed-attribute worker", "task_queue", cfg.Temporal.TaskQueue)
	return w.Run(worker.InterruptCh())
}
