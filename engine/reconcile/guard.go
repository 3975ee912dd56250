package reconcile

import (
	"context"

	"github.com/infrahub-io/computed-attributes/engine/host"
)

// writeIfChanged is the equality guard shared by the TEMPLATE and TRANSFORM
// workers: no mutation is issued whose value
// equals the attribute's current stored value. It returns true if a mutation
// was written.
func writeIfChanged(
	ctx context.Context,
	store host.NodeStore,
	branch, kind, id, attribute, newValue string,
	current host.Node,
) (bool, error) {
	if existing, ok := current.AttributeString(attribute); ok && existing == newValue {
		return false, nil
	}
	if err := store.UpdateComputedAttribute(ctx, branch, kind, id, attribute, newValue); err != nil {
		return false, err
	}
	return true, nil
}
