// Package automation converges the external workflow engine's automation
// set with a schema index: it creates, updates, or leaves
// intact one automation per (identifier, scope) pair, and never deletes one
// on reconcile.
package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/event"
	"github.com/infrahub-io/computed-attributes/engine/host"
	"github.com/infrahub-io/computed-attributes/engine/schema"
	"github.com/infrahub-io/computed-attributes/pkg/logger"
)

// Prefix distinguishes the two automation families.
type Prefix string

const (
	ProcessPrefix Prefix = "computed-attr-process"
	QueryPrefix   Prefix = "computed-attr-query"

	// DefaultScope is the only scope in use today; the dimension is reserved
	// for future multi-tenant scoping.
	DefaultScope = "default"

	DeploymentProcessJinja2    = "process_computed_attribute_jinja2"
	DeploymentProcessTransform = "process_computed_attribute_transform"
	DeploymentQueryTargets     = "query-computed-attribute-transform-targets"
)

// Name builds the `{prefix}::{identifier}::{scope}` automation name.
func Name(prefix Prefix, identifier, scope string) string {
	return fmt.Sprintf("%s::%s::%s", prefix, identifier, scope)
}

// ParseName splits an automation name into its three parts. ok is false for
// any name that doesn't match the expected shape; such names are ignored
// when building the catalog.
func ParseName(name string) (prefix Prefix, identifier, scope string, ok bool) {
	parts := strings.Split(name, "::")
	if len(parts) != 3 {
		return "", "", "", false
	}
	if parts[0] != string(ProcessPrefix) && parts[0] != string(QueryPrefix) {
		return "", "", "", false
	}
	return Prefix(parts[0]), parts[1], parts[2], true
}

// Handle is the opaque reference the workflow engine returns for a
// registered automation.
type Handle struct {
	ID   string
	Name string
}

// Spec is the desired state of one automation: its trigger and the action it
// runs.
type Spec struct {
	Name       string
	Trigger    event.Trigger
	Deployment string
	// StaticParams are burnt in at registration time; EventParams name the
	// event fields substituted at dispatch time.
	StaticParams core.Params
	EventParams  map[string]event.ParamPath
}

// Descriptor is one automation as reported back by Engine.List.
type Descriptor struct {
	Handle Handle
	Name   string
}

// Engine is the workflow-engine collaborator boundary: list automations,
// create one, update one in place. No vendor is assumed.
type Engine interface {
	List(ctx context.Context) ([]Descriptor, error)
	Create(ctx context.Context, spec Spec) (Handle, error)
	Update(ctx context.Context, handle Handle, spec Spec) error
}

// Catalog is the parsed view of the engine's current automation set,
// keyed prefix → identifier → scope → handle.
type Catalog map[Prefix]map[string]map[string]Handle

// BuildCatalog parses descs into a Catalog, discarding any name that doesn't
// match the `{prefix}::{identifier}::{scope}` shape.
func BuildCatalog(descs []Descriptor) Catalog {
	cat := make(Catalog)
	for _, d := range descs {
		prefix, identifier, scope, ok := ParseName(d.Name)
		if !ok {
			continue
		}
		if cat[prefix] == nil {
			cat[prefix] = make(map[string]map[string]Handle)
		}
		if cat[prefix][identifier] == nil {
			cat[prefix][identifier] = make(map[string]Handle)
		}
		cat[prefix][identifier][scope] = d.Handle
	}
	return cat
}

func (c Catalog) lookup(prefix Prefix, identifier, scope string) (Handle, bool) {
	byIdentifier, ok := c[prefix]
	if !ok {
		return Handle{}, false
	}
	byScope, ok := byIdentifier[identifier]
	if !ok {
		return Handle{}, false
	}
	h, ok := byScope[scope]
	return h, ok
}

// Reconcile implements the registration algorithm: one PROCESS
// automation per TEMPLATE descriptor, a PROCESS/QUERY pair per TRANSFORM
// descriptor, create-or-update keyed by name, never delete. Callers must
// serialize invocations (single-writer by contract); reads may interleave
// freely.
//
// TRANSFORM descriptors whose transform is absent from transforms
// are logged as a warning and skipped
// entirely — no automation is registered for them.
func Reconcile(ctx context.Context, idx *schema.Index, eng Engine, transforms host.TransformStore) error {
	runID, err := core.NewID()
	if err != nil {
		return fmt.Errorf("automation: generate run id: %w", err)
	}
	log := logger.FromContext(ctx).With("run_id", runID)

	descs, err := eng.List(ctx)
	if err != nil {
		return core.EngineUnavailableError(err)
	}
	catalog := BuildCatalog(descs)

	registered := 0
	for _, d := range idx.Descriptors() {
		switch d.Flavor {
		case schema.FlavorTemplate:
			if err := upsert(ctx, eng, catalog, templateProcessSpec(idx, d)); err != nil {
				return err
			}
			registered++
		case schema.FlavorTransform:
			if transforms != nil {
				if _, _, ok := transforms.Lookup(ctx, d.TransformRef); !ok {
					missing := core.MissingTransformError(d.TransformRef)
					log.Warn("skipping descriptor: transform not found in store",
						"descriptor", d.KeyName(), "code", missing.Code, "details", missing.AsMap())
					continue
				}
			}
			if err := upsert(ctx, eng, catalog, transformProcessSpec(d)); err != nil {
				return err
			}
			if err := upsert(ctx, eng, catalog, transformQuerySpec(d)); err != nil {
				return err
			}
			registered++
		}
	}
	log.Info("automation reconcile complete", "descriptor_count", len(idx.Descriptors()), "registered", registered)
	return nil
}

func upsert(ctx context.Context, eng Engine, catalog Catalog, spec Spec) error {
	log := logger.FromContext(ctx)
	prefix, identifier, scope, ok := ParseName(spec.Name)
	if !ok {
		return fmt.Errorf("automation: built an unparseable name %q", spec.Name)
	}
	if handle, exists := catalog.lookup(prefix, identifier, scope); exists {
		log.Debug("updating automation in place", "name", spec.Name)
		return eng.Update(ctx, handle, spec)
	}
	log.Debug("creating automation", "name", spec.Name)
	_, err := eng.Create(ctx, spec)
	return err
}

func nodeKindStrings(kinds []schema.NodeKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func templateProcessSpec(idx *schema.Index, d *schema.Descriptor) Spec {
	return Spec{
		Name:       Name(ProcessPrefix, d.KeyName(), DefaultScope),
		Trigger:    event.NewTrigger(nodeKindStrings(idx.SourceKinds(d))),
		Deployment: DeploymentProcessJinja2,
		StaticParams: core.Params{
			"computed_attribute_name":       d.Attribute,
			"computed_attribute_kind":       d.AttributeKind,
			"computed_attribute_owner_kind": string(d.Kind),
		},
		EventParams: map[string]event.ParamPath{
			"branch_name": event.ParamBranch,
			"node_kind":   event.ParamKind,
			"object_id":   event.ParamID,
		},
	}
}

func transformProcessSpec(d *schema.Descriptor) Spec {
	return Spec{
		Name:       Name(ProcessPrefix, d.KeyName(), DefaultScope),
		Trigger:    event.NewTrigger([]string{string(d.Kind)}),
		Deployment: DeploymentProcessTransform,
		StaticParams: core.Params{
			"computed_attribute_name":       d.Attribute,
			"computed_attribute_kind":       d.AttributeKind,
			"computed_attribute_owner_kind": string(d.Kind),
		},
		EventParams: map[string]event.ParamPath{
			"branch_name": event.ParamBranch,
			"node_kind":   event.ParamKind,
			"object_id":   event.ParamID,
		},
	}
}

func transformQuerySpec(d *schema.Descriptor) Spec {
	return Spec{
		Name:       Name(QueryPrefix, d.KeyName(), DefaultScope),
		Trigger:    event.NewTrigger(nodeKindStrings(d.QueryModels)),
		Deployment: DeploymentQueryTargets,
		EventParams: map[string]event.ParamPath{
			"branch_name": event.ParamBranch,
			"node_kind":   event.ParamKind,
			"object_id":   event.ParamID,
		},
	}
}
