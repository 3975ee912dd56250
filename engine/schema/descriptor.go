package schema

import (
	"fmt"

	"github.com/infrahub-io/computed-attributes/engine/core"
)

// Flavor classifies how a computed attribute's value is produced.
type Flavor string

const (
	FlavorTemplate  Flavor = "TEMPLATE"
	FlavorTransform Flavor = "TRANSFORM"
)

// Descriptor is the in-memory representation of one computed attribute
// extracted from the schema.
type Descriptor struct {
	Kind      NodeKind
	Attribute string
	Flavor    Flavor

	// Template is set iff Flavor == FlavorTemplate.
	Template string

	// Transform fields are set iff Flavor == FlavorTransform.
	TransformRef   string
	QueryName      string
	QueryModels    []NodeKind
	RepositoryID   string
	RepositoryName string
	RepositoryKind string

	AttributeKind string
}

// KeyName is the stable identifier used as the automation key:
// "{kind}_{attribute}".
func (d *Descriptor) KeyName() string {
	return fmt.Sprintf("%s_%s", d.Kind, d.Attribute)
}

// newDescriptor validates and builds a Descriptor from one computed
// AttributeDef declared on kind. Failures are *core.Error with
// core.CodeSchemaError and abort only this descriptor.
func newDescriptor(kind NodeKind, def AttributeDef) (*Descriptor, error) {
	hasTemplate := def.Template != ""
	hasTransform := def.TransformRef != ""
	if hasTemplate == hasTransform {
		reason := "neither template nor transform_ref is set"
		if hasTemplate {
			reason = "both template and transform_ref are set"
		}
		return nil, core.SchemaError(string(kind), def.Name, reason)
	}
	d := &Descriptor{
		Kind:          kind,
		Attribute:     def.Name,
		AttributeKind: def.AttributeKind,
	}
	if hasTemplate {
		d.Flavor = FlavorTemplate
		d.Template = def.Template
		return d, nil
	}
	d.Flavor = FlavorTransform
	d.TransformRef = def.TransformRef
	d.QueryName = def.QueryName
	d.RepositoryID = def.RepositoryID
	d.RepositoryName = def.RepositoryName
	d.RepositoryKind = def.RepositoryKind
	for _, m := range def.QueryModels {
		d.QueryModels = append(d.QueryModels, NodeKind(m))
	}
	return d, nil
}
