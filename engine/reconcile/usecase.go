package reconcile

import (
	"context"

	"github.com/infrahub-io/computed-attributes/engine/core"
	"github.com/infrahub-io/computed-attributes/engine/host"
	"github.com/infrahub-io/computed-attributes/engine/schema"
)

// ProcessJinja2Usecase adapts ProcessJinja2 to core.Usecase[T], the shape
// every reconciliation flow takes.
type ProcessJinja2Usecase struct {
	Index *schema.Index
	Nodes host.NodeStore
	Input ProcessJinja2Input
}

var _ core.Usecase[*ProcessJinja2Result] = (*ProcessJinja2Usecase)(nil)

func (u *ProcessJinja2Usecase) Execute(ctx context.Context) (*ProcessJinja2Result, error) {
	return ProcessJinja2(ctx, u.Index, u.Nodes, u.Input)
}

// ProcessTransformUsecase adapts ProcessTransform to core.Usecase[T].
type ProcessTransformUsecase struct {
	Index       *schema.Index
	Nodes       host.NodeStore
	Queries     host.QueryRunner
	Groups      host.SubscriberGroups
	Repos       host.RepositoryManager
	Transforms  host.TransformStore
	Transformer host.TransformRunner
	Input       ProcessTransformInput
}

var _ core.Usecase[*ProcessTransformResult] = (*ProcessTransformUsecase)(nil)

func (u *ProcessTransformUsecase) Execute(ctx context.Context) (*ProcessTransformResult, error) {
	return ProcessTransform(ctx, u.Index, u.Nodes, u.Queries, u.Groups, u.Repos, u.Transforms, u.Transformer, u.Input)
}

// QueryTransformTargetsUsecase adapts QueryTransformTargets to core.Usecase[T].
type QueryTransformTargetsUsecase struct {
	Index  *schema.Index
	Groups host.SubscriberGroups
	Input  QueryTransformTargetsInput
}

var _ core.Usecase[*QueryTransformTargetsResult] = (*QueryTransformTargetsUsecase)(nil)

func (u *QueryTransformTargetsUsecase) Execute(ctx context.Context) (*QueryTransformTargetsResult, error) {
	return QueryTransformTargets(ctx, u.Index, u.Groups, u.Input)
}
