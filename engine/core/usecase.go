package core

import "context"

// Usecase is the shape every reconciliation flow and registrar operation
// implements: a pure function of context to a result, composable with
// Temporal's activity/workflow registration without any framework-specific
// interface.
type Usecase[T any] interface {
	Execute(ctx context.Context) (T, error)
}
